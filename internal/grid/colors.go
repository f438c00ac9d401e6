package grid

import (
	"strings"

	"flexitime/internal/domain/rollcall"
)

// FillStyle tells the view how to paint a cell or half-cell.
type FillStyle int

const (
	FillSolid FillStyle = iota
	FillStriped
)

var colorTokens = map[string]string{
	"blue":   "#dbeafe",
	"green":  "#dcfce7",
	"yellow": "#fef3c7",
	"red":    "#fee2e2",
	"purple": "#ede9fe",
	"pink":   "#fce7f3",
	"gray":   "#f3f4f6",
	"indigo": "#e0e7ff",
}

const defaultCellColor = "#e5e7eb"

// ColorToken resolves a named color token to its hex value. Hex values pass
// through unchanged; unknown tokens fall back to a neutral gray.
func ColorToken(value string) string {
	if strings.HasPrefix(value, "#") {
		return value
	}
	if hex, ok := colorTokens[strings.ToLower(value)]; ok {
		return hex
	}
	return defaultCellColor
}

// FillForStatus maps a leave status to its paint style. Tentative and draft
// entries get a striped pattern so unconfirmed leave stands out; approved and
// non-leave entries paint solid.
func FillForStatus(status rollcall.LeaveStatus) FillStyle {
	switch status {
	case rollcall.StatusTentative, rollcall.StatusDraft:
		return FillStriped
	default:
		return FillSolid
	}
}

// DisplayName prefers the nickname when the viewer asked for it.
func DisplayName(e rollcall.Employee, preferNickname bool) string {
	if preferNickname && e.Nickname != "" {
		return e.Nickname
	}
	return e.Name
}
