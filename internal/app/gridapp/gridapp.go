// Package gridapp binds the grid engine to a running roll-call service: it
// maps service configuration onto the engine's tuning knobs and plugs in the
// HTTP client as the engine's transport.
package gridapp

import (
	"flexitime/internal/client"
	"flexitime/internal/grid"
	"flexitime/internal/platform/config"
)

// GridConfig maps service configuration onto the engine's tuning knobs.
// Knobs the service does not carry keep the engine defaults.
func GridConfig(cfg config.Config) grid.Config {
	return grid.Config{
		SaveDebounce:        cfg.SaveDebounce,
		RenderDebounce:      cfg.RenderDebounce,
		ScrollThrottle:      cfg.ScrollThrottle,
		ExpandTimeout:       cfg.ExpandTimeout,
		WindowMaxDays:       cfg.WindowMaxDays,
		HolidayPresenceType: cfg.HolidayPresenceType,
	}
}

// New builds a grid controller talking to the service at baseURL on behalf of
// the user holding token.
func New(cfg config.Config, baseURL, token string, notifier grid.Notifier, sink grid.ViewSink) *grid.Controller {
	return grid.New(client.New(baseURL, token), notifier, sink, GridConfig(cfg))
}
