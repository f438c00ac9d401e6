package gridapp

import (
	"testing"
	"time"

	"flexitime/internal/platform/config"
)

func TestGridConfigCarriesTimingKnobs(t *testing.T) {
	t.Parallel()

	cfg := config.Load()
	cfg.SaveDebounce = 450 * time.Millisecond
	cfg.RenderDebounce = 75 * time.Millisecond
	cfg.ScrollThrottle = 120 * time.Millisecond
	cfg.ExpandTimeout = 7 * time.Second
	cfg.WindowMaxDays = 90
	cfg.HolidayPresenceType = "public_holiday"

	gc := GridConfig(cfg)

	if gc.SaveDebounce != cfg.SaveDebounce {
		t.Fatalf("SaveDebounce = %v, want %v", gc.SaveDebounce, cfg.SaveDebounce)
	}
	if gc.RenderDebounce != cfg.RenderDebounce {
		t.Fatalf("RenderDebounce = %v, want %v", gc.RenderDebounce, cfg.RenderDebounce)
	}
	if gc.ScrollThrottle != cfg.ScrollThrottle {
		t.Fatalf("ScrollThrottle = %v, want %v", gc.ScrollThrottle, cfg.ScrollThrottle)
	}
	if gc.ExpandTimeout != cfg.ExpandTimeout {
		t.Fatalf("ExpandTimeout = %v, want %v", gc.ExpandTimeout, cfg.ExpandTimeout)
	}
	if gc.WindowMaxDays != 90 {
		t.Fatalf("WindowMaxDays = %d, want 90", gc.WindowMaxDays)
	}
	if gc.HolidayPresenceType != "public_holiday" {
		t.Fatalf("HolidayPresenceType = %q, want public_holiday", gc.HolidayPresenceType)
	}
}
