package monitor

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config tunes the monitor thresholds.
type Config struct {
	// Interval between scheduled checks.
	Interval time.Duration
	// HistorySize is the number of samples retained (48 x 15m = 12h).
	HistorySize int
	// LowHitRate raises a warning when the trailing average drops below it.
	LowHitRate float64
	// MinRequests is the traffic needed before hit rate alerts fire.
	MinRequests int64
	// ErrorRateCritical raises an error alert when exceeded.
	ErrorRateCritical float64
	// IdleWindow raises a warning when no cache activity was seen for it.
	IdleWindow time.Duration
	// MaxAlerts bounds the alert ring.
	MaxAlerts int
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Interval:          15 * time.Minute,
		HistorySize:       48,
		LowHitRate:        0.30,
		MinRequests:       100,
		ErrorRateCritical: 0.10,
		IdleWindow:        time.Hour,
		MaxAlerts:         50,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Interval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.HistorySize, validation.Required, validation.Min(1)),
		validation.Field(&c.LowHitRate, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinRequests, validation.Min(int64(0))),
		validation.Field(&c.ErrorRateCritical, validation.Required, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.IdleWindow, validation.Required),
		validation.Field(&c.MaxAlerts, validation.Required, validation.Min(1)),
	)
}
