// Package filter provides the filter chain applied to tracks when a catalog is imported.
package filter

import (
	"context"

	"github.com/osa030/trackdeck/internal/domain/track"
)

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duration_too_long", "duplicate_track"
	Detail   string // Human readable reason, may be empty
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// RejectWithDetail returns a rejected result carrying a readable reason.
func RejectWithDetail(code, detail string) Result {
	return Result{Accepted: false, Code: code, Detail: detail}
}

// Filter is the interface for track filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter configuration.
	ValidateConfig(settings map[string]any) error
	// Check checks a candidate against the tracks accepted so far.
	Check(ctx context.Context, candidate track.Track, accepted []track.Track) Result
}

// registry holds registered filter factories.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
