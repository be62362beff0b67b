// Package limits defines the configurable resource ceilings enforced by
// the session manager and registry, grounded on original_source/src/limits.rs
// (the pre-distillation Rust ResourceLimits type) and carried into spec.md
// §4.2's limits table unchanged.
package limits

// Limits bounds how many sessions, tools, resources, and prompts a server
// will hold, and how large a single inbound message may be. A zero value
// in any field disables that particular ceiling,
// mirroring the source's Option<usize>::None.
type Limits struct {
	MaxSessions      int `koanf:"max_sessions"`
	MaxMessageSize   int `koanf:"max_message_size"`
	MaxTools         int `koanf:"max_tools"`
	MaxResources     int `koanf:"max_resources"`
	MaxPrompts       int `koanf:"max_prompts"`
}

// Default returns the spec's documented defaults.
func Default() Limits {
	return Limits{
		MaxSessions:    10_000,
		MaxMessageSize: 2 * 1024 * 1024,
		MaxTools:       1_000,
		MaxResources:   10_000,
		MaxPrompts:     1_000,
	}
}

// Unlimited disables every ceiling. Use with caution: intended for
// embedders who enforce their own limits upstream.
func Unlimited() Limits {
	return Limits{}
}

// Strict returns a tight preset suitable for tests and constrained
// deployments, matching original_source/src/limits.rs's strict() preset.
func Strict() Limits {
	return Limits{
		MaxSessions:    100,
		MaxMessageSize: 256 * 1024,
		MaxTools:       50,
		MaxResources:   100,
		MaxPrompts:     50,
	}
}

// Allows reports whether count is permitted under max (0 == unlimited).
func Allows(count, max int) bool {
	if max == 0 {
		return true
	}
	return count < max
}
