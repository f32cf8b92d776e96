// Package condition implements the event-condition rules: derived defaults,
// structural validation, duplicate detection, display ordering and
// evaluation of sensor readings against a condition set.
//
// Everything here is a pure function over values. The stateful edit session
// lives in internal/session and calls into this package after every mutation.
package condition

import "github.com/solatis/parkwatch/internal/types"

// Catalog is the read-only profile list of one device type.
type Catalog []types.DeviceProfile

// Lookup returns the profile declared for fieldKey.
func (c Catalog) Lookup(fieldKey string) (types.DeviceProfile, bool) {
	for _, p := range c {
		if p.FieldKey == fieldKey {
			return p, true
		}
	}
	return types.DeviceProfile{}, false
}

// IsBoolean reports whether fieldKey names a Boolean field.
// Unknown keys are treated as numeric.
func (c Catalog) IsBoolean(fieldKey string) bool {
	p, ok := c.Lookup(fieldKey)
	return ok && p.IsBoolean()
}

// Describe returns the profile description, falling back to the key itself.
func (c Catalog) Describe(fieldKey string) string {
	if p, ok := c.Lookup(fieldKey); ok && p.Description != "" {
		return p.Description
	}
	return fieldKey
}

// AllowedLevels returns the levels an operator may pick for fieldKey.
// The boolean state space is binary, so only NORMAL and DANGER apply.
func (c Catalog) AllowedLevels(fieldKey string) []types.Level {
	if c.IsBoolean(fieldKey) {
		return []types.Level{types.LevelNormal, types.LevelDanger}
	}
	return []types.Level{types.LevelNormal, types.LevelCaution, types.LevelWarning, types.LevelDanger}
}

func levelAllowed(allowed []types.Level, l types.Level) bool {
	for _, a := range allowed {
		if a == l {
			return true
		}
	}
	return false
}
