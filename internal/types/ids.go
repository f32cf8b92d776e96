package types

import (
	"time"

	"github.com/google/uuid"
)

// NewConditionID generates a UUIDv7 condition identifier.
// Time-ordered IDs ensure sequential inserts cluster in B-tree pages.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewConditionID() ConditionID {
	return ConditionID(uuid.Must(uuid.NewV7()).String())
}

// NewAPIKeyID generates a UUIDv7 API key identifier.
func NewAPIKeyID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseConditionID validates and converts a string to ConditionID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseConditionID(s string) (ConditionID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ConditionID(s), nil
}

// ConditionIDTime extracts the creation timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ConditionIDTime(id ConditionID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
