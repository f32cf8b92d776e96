package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth errors are mapped in the auth package interceptor.
// Malformed requests map to INVALID_ARGUMENT, store failures to UNAVAILABLE
// and context expiry to DEADLINE_EXCEEDED or CANCELED.

func invalidArgument(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// storeError maps a failed read of conditions or profiles.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "timed out loading %s", what)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "request canceled loading %s", what)
	default:
		return status.Errorf(codes.Unavailable, "failed to load %s", what)
	}
}
