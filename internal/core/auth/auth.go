// Package auth provides HMAC-based API key authentication for gRPC services.
//
// Keys are issued per park. The plaintext key is shown once at creation;
// the database holds only HMAC-SHA256(secret, key), looked up by the
// secret_id embedded in the key.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/parkwatch/internal/types"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// parkIDKey is the context key for storing the authenticated park ID.
const parkIDKey = contextKey("park_id")

// Queries defines database operations needed for authentication.
// Implemented by *db.Queries.
type Queries interface {
	Get(ctx context.Context, name string, dest interface{}, args ...interface{}) error
	Exec(ctx context.Context, name string, args ...interface{}) (sql.Result, error)
}

// Authenticator validates API keys using HMAC-SHA256 signatures.
// Holds in-memory secret map for O(1) lookup and queries for key verification.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger *zap.Logger) (*Authenticator, error) {
	if len(secrets) == 0 {
		return nil, ErrNoSecrets
	}
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Authenticate validates API key and returns park_id on success.
// Returns specific error for each failure mode (5-tier taxonomy).
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	computedHash := ComputeHMAC(secret, apiKey)

	// key_hash is unique, so at most one row matches.
	var result struct {
		ParkID     string       `db:"park_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		APIKeyID   string       `db:"api_key_id"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get(ctx, "get-api-key-by-hash", &result, computedHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyStore, err)
	}

	if result.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	// 1-minute throttle keeps active sensors from writing on every call.
	now := a.now()
	if shouldUpdateLastUsed(result.LastUsedAt, now) {
		if _, err := a.queries.Exec(ctx, "update-last-used", now, result.APIKeyID); err != nil {
			a.logger.Warn("failed to update api key last_used_at",
				zap.String("api_key_id", result.APIKeyID), zap.Error(err))
		}
	}

	return result.ParkID, nil
}

func shouldUpdateLastUsed(lastUsed sql.NullTime, now time.Time) bool {
	if !lastUsed.Valid {
		return true
	}
	return now.Sub(lastUsed.Time) > time.Minute
}

// IssuedKey is the result of Issue. Key is the only copy of the plaintext.
type IssuedKey struct {
	APIKeyID string
	ParkID   string
	Name     string
	Key      string
}

// PrimarySecretID returns the secret new keys are signed with: the greatest
// id, which for UUIDv7 ids is the newest.
func (a *Authenticator) PrimarySecretID() string {
	ids := make([]string, 0, len(a.secrets))
	for id := range a.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[len(ids)-1]
}

// Issue creates and stores a new key for parkID, signed with the primary secret.
func (a *Authenticator) Issue(ctx context.Context, parkID, name string) (*IssuedKey, error) {
	if parkID == "" {
		return nil, fmt.Errorf("park id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("key name cannot be empty")
	}

	secretID := a.PrimarySecretID()
	key, hash, err := GenerateAPIKey(secretID, a.secrets[secretID])
	if err != nil {
		return nil, err
	}

	id := types.NewAPIKeyID()
	if _, err := a.queries.Exec(ctx, "insert-api-key", id, parkID, name, hash, a.now()); err != nil {
		return nil, fmt.Errorf("failed to store api key: %w", err)
	}

	a.logger.Info("api key issued", zap.String("api_key_id", id), zap.String("park_id", parkID))
	return &IssuedKey{APIKeyID: id, ParkID: parkID, Name: name, Key: key}, nil
}

// Revoke marks a key revoked. Revoking an unknown or already revoked key
// returns ErrInvalidKey.
func (a *Authenticator) Revoke(ctx context.Context, apiKeyID string) error {
	res, err := a.queries.Exec(ctx, "revoke-api-key", a.now(), apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	if n == 0 {
		return ErrInvalidKey
	}
	return nil
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
// Methods listed in skip (full method names) bypass authentication.
func (a *Authenticator) UnaryInterceptor(skip ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]bool, len(skip))
	for _, m := range skip {
		open[m] = true
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if open[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		parkID, err := a.Authenticate(ctx, apiKeys[0])
		switch {
		case err == nil:
		case errors.Is(err, ErrKeyRevoked):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		case errors.Is(err, ErrKeyStore):
			a.logger.Error("api key lookup failed", zap.Error(err))
			return nil, status.Error(codes.Unavailable, ErrKeyStore.Error())
		default:
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(WithParkID(ctx, parkID), req)
	}
}

// WithParkID returns a context carrying parkID.
func WithParkID(ctx context.Context, parkID string) context.Context {
	return context.WithValue(ctx, parkIDKey, parkID)
}

// ParkIDFromContext extracts park ID from context.
// Returns empty string if not found.
func ParkIDFromContext(ctx context.Context) string {
	if parkID, ok := ctx.Value(parkIDKey).(string); ok {
		return parkID
	}
	return ""
}
