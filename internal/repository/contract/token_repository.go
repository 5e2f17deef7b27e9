package contract

import (
	"context"
	"time"
)

// TokenRepository is the revocation list for access tokens. Logout puts a
// token here for the remainder of its lifetime; the JWT middleware rejects
// anything it finds.
type TokenRepository interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
