package store

import (
	"context"
	"errors"

	"github.com/loancollect/ldts/internal/ldts/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and it is the single source of truth for all credential and
// session state; nothing is cached across requests.
type Store interface {
	Principals() Principals
	Otps() Otps
	RefreshTokens() RefreshTokens
	PastDue() PastDue

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to run the deactivate-then-insert sequences.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetPrincipalByID returns an active principal by id.
	GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error)

	// GetPrincipalByEmail is used during login; only active principals match.
	GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error)

	// GetPrincipalByRefreshTokenHash resolves the owner of a stored refresh
	// token fingerprint, regardless of the token row's active flag. The
	// token service decides what a superseded row means.
	GetPrincipalByRefreshTokenHash(ctx context.Context, hash string) (domain.Principal, error)

	// CreatePrincipal inserts a new principal (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is already registered.
	CreatePrincipal(ctx context.Context, p domain.Principal) error

	// UpdatePasswordHash sets the password_hash, clears must_change_password
	// and bumps updated_at. The two writes are one statement so the
	// temp-password transition is atomic with the new credential.
	UpdatePasswordHash(ctx context.Context, principalID string, newHash string) error
}

type Otps interface {
	// CreateOtp stores a new challenge row.
	CreateOtp(ctx context.Context, o domain.OTP) error

	// GetActiveOtp returns the single active challenge for a principal.
	GetActiveOtp(ctx context.Context, principalID string) (domain.OTP, error)

	// DeactivateOtps deactivates every active challenge for a principal.
	DeactivateOtps(ctx context.Context, principalID string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token row by its fingerprint,
	// active or not.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// GetActiveRefreshToken returns the principal's current session token.
	GetActiveRefreshToken(ctx context.Context, principalID string) (domain.RefreshToken, error)

	// DeactivateRefreshTokens deactivates every active token for a principal.
	DeactivateRefreshTokens(ctx context.Context, principalID string) error
}

// PastDueFilter restricts report queries to the caller's visibility scope.
// Zero values mean "no restriction on that column".
type PastDueFilter struct {
	Region     string
	DivisionNo string
}

type PastDue interface {
	// InsertRecords bulk-inserts a batch of report rows.
	InsertRecords(ctx context.Context, records []domain.PastDueRecord) error

	// ListRecords returns rows matching the filter, insertion order.
	ListRecords(ctx context.Context, filter PastDueFilter) ([]domain.PastDueRecord, error)
}
