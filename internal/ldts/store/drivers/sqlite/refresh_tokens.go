package sqlite

import (
	"context"

	"github.com/loancollect/ldts/internal/ldts/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, principal_id, token_hash, expires_at, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.PrincipalID, t.TokenHash, t.ExpiresAt, t.Active, t.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, token_hash, expires_at, active, created_at
		FROM refresh_tokens
		WHERE token_hash = ?`, hash)

	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.PrincipalID, &t.TokenHash, &t.ExpiresAt, &t.Active, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) GetActiveRefreshToken(ctx context.Context, principalID string) (domain.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, token_hash, expires_at, active, created_at
		FROM refresh_tokens
		WHERE principal_id = ? AND active = 1
		ORDER BY created_at DESC
		LIMIT 1`, principalID)

	var t domain.RefreshToken
	err := row.Scan(&t.ID, &t.PrincipalID, &t.TokenHash, &t.ExpiresAt, &t.Active, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return t, nil
}

func (r *refreshTokensRepo) DeactivateRefreshTokens(ctx context.Context, principalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE refresh_tokens SET active = 0
		WHERE principal_id = ? AND active = 1`, principalID)
	return err
}
