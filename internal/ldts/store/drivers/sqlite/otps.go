package sqlite

import (
	"context"

	"github.com/loancollect/ldts/internal/ldts/domain"
)

type otpsRepo struct {
	db dbtx
}

func (r *otpsRepo) CreateOtp(ctx context.Context, o domain.OTP) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO otps (id, principal_id, code, expires_at, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.PrincipalID, o.Code, o.ExpiresAt, o.Active, o.CreatedAt,
	)
	return err
}

func (r *otpsRepo) GetActiveOtp(ctx context.Context, principalID string) (domain.OTP, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, principal_id, code, expires_at, active, created_at
		FROM otps
		WHERE principal_id = ? AND active = 1
		ORDER BY created_at DESC
		LIMIT 1`, principalID)

	var o domain.OTP
	err := row.Scan(&o.ID, &o.PrincipalID, &o.Code, &o.ExpiresAt, &o.Active, &o.CreatedAt)
	if err != nil {
		return domain.OTP{}, mapNotFound(err)
	}
	return o, nil
}

func (r *otpsRepo) DeactivateOtps(ctx context.Context, principalID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE otps SET active = 0
		WHERE principal_id = ? AND active = 1`, principalID)
	return err
}
