package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/loancollect/ldts/internal/ldts/domain"
)

type principalsRepo struct {
	db dbtx
}

const principalColumns = `id, firstname, middlename, lastname, suffix, email, mobile,
	user_type, role, agent_code, department_id, region_id, division_id,
	password_hash, must_change_password, active, created_at, updated_at`

func (r *principalsRepo) GetPrincipalByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE id = ? AND active = 1`, id)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE email = ? AND active = 1`, email)
	return scanPrincipal(row)
}

func (r *principalsRepo) GetPrincipalByRefreshTokenHash(ctx context.Context, hash string) (domain.Principal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT p.id, p.firstname, p.middlename, p.lastname, p.suffix, p.email, p.mobile,
			p.user_type, p.role, p.agent_code, p.department_id, p.region_id, p.division_id,
			p.password_hash, p.must_change_password, p.active, p.created_at, p.updated_at
		FROM principals p
		JOIN refresh_tokens t ON t.principal_id = p.id
		WHERE t.token_hash = ? AND p.active = 1`, hash)
	return scanPrincipal(row)
}

func (r *principalsRepo) CreatePrincipal(ctx context.Context, p domain.Principal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (
			id, firstname, middlename, lastname, suffix, email, mobile,
			user_type, role, agent_code, department_id, region_id, division_id,
			password_hash, must_change_password, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Firstname, p.Middlename, p.Lastname, p.Suffix, p.Email, p.Mobile,
		p.UserType, p.Role, p.AgentCode,
		mapOptionalInt64(p.DepartmentID), mapOptionalInt64(p.RegionID), mapOptionalInt64(p.DivisionID),
		p.PasswordHash, p.MustChangePassword, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, principalID string, newHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET password_hash = ?, must_change_password = 0, updated_at = ?
		WHERE id = ?`, newHash, time.Now().UTC(), principalID)
	return err
}

func scanPrincipal(row *sql.Row) (domain.Principal, error) {
	var p domain.Principal
	var deptID, regionID, divisionID sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Firstname, &p.Middlename, &p.Lastname, &p.Suffix, &p.Email, &p.Mobile,
		&p.UserType, &p.Role, &p.AgentCode, &deptID, &regionID, &divisionID,
		&p.PasswordHash, &p.MustChangePassword, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Principal{}, mapNotFound(err)
	}
	p.DepartmentID = mapNullInt64Ptr(deptID)
	p.RegionID = mapNullInt64Ptr(regionID)
	p.DivisionID = mapNullInt64Ptr(divisionID)
	return p, nil
}
