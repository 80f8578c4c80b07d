package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/veil-id/veil/internal/auth/domain"
)

type identitiesRepo struct {
	db *sql.DB
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, ident *domain.Identity) error {
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO identities (secured_hash, searchable_hash, role, created_at)
		VALUES (?, ?, ?, ?)`,
		ident.SecuredHash, ident.SearchableHash, string(ident.Role), now,
	)
	if err != nil {
		return mapConstraint(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	ident.ID = id
	ident.CreatedAt = now
	return nil
}

func (r *identitiesRepo) GetBySecuredHash(ctx context.Context, securedHash string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, secured_hash, searchable_hash, role, created_at
		FROM identities
		WHERE secured_hash = ?`,
		securedHash,
	)
	return scanIdentity(row)
}

func (r *identitiesRepo) GetBySearchableHash(ctx context.Context, searchableHash string) (domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, secured_hash, searchable_hash, role, created_at
		FROM identities
		WHERE searchable_hash = ?`,
		searchableHash,
	)
	return scanIdentity(row)
}

func scanIdentity(row *sql.Row) (domain.Identity, error) {
	var (
		ident domain.Identity
		role  string
	)
	if err := row.Scan(&ident.ID, &ident.SecuredHash, &ident.SearchableHash, &role, &ident.CreatedAt); err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	ident.Role = domain.Role(role)
	return ident, nil
}
