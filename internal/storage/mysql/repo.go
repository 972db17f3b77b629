package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	n := ni.Int64
	return &n
}

// withTx runs fn in a transaction, rolling back on error.
func (r *Repo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// VerifySchema fails fast when migrations have not been applied or left
// the schema dirty. Schema evolution happens only in cmd/migrate.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	var version uint64
	var dirty bool
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return fmt.Errorf("schema_migrations missing; run cmd/migrate first: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema is dirty at version %d; repair with cmd/migrate", version)
	}
	return nil
}
