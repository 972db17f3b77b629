package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"unistay/internal/domain"
)

func (r *Repo) CreateUser(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, insertUserSQL,
		u.StudentNumber, u.FullName, u.Email, u.PasswordHash, u.IDNumber, u.PhoneNumber, u.Role)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.StudentNumber, &u.FullName, &u.Email,
		&u.PasswordHash, &u.IDNumber, &u.PhoneNumber, &u.Role, &u.CreatedAt)
	return u, err
}

func (r *Repo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}

func (r *Repo) FindUserConflict(ctx context.Context, email, studentNumber, idNumber string) error {
	var gotEmail, gotStudent string
	err := r.db.QueryRowContext(ctx,
		`SELECT email, student_number FROM users WHERE email = ? OR student_number = ? OR id_number = ? LIMIT 1`,
		email, studentNumber, idNumber).Scan(&gotEmail, &gotStudent)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	switch {
	case gotEmail == email:
		return domain.ErrEmailTaken
	case gotStudent == studentNumber:
		return domain.ErrStudentNumberTaken
	default:
		return domain.ErrIDNumberTaken
	}
}

func (r *Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateUserRole(ctx context.Context, id int64, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *Repo) DeleteUser(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM favorites WHERE user_id = ?`,
			`DELETE FROM reviews WHERE user_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}
