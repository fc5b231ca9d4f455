package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// MemberRepo manages persistence for members.
type MemberRepo struct{ db *sql.DB }

// NewMemberRepo returns a new MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

// isDuplicateKey reports whether err is a MySQL duplicate-key failure
// (error 1062). Shared by every repository in this package.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// Create inserts a member and populates its generated ID. The email is
// normalized to lower case; a duplicate email yields ErrEmailExists.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO members (name, email, password_hash, role) VALUES (?,?,?,?)",
		m.Name, m.Email, m.PasswordHash, m.Role)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByID fetches a member by id, returning ErrMemberNotFound when no
// row exists.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	var m model.Member
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role, created_at FROM members WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (*model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m model.Member
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, role, created_at FROM members WHERE email=? LIMIT 1",
		email).Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListAll returns every member ordered by id. Used by the admin
// reservation form to pick a member.
func (r *MemberRepo) ListAll(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, email, password_hash, role, created_at FROM members ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	members := make([]model.Member, 0)
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
