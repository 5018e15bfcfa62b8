package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// credentialID is the fixed row holding the single user's password.
const credentialID = 1

// IsPasswordSet reports whether a password row exists.
func (s *SQLiteStore) IsPasswordSet(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE id = ?", credentialID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check password: %w", err)
	}
	return count > 0, nil
}

// SetPassword inserts or replaces the stored password value.
// The value is stored as given; hashing is the caller's concern.
func (s *SQLiteStore) SetPassword(ctx context.Context, value string) error {
	query := `
		INSERT INTO users (id, password)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET password = excluded.password
	`

	res, err := s.db.ExecContext(ctx, query, credentialID, value)
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("failed to set password: %w", ErrNoRowsAffected)
	}
	return nil
}

// StoredPassword returns the stored password value, or "" if none is set.
func (s *SQLiteStore) StoredPassword(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT password FROM users WHERE id = ?", credentialID,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil // Password not set
	}
	if err != nil {
		return "", fmt.Errorf("failed to get password: %w", err)
	}
	return value, nil
}
