package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrWeakPassword       = errors.New("password must be at least 4 characters")
	ErrPasswordNotSet     = errors.New("no password set")
)

// minPasswordLength is short on purpose: this is a local app lock, not an account.
const minPasswordLength = 4

// CredentialStorage defines the persistence the authenticator needs.
// This allows the authenticator to be independent of the storage implementation.
type CredentialStorage interface {
	IsPasswordSet(ctx context.Context) (bool, error)
	SetPassword(ctx context.Context, value string) error
	StoredPassword(ctx context.Context) (string, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
// Values written by older versions in plain text are still accepted and are
// replaced by a hash on the first successful check.
type PasswordAuthenticator struct {
	storage CredentialStorage
	cost    int
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage CredentialStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// IsSet reports whether a password is stored.
func (a *PasswordAuthenticator) IsSet(ctx context.Context) (bool, error) {
	return a.storage.IsPasswordSet(ctx)
}

// Set hashes and stores a new password.
func (a *PasswordAuthenticator) Set(ctx context.Context, current, credential string) error {
	if err := a.ValidateCredential(credential); err != nil {
		return err
	}

	set, err := a.storage.IsPasswordSet(ctx)
	if err != nil {
		return fmt.Errorf("failed to check password: %w", err)
	}
	if set {
		if err := a.Verify(ctx, current); err != nil {
			return err
		}
	}

	return a.store(ctx, credential)
}

// Verify compares credential with the stored password.
func (a *PasswordAuthenticator) Verify(ctx context.Context, credential string) error {
	stored, err := a.storage.StoredPassword(ctx)
	if err != nil {
		return fmt.Errorf("failed to load password: %w", err)
	}
	if stored == "" {
		return ErrPasswordNotSet
	}

	if !isBcryptHash(stored) {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(credential)) != 1 {
			return ErrInvalidCredentials
		}
		if err := a.store(ctx, credential); err != nil {
			slog.Warn("Failed to upgrade plain text password", "error", err)
		} else {
			slog.Info("Upgraded plain text password to bcrypt")
		}
		return nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(credential)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (a *PasswordAuthenticator) store(ctx context.Context, credential string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.storage.SetPassword(ctx, string(hashed)); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
