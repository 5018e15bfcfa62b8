package auth

import (
	"context"
)

// Authenticator defines the interface for the single-user lock.
// This abstraction keeps the service layer independent of how the
// credential is stored or compared.
type Authenticator interface {
	// IsSet reports whether a credential has been configured.
	IsSet(ctx context.Context) (bool, error)

	// Set stores a new credential. When one is already set, current must match it.
	Set(ctx context.Context, current, credential string) error

	// Verify checks credential against the stored one.
	// Returns ErrInvalidCredentials on mismatch or when none is set.
	Verify(ctx context.Context, credential string) error

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
