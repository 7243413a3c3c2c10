package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrDuplicateEmail   = errors.New("duplicate email")
	ErrDuplicateAddress = errors.New("duplicate address")
	ErrVersionConflict  = errors.New("version conflict")

	// Input validation.
	ErrInvalidInput = errors.New("invalid input")

	// Wallet lifecycle.
	ErrEmailTaken      = errors.New("email already registered")
	ErrWalletInactive  = errors.New("wallet inactive")
	ErrAddressMismatch = errors.New("session does not own address")

	// Authentication-shaped failures. Callers must not be able to tell these
	// apart, see PublicMessage.
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotFound         = errors.New("email not found")
	ErrInvalidSession        = errors.New("invalid session")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Cryptographic failures.
	ErrIntegrityFailure  = errors.New("integrity check failed")
	ErrDerivationFailure = errors.New("key derivation failed")

	// Transient failures.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrBusy             = errors.New("key derivation capacity exhausted")

	ErrorInternal = errors.New("internal error")
)

// publicMessages lists the only texts that ever leave the service boundary.
var publicMessages = []struct {
	err error
	msg string
}{
	{ErrInvalidCredentials, "invalid credentials"},
	{ErrEmailNotFound, "invalid credentials"},
	{ErrInvalidSession, "invalid credentials"},
	{ErrInvalidOrExpiredToken, "invalid credentials"},
	{ErrWalletInactive, "invalid credentials"},
	{ErrAddressMismatch, "invalid credentials"},
	{ErrInvalidInput, "invalid input"},
	{ErrEmailTaken, "email already registered"},
	{ErrDuplicateEmail, "email already registered"},
	{ErrDuplicateAddress, "address collision, retry"},
	{ErrIntegrityFailure, "stored key material could not be verified"},
	{ErrDerivationFailure, "key derivation failed"},
	{ErrStoreUnavailable, "service temporarily unavailable"},
	{ErrBusy, "service busy, retry later"},
	{ErrVersionConflict, "concurrent update, retry"},
	{ErrorNotFound, "not found"},
}

// PublicMessage returns the caller-facing text for err. Wrapped details never
// leak: unknown errors collapse to "internal error".
func PublicMessage(err error) string {
	for _, m := range publicMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return ErrorInternal.Error()
}

// IsTransient reports whether the caller may retry the operation.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrBusy) || errors.Is(err, ErrVersionConflict)
}

// IsAuthFailure reports whether err is one of the authentication-shaped kinds.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrEmailNotFound) ||
		errors.Is(err, ErrInvalidSession) ||
		errors.Is(err, ErrInvalidOrExpiredToken) ||
		errors.Is(err, ErrWalletInactive) ||
		errors.Is(err, ErrAddressMismatch)
}
