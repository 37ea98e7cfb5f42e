// Package errors provides structured error handling for TonPocket.
// It defines sentinel errors and helpers for adding context, details,
// and suggestions to errors, plus the transient-vs-fatal classification
// consumed by retry loops.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"sort"
)

// PocketError is the structured error type for TonPocket.
type PocketError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	Transient  bool              // Whether retrying the operation may succeed
}

func (e *PocketError) Error() string {
	msg := e.Message

	// Include details in error message (sorted for deterministic output)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *PocketError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for PocketError.
func (e *PocketError) Is(target error) bool {
	var t *PocketError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors.
var (
	ErrGeneral = &PocketError{
		Code:    "GENERAL_ERROR",
		Message: "an error occurred",
	}

	ErrInvalidInput = &PocketError{
		Code:    "INVALID_INPUT",
		Message: "invalid input",
	}

	// Identity and derivation errors.
	ErrInvalidKeyLength = &PocketError{
		Code:    "INVALID_KEY_LENGTH",
		Message: "public key must be 32 bytes after prefix stripping",
	}

	ErrAddressMismatch = &PocketError{
		Code:    "ADDRESS_MISMATCH",
		Message: "derived address does not match provider-reported address",
	}

	ErrUnsupportedAccountKind = &PocketError{
		Code:    "UNSUPPORTED_ACCOUNT_KIND",
		Message: "only embedded custody wallets are supported",
	}

	// Signer errors.
	ErrSignerUnavailable = &PocketError{
		Code:      "SIGNER_UNAVAILABLE",
		Message:   "remote signer is not ready",
		Transient: true,
	}

	ErrAuthenticationExpired = &PocketError{
		Code:       "AUTHENTICATION_EXPIRED",
		Message:    "custody provider authentication expired",
		Suggestion: "re-authenticate with the custody provider and retry",
	}

	ErrInvalidSignature = &PocketError{
		Code:    "INVALID_SIGNATURE",
		Message: "signer returned a malformed signature",
	}

	// Wallet lifecycle errors.
	ErrWalletNotDeployed = &PocketError{
		Code:       "WALLET_NOT_DEPLOYED",
		Message:    "wallet contract is not deployed",
		Suggestion: "deploy the wallet before attempting a swap",
	}

	ErrInsufficientBalance = &PocketError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "wallet balance is below the required amount",
	}

	ErrDeploymentTimeout = &PocketError{
		Code:      "DEPLOYMENT_TIMEOUT",
		Message:   "wallet deployment was not confirmed in time",
		Transient: true,
	}

	// Transaction errors.
	ErrEmptyTransactionPlan = &PocketError{
		Code:    "EMPTY_TRANSACTION_PLAN",
		Message: "transfer builder produced no messages",
	}

	ErrCorrelationTimeout = &PocketError{
		Code:      "CORRELATION_TIMEOUT",
		Message:   "submitted transaction was not found in account history",
		Transient: true,
	}

	// Swap errors.
	ErrSwapInFlight = &PocketError{
		Code:    "SWAP_IN_FLIGHT",
		Message: "another swap is already in flight for this wallet",
	}

	ErrQuoteUnavailable = &PocketError{
		Code:    "QUOTE_UNAVAILABLE",
		Message: "matching engine returned no quote",
	}

	// Network errors.
	ErrNetworkError = &PocketError{
		Code:      "NETWORK_ERROR",
		Message:   "network communication failed",
		Transient: true,
	}

	ErrRateLimited = &PocketError{
		Code:      "RATE_LIMITED",
		Message:   "rate limited",
		Transient: true,
	}
)

// New creates a new PocketError with the given code and message.
func New(code, message string) *PocketError {
	return &PocketError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    fmt.Sprintf("%s: %s", msg, pe.Message),
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      err,
			Transient:  pe.Transient,
		}
	}

	return &PocketError{
		Code:    "GENERAL_ERROR",
		Message: msg,
		Cause:   err,
	}
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			Transient:  pe.Transient,
		}
	}

	return &PocketError{
		Code:    "GENERAL_ERROR",
		Message: err.Error(),
		Details: details,
		Cause:   err,
	}
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: suggestion,
			Cause:      pe.Cause,
			Transient:  pe.Transient,
		}
	}

	return &PocketError{
		Code:       "GENERAL_ERROR",
		Message:    err.Error(),
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Transient wraps an error to mark it as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	var pe *PocketError
	if errors.As(err, &pe) {
		return &PocketError{
			Code:       pe.Code,
			Message:    pe.Message,
			Details:    pe.Details,
			Suggestion: pe.Suggestion,
			Cause:      pe.Cause,
			Transient:  true,
		}
	}

	return &PocketError{
		Code:      "GENERAL_ERROR",
		Message:   err.Error(),
		Cause:     err,
		Transient: true,
	}
}

// IsTransient reports whether retrying the operation that produced err
// may succeed. Non-PocketError values are treated as fatal.
func IsTransient(err error) bool {
	var pe *PocketError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}

// Code returns the error code for an error.
func Code(err error) string {
	var pe *PocketError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return "GENERAL_ERROR"
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
