package errors

import (
	"fmt"
)

// ErrorCode represents different categories of errors
type ErrorCode string

const (
	// ErrCodeTruncatedInput indicates a span shorter than a structure's minimum size
	ErrCodeTruncatedInput ErrorCode = "TRUNCATED_INPUT"

	// ErrCodeUnknownMessageType indicates an undefined payload discriminant byte
	ErrCodeUnknownMessageType ErrorCode = "UNKNOWN_MESSAGE_TYPE"

	// ErrCodeMalformedMessage indicates a well-formed envelope carrying the wrong payload
	ErrCodeMalformedMessage ErrorCode = "MALFORMED_MESSAGE"

	// ErrCodeInvalidRecipient indicates a bad foreign recipient or a recipient mismatch
	ErrCodeInvalidRecipient ErrorCode = "INVALID_RECIPIENT"

	// ErrCodeZeroBridgeAmount indicates an amount that truncates to zero
	ErrCodeZeroBridgeAmount ErrorCode = "ZERO_BRIDGE_AMOUNT"

	// ErrCodeAlreadyRedeemed indicates the claim marker is already set
	ErrCodeAlreadyRedeemed ErrorCode = "ALREADY_REDEEMED"

	// ErrCodeInvalidTransferToAddress indicates a transfer addressed to another program
	ErrCodeInvalidTransferToAddress ErrorCode = "INVALID_TRANSFER_TO_ADDRESS"

	// ErrCodeInvalidTransferToChain indicates a transfer addressed to another chain
	ErrCodeInvalidTransferToChain ErrorCode = "INVALID_TRANSFER_TO_CHAIN"

	// ErrCodeInvalidTransferTokenChain indicates the wrong completion kind for the token
	ErrCodeInvalidTransferTokenChain ErrorCode = "INVALID_TRANSFER_TOKEN_CHAIN"

	// ErrCodeNativeMintRequired indicates wrap-native against a non-native mint
	ErrCodeNativeMintRequired ErrorCode = "NATIVE_MINT_REQUIRED"

	// ErrCodeMissingAccount indicates the resolver needs more accounts
	ErrCodeMissingAccount ErrorCode = "MISSING_ACCOUNT"

	// ErrCodeAccountNotFound indicates a ledger account that must exist is absent
	ErrCodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"

	// ErrCodeValidation indicates input validation errors
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeNetwork indicates network-related errors
	ErrCodeNetwork ErrorCode = "NETWORK"

	// ErrCodeDatabase indicates database operation errors
	ErrCodeDatabase ErrorCode = "DATABASE"

	// ErrCodeConfig indicates configuration errors
	ErrCodeConfig ErrorCode = "CONFIG"

	// ErrCodeRPC indicates RPC-related errors
	ErrCodeRPC ErrorCode = "RPC"

	// ErrCodeTimeout indicates timeout errors
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeInternal indicates internal system errors
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ChainError is the error type returned by every relayer package.
// Chain names the chain the error concerns (a wormhole chain id or name), if any.
type ChainError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Chain    string                 `json:"chain,omitempty"`
	Severity Severity               `json:"severity"`
	Cause    error                  `json:"-"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

// NewChainError creates a new ChainError
func NewChainError(code ErrorCode, chain, message string, cause error) *ChainError {
	return &ChainError{
		Code:     code,
		Message:  message,
		Chain:    chain,
		Severity: determineSeverity(code),
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// Error implements the error interface
func (e *ChainError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Chain != "" {
		return fmt.Sprintf("[%s:%s] %s", e.Chain, e.Code, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause
func (e *ChainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ChainError with the same code.
func (e *ChainError) Is(target error) bool {
	t, ok := target.(*ChainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext adds context to the error
func (e *ChainError) WithContext(key string, value interface{}) *ChainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the default severity
func (e *ChainError) WithSeverity(severity Severity) *ChainError {
	e.Severity = severity
	return e
}

// IsRetryable returns true if the error is retryable.
// MissingAccount is the only protocol error a caller is expected to retry.
func (e *ChainError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeNetwork, ErrCodeRPC, ErrCodeTimeout, ErrCodeMissingAccount:
		return true
	case ErrCodeDatabase:
		return e.Severity != SeverityCritical
	default:
		return false
	}
}

func determineSeverity(code ErrorCode) Severity {
	switch code {
	case ErrCodeInternal:
		return SeverityCritical
	case ErrCodeDatabase, ErrCodeAlreadyRedeemed:
		return SeverityHigh
	case ErrCodeNetwork, ErrCodeRPC, ErrCodeTimeout:
		return SeverityMedium
	case ErrCodeMissingAccount:
		return SeverityInfo
	default:
		return SeverityLow
	}
}

// Protocol error constructors

// NewTruncatedInputError reports a span of got bytes where at least want were required.
func NewTruncatedInputError(what string, want, got int) *ChainError {
	return NewChainError(ErrCodeTruncatedInput, "", fmt.Sprintf("%s: need %d bytes, have %d", what, want, got), nil).
		WithContext("want", want).
		WithContext("got", got)
}

// NewUnknownMessageTypeError reports an undefined payload discriminant.
func NewUnknownMessageTypeError(discriminant uint8) *ChainError {
	return NewChainError(ErrCodeUnknownMessageType, "", fmt.Sprintf("unknown message type %d", discriminant), nil).
		WithContext("discriminant", discriminant)
}

// NewMalformedMessageError creates a malformed message error
func NewMalformedMessageError(message string, cause error) *ChainError {
	return NewChainError(ErrCodeMalformedMessage, "", message, cause)
}

// NewInvalidRecipientError creates an invalid recipient error
func NewInvalidRecipientError(message string) *ChainError {
	return NewChainError(ErrCodeInvalidRecipient, "", message, nil)
}

// NewZeroBridgeAmountError creates a zero bridge amount error
func NewZeroBridgeAmountError(amount uint64, decimals uint8) *ChainError {
	return NewChainError(ErrCodeZeroBridgeAmount, "", "amount truncates to zero", nil).
		WithContext("amount", amount).
		WithContext("decimals", decimals)
}

// NewAlreadyRedeemedError creates an already redeemed error
func NewAlreadyRedeemedError(claim string) *ChainError {
	return NewChainError(ErrCodeAlreadyRedeemed, "", "transfer already redeemed", nil).
		WithContext("claim", claim)
}

// NewInvalidTransferToAddressError creates an invalid transfer-to-address error
func NewInvalidTransferToAddressError(message string) *ChainError {
	return NewChainError(ErrCodeInvalidTransferToAddress, "", message, nil)
}

// NewInvalidTransferToChainError creates an invalid transfer-to-chain error
func NewInvalidTransferToChainError(chain uint16) *ChainError {
	return NewChainError(ErrCodeInvalidTransferToChain, fmt.Sprint(chain), "transfer is not for this chain", nil)
}

// NewInvalidTransferTokenChainError creates an invalid token chain error
func NewInvalidTransferTokenChainError(chain uint16, message string) *ChainError {
	return NewChainError(ErrCodeInvalidTransferTokenChain, fmt.Sprint(chain), message, nil)
}

// NewNativeMintRequiredError creates a native mint required error
func NewNativeMintRequiredError(mint string) *ChainError {
	return NewChainError(ErrCodeNativeMintRequired, "", "wrapping native currency requires the native mint", nil).
		WithContext("mint", mint)
}

// NewMissingAccountError creates a missing account error
func NewMissingAccountError(account string) *ChainError {
	return NewChainError(ErrCodeMissingAccount, "", "account not supplied", nil).
		WithContext("account", account)
}

// NewAccountNotFoundError creates an account not found error
func NewAccountNotFoundError(account string) *ChainError {
	return NewChainError(ErrCodeAccountNotFound, "", "account does not exist", nil).
		WithContext("account", account)
}

// Ambient error constructors

// NewValidationError creates a validation error
func NewValidationError(chain, message string) *ChainError {
	return NewChainError(ErrCodeValidation, chain, message, nil)
}

// NewNetworkError creates a network error
func NewNetworkError(chain, message string, cause error) *ChainError {
	return NewChainError(ErrCodeNetwork, chain, message, cause)
}

// NewDatabaseError creates a database error
func NewDatabaseError(chain, message string, cause error) *ChainError {
	return NewChainError(ErrCodeDatabase, chain, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(chain, message string) *ChainError {
	return NewChainError(ErrCodeConfig, chain, message, nil)
}

// NewRPCError creates an RPC error
func NewRPCError(chain, message string, cause error) *ChainError {
	return NewChainError(ErrCodeRPC, chain, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(chain, message string) *ChainError {
	return NewChainError(ErrCodeTimeout, chain, message, nil)
}

// NewInternalError creates an internal error
func NewInternalError(chain, message string, cause error) *ChainError {
	return NewChainError(ErrCodeInternal, chain, message, cause)
}
