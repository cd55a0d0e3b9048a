package contract

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a transaction was rejected.
type ErrorKind string

const (
	KindContractStopped     ErrorKind = "CONTRACT_STOPPED"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindInvalidIdentity     ErrorKind = "INVALID_IDENTITY"
	KindNotMember           ErrorKind = "NOT_MEMBER"
	KindAlreadyMember       ErrorKind = "ALREADY_MEMBER"
	KindInvalidState        ErrorKind = "INVALID_STATE"
	KindInsufficientPayment ErrorKind = "INSUFFICIENT_PAYMENT"
	KindInsufficientFunds   ErrorKind = "INSUFFICIENT_FUNDS"
	KindDuplicateUPC        ErrorKind = "DUPLICATE_UPC"
	KindItemNotFound        ErrorKind = "ITEM_NOT_FOUND"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindAlreadyInitialized  ErrorKind = "ALREADY_INITIALIZED"
	KindInternal            ErrorKind = "INTERNAL"
)

// ContractError is a rejected transaction. Nothing the transaction would have
// written is committed.
type ContractError struct {
	Kind    ErrorKind
	Message string
	Err     error // Underlying ledger error, set for KindInternal
}

func (e *ContractError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches any ContractError of the same kind, so callers can test against
// the exported sentinels with errors.Is.
func (e *ContractError) Is(target error) bool {
	var t *ContractError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *ContractError) Unwrap() error { return e.Err }

// Sentinels for errors.Is.
var (
	ErrContractStopped     = &ContractError{Kind: KindContractStopped}
	ErrUnauthorized        = &ContractError{Kind: KindUnauthorized}
	ErrInvalidIdentity     = &ContractError{Kind: KindInvalidIdentity}
	ErrNotMember           = &ContractError{Kind: KindNotMember}
	ErrAlreadyMember       = &ContractError{Kind: KindAlreadyMember}
	ErrInvalidState        = &ContractError{Kind: KindInvalidState}
	ErrInsufficientPayment = &ContractError{Kind: KindInsufficientPayment}
	ErrInsufficientFunds   = &ContractError{Kind: KindInsufficientFunds}
	ErrDuplicateUPC        = &ContractError{Kind: KindDuplicateUPC}
	ErrItemNotFound        = &ContractError{Kind: KindItemNotFound}
	ErrInvalidInput        = &ContractError{Kind: KindInvalidInput}
	ErrAlreadyInitialized  = &ContractError{Kind: KindAlreadyInitialized}
	ErrInternal            = &ContractError{Kind: KindInternal}
)

func newError(kind ErrorKind, format string, args ...interface{}) *ContractError {
	return &ContractError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// internalError wraps a world-state or encoding failure.
func internalError(err error, format string, args ...interface{}) *ContractError {
	return &ContractError{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}
