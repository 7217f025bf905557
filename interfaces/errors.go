package interfaces

import "errors"

// ErrorCode is the stable numeric code of a registry failure.
type ErrorCode int

const (
	CodeInvalidCaller ErrorCode = iota
	CodeInvalidArgs
	CodeExpectAssetAddress
	CodeNameHasBeenRegistered
	CodeNameHasExpired
	CodeContractNotExists
	CodePrimaryRecordNotExists
	CodeInvalidCredentialToken
)

// Error is a transaction-aborting registry failure. Every failure aborts the
// whole transaction; callers compare with errors.Is against the sentinels below.
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

var (
	// ErrInvalidCaller is returned for mutating calls from someone other than the owner/admin.
	ErrInvalidCaller = &Error{Code: CodeInvalidCaller, Msg: "invalid caller"}

	// ErrInvalidArgs is returned for durations below policy minimum or malformed arguments.
	ErrInvalidArgs = &Error{Code: CodeInvalidArgs, Msg: "invalid arguments"}

	// ErrExpectAssetAddress is returned when an address must be a spendable account.
	ErrExpectAssetAddress = &Error{Code: CodeExpectAssetAddress, Msg: "expect asset address"}

	// ErrNameHasBeenRegistered is returned when registering over a live name.
	ErrNameHasBeenRegistered = &Error{Code: CodeNameHasBeenRegistered, Msg: "name has been registered"}

	// ErrNameHasExpired is returned by renew/mint/burn on an expired name.
	ErrNameHasExpired = &Error{Code: CodeNameHasExpired, Msg: "name has expired"}

	// ErrContractNotExists is returned when a referenced record or sub-record is missing.
	ErrContractNotExists = &Error{Code: CodeContractNotExists, Msg: "contract does not exist"}

	// ErrPrimaryRecordNotExists is returned when a resolver entry is absent.
	ErrPrimaryRecordNotExists = &Error{Code: CodePrimaryRecordNotExists, Msg: "primary record does not exist"}

	// ErrInvalidCredentialToken is returned when a redeemed token does not match (node, ttl).
	ErrInvalidCredentialToken = &Error{Code: CodeInvalidCredentialToken, Msg: "invalid credential token"}
)

// Ledger level failures. These come from the execution substrate rather than
// from registry logic and carry no registry error code.
var (
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrNoTokenBalance       = errors.New("no token balance for the address")
	ErrContractExists       = errors.New("contract already exists")
	ErrContractTypeMismatch = errors.New("contract type mismatch")
	ErrNotSigner            = errors.New("assets can only be spent by the transaction signer")
	ErrUnknownPartition     = errors.New("unknown partition")
)

// CodeOf extracts the registry error code from err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Code, true
	}
	return 0, false
}
