package domain

import "errors"

var (
	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("Internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput       = errors.New("Given Param is not valid")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidChainId      = errors.New("invalid chain id")

	// minting
	ErrWrongPhase           = errors.New("minting is not enabled for the current phase")
	ErrSupplyExceeded       = errors.New("mint would exceed max supply")
	ErrMaxSupplyBelowSupply = errors.New("max supply cannot be lower than current supply")
	ErrExceedsUserLimit     = errors.New("mint would exceed per address limit")
	ErrExceedsBatchLimit    = errors.New("quantity exceeds per transaction limit")
	ErrInsufficientPayment  = errors.New("insufficient payment")
	ErrPaused               = errors.New("contract is paused")

	// whitelist
	ErrInvalidProof               = errors.New("invalid merkle proof")
	ErrExceedsWhitelistAllocation = errors.New("mint would exceed whitelist allocation")
	ErrWhitelistNotConfigured     = errors.New("whitelist root is not configured")

	// access rules
	ErrInsufficientFee     = errors.New("insufficient rule creation fee")
	ErrEmptyContentType    = errors.New("content type cannot be empty")
	ErrArrayLengthMismatch = errors.New("collections and minimums length mismatch")

	// authorization
	ErrUnauthorized  = errors.New("caller is not authorized")
	ErrNotTokenOwner = errors.New("caller is not the token owner")

	// request error
	ErrInvalidAddress   = errors.New("Invalid address")
	ErrInvalidSignature = errors.New("Invalid signature")
)
