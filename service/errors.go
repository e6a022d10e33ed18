package service

import "errors"

// Domain errors returned by services. Handlers match on these to decide
// which user-facing message to show.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrAccountExists       = errors.New("account already exists")
	ErrNoAccount           = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrLoansDisabled  = errors.New("loans are disabled in this guild")
	ErrLoanTooLarge   = errors.New("loan amount exceeds the guild limit")
	ErrActiveLoan     = errors.New("an active loan already exists")
	ErrNoActiveLoan   = errors.New("no active loan")
	ErrOverpayment    = errors.New("payment exceeds remaining debt")

	ErrForbiddenVehicle    = errors.New("vehicle type is forbidden")
	ErrWorkflowUnconfigured = errors.New("vehicle workflow is not configured")
	ErrNotPending          = errors.New("registration is no longer pending")

	ErrWarningNotFound = errors.New("warning not found")

	ErrTicketAlreadyOpen = errors.New("an open ticket already exists")
	ErrNotTicketChannel  = errors.New("channel is not an open ticket")
	ErrNotAuthorized     = errors.New("not authorized")

	ErrInvalidDiceSides = errors.New("dice must have at least 2 sides")
	ErrInvalidRPSChoice = errors.New("invalid rock-paper-scissors choice")
)
