package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyExists     = errors.New("entity already exists")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrPlanNotFound      = errors.New("plan not found")
	ErrInsufficientBonus = errors.New("insufficient bonus balance")
	ErrNoOpenPayment     = errors.New("no open pending payment for user")
	ErrInvalidTransition = errors.New("payment status transition not allowed")
	ErrNotRegistered     = errors.New("user is not registered")
	ErrQuotaExhausted    = errors.New("question quota exhausted")
	ErrUserBusy          = errors.New("another financial operation is in progress for this user")
	ErrOperationFailed   = errors.New("storage operation failed")
)
