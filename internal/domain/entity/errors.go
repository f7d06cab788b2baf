package entity

import "errors"

// Standard domain errors
var (
	ErrJudgmentUnavailable = errors.New("vision judgment unavailable")
	ErrNoneAcceptable      = errors.New("no candidate passed acceptance")
	ErrValidationFailed    = errors.New("candidate url failed validation")
	ErrProcessingFailed    = errors.New("image processing failed")
	ErrBudgetExceeded      = errors.New("total request budget exceeded")
	ErrFallbackUnreachable = errors.New("default fallback image unreachable")
	ErrInvalidRequest      = errors.New("invalid request parameters")
)
