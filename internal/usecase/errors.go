package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// Draft preconditions. Expected and frequent, never treated as bugs.
	ErrNotStarted         = errors.New("draft not started")
	ErrAlreadyStarted     = errors.New("draft already started")
	ErrOutOfTurn          = errors.New("not your turn")
	ErrAlreadyTaken       = errors.New("player already taken")
	ErrRoundsComplete     = errors.New("all draft rounds complete")
	ErrDeadlineNotReached = errors.New("turn deadline not reached")

	// Market and trade preconditions.
	ErrMarketNotOpen = errors.New("market not open")
)
