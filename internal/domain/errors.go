package domain

import "errors"

var (
	// ErrQuestNotFound is returned when a quest id does not resolve to a stored quest.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrParticipantNotFound is returned when a user was not invited to the quest.
	ErrParticipantNotFound = errors.New("participant not found in quest")
	// ErrAlreadySubmitted is returned when a participant already has a recorded score.
	ErrAlreadySubmitted = errors.New("participant already submitted")
	// ErrInvalidImage indicates the submitted bytes do not decode to a raster image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrScoringUnavailable indicates the scorer failed or timed out; safe to retry.
	ErrScoringUnavailable = errors.New("scoring unavailable")
	// ErrRewardAlreadyGranted signals that another resolver already rewarded the quest.
	// Callers treat it as a no-op.
	ErrRewardAlreadyGranted = errors.New("reward already granted")
	// ErrResolutionFailed indicates a score was stored but the quest could not be
	// evaluated or its reward marker written. Resolution can be re-run.
	ErrResolutionFailed = errors.New("quest resolution failed")
	// ErrRewardGrantFailed indicates the winner's points could not be incremented.
	ErrRewardGrantFailed = errors.New("reward grant failed")
	// ErrUserNotFound is returned when a user id is unknown.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an id that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid user id or password")
	// ErrMissingField indicates a required request field was empty.
	ErrMissingField = errors.New("missing required field")
)
