package domain

import "errors"

var (
	ErrNoCandidateSlot          = errors.New("no candidate slot passed weather and availability checks")
	ErrDeadlinePassed           = errors.New("preference deadline has passed")
	ErrIncompleteRankings       = errors.New("both participants must have a preference row")
	ErrInstructorRankingMissing = errors.New("instructor preference row is missing")
	ErrAwaitingPreferences      = errors.New("still awaiting participant preferences")
	ErrNotParticipant           = errors.New("user is not a participant of the booking")
	ErrUnknownOption            = errors.New("option does not belong to the booking")
	ErrDuplicateOption          = errors.New("an option may be ranked only once")
	ErrTooManyOptions           = errors.New("at most three options may be ranked")
	ErrRankedUnavailable        = errors.New("an option cannot be both ranked and unavailable")
	ErrOptionNotValid           = errors.New("option must pass both weather and availability checks")
	ErrNotRescheduling          = errors.New("booking is not awaiting a reschedule")
	ErrOptionNotFound           = errors.New("reschedule option not found")
	ErrPreferenceNotFound       = errors.New("preference ranking not found")
)
