package domain

import "github.com/google/uuid"

// ResolveFinalSelection picks the instructor's highest-ranked option. It
// needs both participant rows. A nil result means the instructor ranked
// nothing.
func ResolveFinalSelection(rankings []*PreferenceRanking, instructorID uuid.UUID) (*uuid.UUID, error) {
	if len(rankings) != 2 {
		return nil, ErrIncompleteRankings
	}

	var instructor *PreferenceRanking
	for _, r := range rankings {
		if r.UserID == instructorID {
			instructor = r
			break
		}
	}
	if instructor == nil {
		return nil, ErrInstructorRankingMissing
	}

	for _, id := range []*uuid.UUID{instructor.Option1, instructor.Option2, instructor.Option3} {
		if id != nil {
			selected := *id
			return &selected, nil
		}
	}
	return nil, nil
}

// AllSubmitted reports whether both participants have answered.
func AllSubmitted(rankings []*PreferenceRanking) bool {
	if len(rankings) != 2 {
		return false
	}
	for _, r := range rankings {
		if !r.IsSubmitted() {
			return false
		}
	}
	return true
}
