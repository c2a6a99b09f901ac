package app

import "photo-quest-service/internal/domain"

// ResolveWinner picks the current winner of a participant set.
//
// Unscored participants are skipped. The highest score wins; equal scores go to
// the smaller time taken, with a missing time ranking behind any recorded one.
// When score and time are both equal the participant seen first in the slice
// keeps the lead, so callers must pass participants in a stable order.
// It returns false when nobody has a score yet.
func ResolveWinner(participants []domain.Participant) (string, bool) {
	var best *domain.Participant
	for i := range participants {
		p := &participants[i]
		if p.Score == nil {
			continue
		}
		if best == nil || beats(*p, *best) {
			best = p
		}
	}
	if best == nil {
		return "", false
	}
	return best.UserID, true
}

func beats(candidate, leader domain.Participant) bool {
	if *candidate.Score != *leader.Score {
		return *candidate.Score > *leader.Score
	}
	switch {
	case candidate.TimeTaken == nil:
		return false
	case leader.TimeTaken == nil:
		return true
	default:
		return *candidate.TimeTaken < *leader.TimeTaken
	}
}

// FullyResolved reports whether every participant has been scored.
// An empty set is never resolved.
func FullyResolved(participants []domain.Participant) bool {
	if len(participants) == 0 {
		return false
	}
	for _, p := range participants {
		if !p.Scored() {
			return false
		}
	}
	return true
}
