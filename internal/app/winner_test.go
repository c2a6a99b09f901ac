package app

import (
	"testing"

	"photo-quest-service/internal/domain"
)

func scored(userID string, score int, taken float64) domain.Participant {
	return domain.Participant{UserID: userID, Score: &score, TimeTaken: &taken}
}

func unscored(userID string) domain.Participant {
	return domain.Participant{UserID: userID}
}

func TestResolveWinner(t *testing.T) {
	noTime := func(userID string, score int) domain.Participant {
		return domain.Participant{UserID: userID, Score: &score}
	}

	cases := []struct {
		name         string
		participants []domain.Participant
		want         string
		wantOK       bool
	}{
		{"empty", nil, "", false},
		{"nobody scored", []domain.Participant{unscored("a"), unscored("b")}, "", false},
		{"highest score", []domain.Participant{scored("a", 80, 10), scored("b", 90, 5)}, "b", true},
		{"score beats time", []domain.Participant{scored("a", 90, 20), scored("b", 85, 5)}, "a", true},
		{"tie goes to faster", []domain.Participant{scored("a", 90, 8), scored("b", 90, 5)}, "b", true},
		{"full tie keeps first", []domain.Participant{scored("a", 80, 10), scored("b", 90, 5), scored("c", 90, 5)}, "b", true},
		{"full tie keeps first reordered", []domain.Participant{scored("c", 90, 5), scored("a", 80, 10), scored("b", 90, 5)}, "c", true},
		{"missing time ranks last", []domain.Participant{noTime("a", 70), scored("b", 70, 99)}, "b", true},
		{"unscored skipped", []domain.Participant{unscored("a"), scored("b", 10, 1)}, "b", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveWinner(tc.participants)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("ResolveWinner = (%q, %v), want (%q, %v)", got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestFullyResolved(t *testing.T) {
	if FullyResolved(nil) {
		t.Fatalf("empty set must not be resolved")
	}
	if FullyResolved([]domain.Participant{scored("a", 1, 1), unscored("b")}) {
		t.Fatalf("set with an unscored participant must not be resolved")
	}
	if !FullyResolved([]domain.Participant{scored("a", 1, 1), scored("b", 0, 3)}) {
		t.Fatalf("fully scored set should be resolved")
	}
}
