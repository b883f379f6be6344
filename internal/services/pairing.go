package services

import (
	"math/rand/v2"
	"slices"

	"secretsanta/internal/models"
)

// maxShuffleAttempts bounds the rejection sampling before the rotation fallback.
const maxShuffleAttempts = 100

// shuffleFunc permutes n elements through swap, with the rand.Shuffle signature.
type shuffleFunc func(n int, swap func(i, j int))

// ComputeDerangement assigns every participant a receiver other than themselves.
//
// Receivers are drawn by shuffling the participant list and zipping it against the
// original order; an attempt is kept only if no position maps to itself. After
// maxShuffleAttempts misses the list is rotated by one, which is a derangement for
// any n >= 2. The function has no side effects.
func ComputeDerangement(participants []models.UserID) ([]models.Pair, error) {
	return derange(participants, maxShuffleAttempts, rand.Shuffle)
}

func derange(participants []models.UserID, attempts int, shuffle shuffleFunc) ([]models.Pair, error) {
	n := len(participants)
	if n < 2 {
		return nil, ErrNotEnoughParticipants
	}
	seen := make(map[models.UserID]struct{}, n)
	for _, id := range participants {
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateParticipant
		}
		seen[id] = struct{}{}
	}

	receivers := make([]models.UserID, n)
	for range attempts {
		copy(receivers, participants)
		shuffle(n, func(i, j int) { receivers[i], receivers[j] = receivers[j], receivers[i] })
		if hasNoFixedPoint(participants, receivers) {
			return zipPairs(participants, receivers), nil
		}
	}

	for i := range participants {
		receivers[i] = participants[(i+1)%n]
	}
	return zipPairs(participants, receivers), nil
}

func hasNoFixedPoint(givers, receivers []models.UserID) bool {
	for i := range givers {
		if givers[i] == receivers[i] {
			return false
		}
	}
	return true
}

func zipPairs(givers, receivers []models.UserID) []models.Pair {
	pairs := make([]models.Pair, len(givers))
	for i := range givers {
		pairs[i] = models.Pair{Giver: givers[i], Receiver: receivers[i]}
	}
	return pairs
}

// pairingMap converts pairs into the giver -> receiver table stored on a room.
func pairingMap(pairs []models.Pair) map[models.UserID]models.UserID {
	m := make(map[models.UserID]models.UserID, len(pairs))
	for _, p := range pairs {
		m[p.Giver] = p.Receiver
	}
	return m
}

// isDerangementOf reports whether pairing is a fixed-point-free bijection over participants.
func isDerangementOf(pairing map[models.UserID]models.UserID, participants []models.UserID) bool {
	if len(pairing) != len(participants) {
		return false
	}
	receivers := make([]models.UserID, 0, len(pairing))
	for _, giver := range participants {
		receiver, ok := pairing[giver]
		if !ok || receiver == giver {
			return false
		}
		receivers = append(receivers, receiver)
	}
	slices.Sort(receivers)
	sorted := slices.Clone(participants)
	slices.Sort(sorted)
	return slices.Equal(receivers, sorted)
}
