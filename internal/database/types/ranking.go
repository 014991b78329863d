package types

import (
	"bytes"
	"cmp"
	"slices"
)

// LeaderboardEntry is one row of a computed leaderboard.
type LeaderboardEntry struct {
	Rank int   `json:"rank"`
	User *User `json:"user"`
}

// CompareRanking orders users by reputation descending, then by the earliest
// update, then by ID so that equal users always come out in the same order.
func CompareRanking(a, b *User) int {
	if c := cmp.Compare(b.Reputation, a.Reputation); c != 0 {
		return c
	}

	if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
		return c
	}

	return bytes.Compare(a.ID[:], b.ID[:])
}

// BuildLeaderboard drops users that are not rankable, sorts the rest and
// assigns strictly sequential 1-based ranks, keeping at most limit entries.
// Users sharing a reputation still receive distinct ranks.
func BuildLeaderboard(users []*User, limit int) []*LeaderboardEntry {
	eligible := make([]*User, 0, len(users))
	for _, user := range users {
		if user.IsRankable() {
			eligible = append(eligible, user)
		}
	}

	slices.SortStableFunc(eligible, CompareRanking)

	if limit > 0 && len(eligible) > limit {
		eligible = eligible[:limit]
	}

	entries := make([]*LeaderboardEntry, len(eligible))
	for i, user := range eligible {
		entries[i] = &LeaderboardEntry{
			Rank: i + 1,
			User: user,
		}
	}

	return entries
}
