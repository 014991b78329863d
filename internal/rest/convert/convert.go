package convert

import (
	"github.com/openshelf/reputation/internal/database/types"
	restTypes "github.com/openshelf/reputation/internal/rest/types"
)

// LeaderboardEntries converts computed leaderboard entries to REST entries.
func LeaderboardEntries(entries []*types.LeaderboardEntry) []*restTypes.LeaderboardEntry {
	result := make([]*restTypes.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, &restTypes.LeaderboardEntry{
			Rank:         entry.Rank,
			UserID:       entry.User.ID,
			Username:     entry.User.Username,
			DisplayName:  entry.User.DisplayName,
			AvatarURL:    entry.User.AvatarURL,
			Reputation:   entry.User.Reputation,
			ProjectCount: entry.User.ProjectCount,
			IsTopRanked:  entry.User.IsTopRanked,
		})
	}

	return result
}

// User converts a reputation record to the REST user.
func User(user *types.User) *restTypes.User {
	if user == nil {
		return nil
	}

	return &restTypes.User{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Reputation:  user.Reputation,
		Counters: restTypes.Counters{
			ProjectCount:     user.ProjectCount,
			FollowersCount:   user.FollowersCount,
			LikesReceived:    user.LikesReceived,
			CommentsReceived: user.CommentsReceived,
		},
		IsTopRanked: user.IsTopRanked,
	}
}

// Achievement converts a catalog entry.
func Achievement(achievement types.Achievement) *restTypes.Achievement {
	return &restTypes.Achievement{
		ID:          string(achievement.ID),
		Name:        achievement.Name,
		Description: achievement.Description,
		Icon:        achievement.Icon,
	}
}

// Catalog converts the achievement catalog.
func Catalog(catalog []types.Achievement) []*restTypes.Achievement {
	result := make([]*restTypes.Achievement, 0, len(catalog))
	for _, achievement := range catalog {
		result = append(result, Achievement(achievement))
	}

	return result
}

// UnlockedAchievements joins unlocked achievements with their catalog entries.
// Unlocks missing from the catalog keep only their ID.
func UnlockedAchievements(unlocked []*types.UserAchievement) []*restTypes.UnlockedAchievement {
	result := make([]*restTypes.UnlockedAchievement, 0, len(unlocked))
	for _, entry := range unlocked {
		achievement, ok := types.LookupAchievement(entry.AchievementID)
		if !ok {
			achievement = types.Achievement{ID: entry.AchievementID}
		}

		result = append(result, &restTypes.UnlockedAchievement{
			Achievement: *Achievement(achievement),
			UnlockedAt:  entry.UnlockedAt,
		})
	}

	return result
}

// History converts reputation history entries.
func History(events []*types.ReputationEvent) []*restTypes.HistoryEntry {
	result := make([]*restTypes.HistoryEntry, 0, len(events))
	for _, event := range events {
		result = append(result, &restTypes.HistoryEntry{
			Type:      event.Type.String(),
			Points:    event.Points,
			SourceID:  event.SourceID,
			Timestamp: event.OccurredAt,
		})
	}

	return result
}

// Reputation converts a reputation profile.
func Reputation(profile *types.UserReputation) *restTypes.ReputationResponse {
	return &restTypes.ReputationResponse{
		User:         User(profile.User),
		Achievements: UnlockedAchievements(profile.Achievements),
		History:      History(profile.History),
	}
}
