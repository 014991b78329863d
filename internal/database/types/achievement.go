package types

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AchievementID identifies an entry of the achievement catalog.
type AchievementID string

const (
	AchievementFirstProject    AchievementID = "first_project"
	AchievementTenFollowers    AchievementID = "ten_followers"
	AchievementHundredLikes    AchievementID = "hundred_likes"
	AchievementFeaturedProject AchievementID = "featured_project"
	AchievementActiveCommenter AchievementID = "active_commenter"
)

// Achievement is a static catalog entry. A nil Condition marks an achievement
// that is granted elsewhere and never evaluated from counters.
type Achievement struct {
	ID          AchievementID         `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	Condition   func(c Counters) bool `json:"-"`
}

// UserAchievement records that a user unlocked an achievement.
type UserAchievement struct {
	UserID        uuid.UUID     `bun:",pk,type:uuid" json:"userId"`
	AchievementID AchievementID `bun:",pk"           json:"achievementId"`
	UnlockedAt    time.Time     `bun:",notnull"      json:"unlockedAt"`
}

var achievementCatalog = []Achievement{ //nolint:gochecknoglobals // static catalog
	{
		ID:          AchievementFirstProject,
		Name:        "First Project",
		Description: "Published your first project",
		Icon:        "rocket",
		Condition: func(c Counters) bool {
			return c.ProjectCount == 1
		},
	},
	{
		ID:          AchievementTenFollowers,
		Name:        "Rising Star",
		Description: "Gained 10 followers",
		Icon:        "star",
		Condition: func(c Counters) bool {
			return c.FollowersCount >= 10
		},
	},
	{
		ID:          AchievementHundredLikes,
		Name:        "Crowd Favorite",
		Description: "Received 100 likes across your projects",
		Icon:        "heart",
		Condition: func(c Counters) bool {
			return c.LikesReceived >= 100
		},
	},
	{
		ID:          AchievementFeaturedProject,
		Name:        "Featured",
		Description: "Had a project featured by the OpenShelf team",
		Icon:        "trophy",
	},
	{
		ID:          AchievementActiveCommenter,
		Name:        "Conversationalist",
		Description: "Actively commented on other developers' projects",
		Icon:        "chat",
	},
}

// AchievementCatalog returns a copy of the achievement catalog.
func AchievementCatalog() []Achievement {
	return slices.Clone(achievementCatalog)
}

// LookupAchievement finds a catalog entry by ID.
func LookupAchievement(id AchievementID) (Achievement, bool) {
	for _, achievement := range achievementCatalog {
		if achievement.ID == id {
			return achievement, true
		}
	}

	return Achievement{}, false
}

// NewlyUnlocked returns the achievements whose condition holds for the counters
// and which are not already in the unlocked set. Conditions are independent of
// each other, so several achievements may unlock at once.
func NewlyUnlocked(counters Counters, unlocked map[AchievementID]struct{}) []AchievementID {
	var result []AchievementID

	for _, achievement := range achievementCatalog {
		if achievement.Condition == nil {
			continue
		}

		if _, ok := unlocked[achievement.ID]; ok {
			continue
		}

		if achievement.Condition(counters) {
			result = append(result, achievement.ID)
		}
	}

	return result
}
