package types

import (
	"time"

	"github.com/google/uuid"
)

// Counters holds the denormalized aggregate counters kept on a user record.
// They are eventually consistent with the source tables.
type Counters struct {
	ProjectCount     int64 `bun:",notnull,default:0" json:"projectCount"`
	FollowersCount   int64 `bun:",notnull,default:0" json:"followersCount"`
	LikesReceived    int64 `bun:",notnull,default:0" json:"likesReceived"`
	CommentsReceived int64 `bun:",notnull,default:0" json:"commentsReceived"`
}

// User is the reputation record kept for every OpenShelf account.
type User struct {
	ID          uuid.UUID `bun:",pk,type:uuid"       json:"id"`
	Username    string    `bun:",notnull,unique"     json:"username"`
	DisplayName string    `bun:",notnull"            json:"displayName"`
	AvatarURL   string    `bun:",notnull,default:''" json:"avatarUrl"`
	Reputation  int64     `bun:",notnull,default:0"  json:"reputation"`
	Counters
	IsTopRanked bool      `bun:",notnull,default:false" json:"isTopRanked"`
	CreatedAt   time.Time `bun:",notnull"               json:"createdAt"`
	UpdatedAt   time.Time `bun:",notnull"               json:"updatedAt"`
}

// IsRankable reports whether the user may appear on the leaderboard.
func (u *User) IsRankable() bool {
	return u.Reputation > 0
}
