package types

import (
	"time"

	"github.com/google/uuid"
)

// ProjectVisibility controls who can see a project.
type ProjectVisibility string

const (
	ProjectVisibilityPublic  ProjectVisibility = "public"
	ProjectVisibilityPrivate ProjectVisibility = "private"
)

// Project is a published developer project. Projects are written by the
// project service; this service only reads them.
type Project struct {
	ID         uuid.UUID         `bun:",pk,type:uuid"          json:"id"`
	OwnerID    uuid.UUID         `bun:",notnull,type:uuid"     json:"ownerId"`
	Title      string            `bun:",notnull"               json:"title"`
	Visibility ProjectVisibility `bun:",notnull"               json:"visibility"`
	IsDeleted  bool              `bun:",notnull,default:false" json:"isDeleted"`
	CreatedAt  time.Time         `bun:",notnull"               json:"createdAt"`
}

// ProjectLike records that a user liked a project.
type ProjectLike struct {
	ProjectID uuid.UUID `bun:",pk,type:uuid" json:"projectId"`
	UserID    uuid.UUID `bun:",pk,type:uuid" json:"userId"`
	CreatedAt time.Time `bun:",notnull"      json:"createdAt"`
}

// ProjectComment is a comment left on a project.
type ProjectComment struct {
	ID        uuid.UUID `bun:",pk,type:uuid"      json:"id"`
	ProjectID uuid.UUID `bun:",notnull,type:uuid" json:"projectId"`
	AuthorID  uuid.UUID `bun:",notnull,type:uuid" json:"authorId"`
	Body      string    `bun:",notnull"           json:"body"`
	CreatedAt time.Time `bun:",notnull"           json:"createdAt"`
}

// UserFollower records that FollowerID follows UserID.
type UserFollower struct {
	UserID     uuid.UUID `bun:",pk,type:uuid" json:"userId"`
	FollowerID uuid.UUID `bun:",pk,type:uuid" json:"followerId"`
	CreatedAt  time.Time `bun:",notnull"      json:"createdAt"`
}
