package enum

// EventType represents the kind of activity that earns a user reputation.
//
//go:generate go tool enumer -type=EventType -trimprefix=EventType -transform=snake -text -sql
type EventType int

const (
	EventTypeLikeReceived EventType = iota
	EventTypeCommentReceived
	EventTypeProjectPublished
	EventTypeFollowerGained
)
