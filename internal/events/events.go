package events

import "time"

const (
	TypeGameRefreshed   = "game.refreshed"
	TypeGameInvalidated = "game.invalidated"
)

// GameEvent announces a cache lifecycle change for one slug.
type GameEvent struct {
	Type string    `json:"type"`
	Slug string    `json:"slug"`
	At   time.Time `json:"at"`
}

func Refreshed(slug string) GameEvent {
	return GameEvent{Type: TypeGameRefreshed, Slug: slug, At: time.Now().UTC()}
}

func Invalidated(slug string) GameEvent {
	return GameEvent{Type: TypeGameInvalidated, Slug: slug, At: time.Now().UTC()}
}
