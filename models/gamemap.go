package models

// GameMap - игровая карта эпизода. Имя уникально в пределах эпизода.
type GameMap struct {
	ID          int    `json:"id" db:"id"`
	EpisodeSlug string `json:"episode" db:"episode_slug"`
	Name        string `json:"name" db:"name"`
	IsPublic    bool   `json:"is_public" db:"is_public"`
}
