package models

import "time"

// ReleaseStatus - степень видимости результатов раунда.
// Большее значение означает большую видимость; в нормальной работе
// статус только растёт.
type ReleaseStatus int

const (
	ReleaseHidden       ReleaseStatus = 0
	ReleaseParticipants ReleaseStatus = 1
	ReleaseResults      ReleaseStatus = 2
)

// Round представляет раунд турнира: параллельный набор матчей,
// например "Round 1" или полуфинал.
//
// BracketIndex назначается внешним bracket-сервисом и уникален только в
// пределах одного турнира, это не глобальный идентификатор.
type Round struct {
	ID             int           `json:"id" db:"id"`
	TournamentSlug string        `json:"tournament" db:"tournament_slug"`
	BracketIndex   *int          `json:"bracket_index,omitempty" db:"bracket_index"`
	Name           string        `json:"name" db:"name"`
	ReleaseStatus  ReleaseStatus `json:"release_status" db:"release_status"`
	InProgress     bool          `json:"in_progress" db:"in_progress"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`

	// Упорядоченный список карт раунда (не мапится напрямую).
	Maps []GameMap `json:"maps,omitempty" db:"-"`
}
