package models

import "time"

type MatchStatus string

const (
	MatchStatusQueued     MatchStatus = "queued"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusCanceled   MatchStatus = "canceled"
)

// Match - один матч турнирного раунда. Создаётся этим ядром, но
// исполняется внешним compute-бэкендом.
type Match struct {
	ID             int         `json:"id" db:"id"`
	EpisodeSlug    string      `json:"episode" db:"episode_slug"`
	RoundID        int         `json:"round_id" db:"round_id"`
	BracketID      string      `json:"-" db:"bracket_id"`
	AlternateOrder bool        `json:"alternate_order" db:"alternate_order"`
	IsRanked       bool        `json:"is_ranked" db:"is_ranked"`
	Status         MatchStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`

	Participants []MatchParticipant `json:"participants,omitempty" db:"-"`
	Maps         []GameMap          `json:"maps,omitempty" db:"-"`
}

// MatchParticipant - слот участника в матче. Ровно два на матч,
// PlayerIndex 0 или 1 (bracket-сервис нумерует слоты с единицы,
// локальная система - с нуля).
type MatchParticipant struct {
	ID           int    `json:"id" db:"id"`
	MatchID      int    `json:"match_id" db:"match_id"`
	TeamID       int    `json:"team_id" db:"team_id"`
	SubmissionID int    `json:"submission_id" db:"submission_id"`
	PlayerIndex  int    `json:"player_index" db:"player_index"`
	BracketID    string `json:"-" db:"bracket_id"`
	Score        int    `json:"score" db:"score"`
}
