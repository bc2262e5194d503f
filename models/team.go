package models

import "time"

type TeamStatus string

const (
	TeamStatusActive   TeamStatus = "active"
	TeamStatusInactive TeamStatus = "inactive"
	TeamStatusStaff    TeamStatus = "staff"
)

// Team - команда-участник. Рейтинг и активный сабмишен считаются внешней
// системой; здесь они только читаются при посеве турнира.
type Team struct {
	ID                 int        `json:"id" db:"id"`
	EpisodeSlug        string     `json:"episode" db:"episode_slug"`
	Name               string     `json:"name" db:"name"`
	Status             TeamStatus `json:"status" db:"status"`
	JoinKey            string     `json:"-" db:"join_key"`
	Rating             float64    `json:"rating" db:"rating"`
	ActiveSubmissionID *int       `json:"active_submission_id,omitempty" db:"active_submission_id"`
	HasResume          bool       `json:"has_resume" db:"has_resume"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}
