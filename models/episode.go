package models

import "time"

// Episode представляет сезон соревнования (например, один учебный год игры).
type Episode struct {
	Slug             string    `json:"slug" db:"slug"`
	NameLong         string    `json:"name_long" db:"name_long"`
	Blurb            *string   `json:"blurb,omitempty" db:"blurb"`
	Registration     time.Time `json:"registration" db:"registration"`
	GameRelease      time.Time `json:"game_release" db:"game_release"`
	GameArchive      time.Time `json:"game_archive" db:"game_archive"`
	SubmissionFrozen bool      `json:"submission_frozen" db:"submission_frozen"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
