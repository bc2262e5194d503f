package bracket

import (
	"encoding/json"
	"fmt"
)

// SeedPayload - структурированные корреляционные данные, которые мы
// прикрепляем к участнику при посеве (поле "misc" у провайдера) и
// расшифровываем при синхронизации раунда. За пределы этого пакета
// payload не ходит в виде сырого текста.
type SeedPayload struct {
	TeamID       int `json:"team_id"`
	SubmissionID int `json:"submission_id"`
}

func encodeSeedPayload(p SeedPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode seed payload for team %d: %w", p.TeamID, err)
	}
	return string(raw), nil
}

func decodeSeedPayload(misc string) (SeedPayload, error) {
	var p SeedPayload
	if err := json.Unmarshal([]byte(misc), &p); err != nil {
		return SeedPayload{}, fmt.Errorf("failed to decode seed payload %q: %w", misc, err)
	}
	return p, nil
}
