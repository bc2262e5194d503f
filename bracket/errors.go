package bracket

import "fmt"

// ProviderError возвращается на любой неуспешный ответ bracket-сервиса.
// Автоматических ретраев нет: политика повторов - ответственность вызывающего.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bracket provider: %s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("bracket provider: %s failed: %s", e.Op, e.Body)
}
