package taskqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/codequest-hq/tournament-engine/services"
	"google.golang.org/api/cloudtasks/v2"
)

// CloudTasksConfig - очередь, в которую уходят публикационные задачи.
// Задачи аутентифицируются OIDC-токеном сервисного аккаунта, чтобы
// колбэк-эндпоинт мог проверить, что его дёргает именно очередь.
type CloudTasksConfig struct {
	Project             string
	Location            string
	Queue               string
	ServiceAccountEmail string
}

type cloudTasksScheduler struct {
	svc       *cloudtasks.Service
	queuePath string
	oidcEmail string
}

// NewCloudTasksScheduler создаёт планировщик поверх Google Cloud Tasks.
// Очередь гарантирует at-least-once доставку без порядка.
func NewCloudTasksScheduler(ctx context.Context, cfg CloudTasksConfig) (services.TaskScheduler, error) {
	if cfg.Project == "" || cfg.Location == "" || cfg.Queue == "" {
		return nil, errors.New("invalid cloud tasks configuration: project, location and queue are required")
	}

	svc, err := cloudtasks.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks service: %w", err)
	}

	return &cloudTasksScheduler{
		svc:       svc,
		queuePath: fmt.Sprintf("projects/%s/locations/%s/queues/%s", cfg.Project, cfg.Location, cfg.Queue),
		oidcEmail: cfg.ServiceAccountEmail,
	}, nil
}

func (s *cloudTasksScheduler) Schedule(ctx context.Context, task services.Task) error {
	method := task.Method
	if method == "" {
		method = "POST"
	}

	httpRequest := &cloudtasks.HttpRequest{
		Url:        task.URL,
		HttpMethod: method,
	}
	if s.oidcEmail != "" {
		httpRequest.OidcToken = &cloudtasks.OidcToken{
			ServiceAccountEmail: s.oidcEmail,
		}
	}

	req := &cloudtasks.CreateTaskRequest{
		Task: &cloudtasks.Task{HttpRequest: httpRequest},
	}

	_, err := s.svc.Projects.Locations.Queues.Tasks.Create(s.queuePath, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create cloud task for %s: %w", task.URL, err)
	}
	return nil
}
