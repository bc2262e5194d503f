package middleware

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/api/idtoken"
)

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// TaskAuthenticator проверяет Google-подписанные OIDC-токены, которыми
// очередь задач аутентифицирует доставку публикационных колбэков.
// Это отдельный от админского JWT контур: токены очереди подписаны
// RS256 ключами Google, а не нашим HMAC-секретом.
type TaskAuthenticator struct {
	serviceAccountEmail string
	validate            validateFunc
}

func NewTaskAuthenticator(serviceAccountEmail string) *TaskAuthenticator {
	return &TaskAuthenticator{
		serviceAccountEmail: serviceAccountEmail,
		validate:            idtoken.Validate,
	}
}

func (a *TaskAuthenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		// Audience у каждой задачи свой (URL конкретного матча), поэтому
		// audience не пиним; подпись и срок действия проверяет валидатор.
		payload, err := a.validate(r.Context(), tokenString, "")
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Токен валиден, но выписан не нашему сервисному аккаунту.
		email, _ := payload.Claims["email"].(string)
		verified, _ := payload.Claims["email_verified"].(bool)
		if !verified || email == "" || email != a.serviceAccountEmail {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
