// Package middleware содержит HTTP middleware сервиса заказов обедов.
package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"net/http"
)

const (
	reportKeyHeader     = "X-Report-Key"
	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// KeyAuth проверяет статический ключ доступа в заголовке запроса.
// Сравнение выполняется за постоянное время.
type KeyAuth struct {
	header string
	key    []byte
}

func newKeyAuth(header, key string) *KeyAuth {
	k := []byte(key)
	if len(k) == 0 {
		// Пустой ключ закрывает доступ: случайное значение никогда не совпадёт.
		random := make([]byte, 32)
		if _, err := rand.Read(random); err == nil {
			k = random
		} else {
			k = []byte{0}
		}
	}

	return &KeyAuth{header: header, key: k}
}

// NewReportAuth создаёт проверку ключа отчётного API (заголовок X-Report-Key).
func NewReportAuth(key string) *KeyAuth {
	return newKeyAuth(reportKeyHeader, key)
}

// NewWebhookAuth создаёт проверку секретного токена вебхука,
// который чат-платформа передаёт в каждом запросе.
func NewWebhookAuth(secret string) *KeyAuth {
	return newKeyAuth(webhookSecretHeader, secret)
}

// Middleware отклоняет запросы без действительного ключа.
func (a *KeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(a.header)
		if got == "" || !hmac.Equal([]byte(got), a.key) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
