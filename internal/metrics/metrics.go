package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sign-in outcomes used as the `outcome` label.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidPayload   = "invalid_payload"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeSessionError     = "session_error"
	OutcomeError            = "error"
)

var (
	// SignInTotal counts sign-in attempts by outcome.
	SignInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "telegram_sign_in_total",
		Help: "Telegram sign-in attempts by outcome",
	}, []string{"outcome"})

	// UsersCreatedTotal counts users created on first Telegram login.
	UsersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telegram_sign_in_users_created_total",
		Help: "Users created by Telegram sign-in",
	})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
