package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/fkhayef/pantryledger/pkg/response"
)

// RateLimit builds a limiter middleware from a formatted rate such as "120-M".
// Requests are keyed by member id when one is present, by client IP otherwise.
func RateLimit(formattedRate string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", formattedRate, err)
	}

	instance := limiter.New(memory.NewStore(), rate)

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			if memberID, ok := GetMemberID(r.Context()); ok {
				return "member:" + memberID
			}
			return "ip:" + instance.GetIPKey(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			GetLogger(r.Context()).Warn("rate limit exceeded", slog.String("remote_addr", r.RemoteAddr))
			response.TooManyRequests(w, "Too many requests. Please try again later.")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			GetLogger(r.Context()).Error("rate limit check failed", slog.String("error", err.Error()))
			response.InternalError(w, "Internal server error during rate limit check")
		}),
	)

	return mw.Handler, nil
}
