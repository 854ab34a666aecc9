package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/internal/users"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

// maxPeekBytes bounds how much of a sign-up or login body is buffered to
// find the email. Larger bodies are only limited per IP.
const maxPeekBytes = 16 << 10

// RateLimiterStore is satisfied by pkg/redis.Client; scopes are namespaced
// under its rate_limit prefix.
type RateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// AuthRateLimitPolicy throttles one auth endpoint per client IP and per
// account email.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{name: name, window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

type rateCheck struct {
	scope string
	key   string
	limit int
}

// AuthRateLimit guards /api/auth/sign-up and /api/auth/login. Emails are
// hashed before they reach the store or the logs.
func AuthRateLimit(policy AuthRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var checks []rateCheck
			if ip := clientIP(r); ip != "" && policy.ipLimit > 0 {
				checks = append(checks, rateCheck{scope: "ip", key: ip, limit: policy.ipLimit})
			}
			if policy.emailLimit > 0 {
				if email := peekEmail(r); email != "" {
					checks = append(checks, rateCheck{scope: "email", key: hashValue(email), limit: policy.emailLimit})
				}
			}

			for _, c := range checks {
				allowed, count, err := store.FixedWindowAllow(ctx, policy.name+":"+c.scope+":"+c.key, int64(c.limit), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting").
						WithDetails(map[string]any{"step": "rate_limit." + policy.name}))
					return
				}
				if !allowed {
					respondRateLimited(ctx, logg, w, policy, c, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, c rateCheck, count int64) {
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"scope":          c.scope,
			"key":            c.key,
			"policy":         policy.name,
			"attempts":       count,
			"limit":          c.limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Round(time.Second).Seconds())))
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(c.limit))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("too many %s attempts, try again later", policy.name)))
}

// peekEmail reads up to maxPeekBytes of the body and restores it for the
// handler. Oversized or non-JSON bodies yield "".
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	if err != nil || len(head) > maxPeekBytes {
		return ""
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(head, &body) != nil {
		return ""
	}
	return users.NormalizeEmail(body.Email)
}

// clientIP takes the first parseable X-Forwarded-For hop (the Heroku router
// appends the connecting address), then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if addr, err := netip.ParseAddr(strings.TrimSpace(part)); err == nil {
			return addr.Unmap().String()
		}
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return addr.Unmap().String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String()
	}
	return ""
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
