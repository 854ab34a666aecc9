package controllers

import (
	"net/http"
	"time"

	"github.com/tripgather/tripgather-backend/api/middleware"
	"github.com/tripgather/tripgather-backend/internal/auth"
	"github.com/tripgather/tripgather-backend/pkg/config"
)

const refreshTokenCookie = "refreshToken"

// CookieSettings groups what the auth handlers need to shape cookies.
type CookieSettings struct {
	Cookie config.CookieConfig
	JWT    config.JWTConfig
}

func (c CookieSettings) write(w http.ResponseWriter, tokens auth.Tokens) {
	http.SetCookie(w, c.build(middleware.AccessTokenCookie, tokens.AccessToken, c.JWT.AccessTokenTTL()))
	http.SetCookie(w, c.build(refreshTokenCookie, tokens.RefreshToken, c.JWT.RefreshTokenTTL()))
}

func (c CookieSettings) clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		cookie := c.build(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		http.SetCookie(w, cookie)
	}
}

func (c CookieSettings) build(name, value string, ttl time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Cookie.Domain,
		HttpOnly: true,
		Secure:   c.Cookie.Secure,
		SameSite: c.Cookie.SameSiteMode(),
	}
	if ttl > 0 {
		cookie.MaxAge = int(ttl.Seconds())
	}
	return cookie
}
