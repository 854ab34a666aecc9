package controllers

import (
	"net/http"
	"strings"

	"github.com/tripgather/tripgather-backend/api/middleware"
	"github.com/tripgather/tripgather-backend/api/responses"
	"github.com/tripgather/tripgather-backend/api/validators"
	"github.com/tripgather/tripgather-backend/internal/auth"
	pkgAuth "github.com/tripgather/tripgather-backend/pkg/auth"
	pkgerrors "github.com/tripgather/tripgather-backend/pkg/errors"
	"github.com/tripgather/tripgather-backend/pkg/logger"
)

type authUserResponse struct {
	Success bool             `json:"success"`
	User    auth.SessionUser `json:"user"`
}

// AuthSignUp creates the account and signs the new user in.
func AuthSignUp(register auth.RegisterService, svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if register == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.SignUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := register.SignUp(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.IssueSession(r.Context(), *user)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.write(w, result.Tokens)
		responses.WriteSuccessStatus(w, http.StatusCreated, authUserResponse{Success: true, User: result.User})
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.write(w, result.Tokens)
		responses.WriteSuccess(w, authUserResponse{Success: true, User: result.User})
	}
}

// AuthLogout revokes the session behind the presented access token. An
// unreadable token still clears the cookies.
func AuthLogout(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		if token := middleware.AccessToken(r); token != "" {
			if claims, err := pkgAuth.ParseAccessTokenAllowExpired(cookies.JWT, token); err == nil {
				if err := svc.Logout(r.Context(), claims.ID); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		cookies.clear(w)
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthRefresh rotates the refresh token and reissues both cookies.
func AuthRefresh(svc auth.Service, cookies CookieSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		refresh := ""
		if c, err := r.Cookie(refreshTokenCookie); err == nil {
			refresh = strings.TrimSpace(c.Value)
		}
		if refresh == "" && r.ContentLength > 0 {
			var body refreshRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			refresh = strings.TrimSpace(body.RefreshToken)
		}

		result, err := svc.Refresh(r.Context(), middleware.AccessToken(r), refresh)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
				cookies.clear(w)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cookies.write(w, result.Tokens)
		responses.WriteSuccess(w, authUserResponse{Success: true, User: result.User})
	}
}
