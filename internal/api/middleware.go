package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/rolling-scopes/rsschool-tasks-backend/internal/auth"
	"github.com/sirupsen/logrus"
)

const adminTokenHeader = "X-Admin-Token"

func (s *TasksApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.WithError(panicError).Errorf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request and feeds the request metrics.
func (s *TasksApp) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.stats.ObserveRequest(r.Method, route, m.Code, m.Duration)

		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   m.Code,
			"duration": m.Duration,
			"bytes":    m.Written,
		}).Info("request")
	})
}

func (s *TasksApp) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			errResp := NewTooManyRequestsError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware parses the identity headers and checks them with v. A
// verifier that finds no matching user answers with mismatch.
func (s *TasksApp) authMiddleware(v auth.Verifier, mismatch func() *ApiError, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds, err := auth.ParseCredentials(r.Header)
		if err != nil {
			errResp := NewInvalidUserDataError()
			if errors.Is(err, auth.ErrMalformedToken) {
				errResp = NewMalformedTokenError()
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		user, err := v.Verify(r.Context(), creds)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				s.log.WithField("uid", creds.UID).Debug("credentials did not match a user")
				errResp := mismatch()
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
			s.internalError(w, err)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{Credentials: creds, User: user})
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")

		next(w, r.WithContext(ctx))
	}
}

func (s *TasksApp) adminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(adminTokenHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			s.log.WithField("path", r.URL.Path).Warn("rejected admin request")
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		next(w, r)
	}
}
