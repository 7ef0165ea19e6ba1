package server

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/service"
	"github.com/google/uuid"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	userIDKey
	userKey
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// log returns the request-scoped logger, falling back to the server logger.
func (s *Server) log(ctx context.Context) logging.Logger {
	if l, ok := ctx.Value(loggerKey).(logging.Logger); ok {
		return l
	}
	return s.logger
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := s.logger.With("request_id", id)
		ctx := context.WithValue(r.Context(), loggerKey, logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.Info(ctx, "request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.log(r.Context()).Error(r.Context(), "panic while handling request",
					"panic", v, "stack", string(debug.Stack()))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requirePageUser sends visitors without a valid session to /login and puts
// the loaded user into the request context.
func (s *Server) requirePageUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessionUser(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		user, err := s.svc.GetUser(r.Context(), id)
		if err != nil {
			if !errors.Is(err, service.ErrUserNotFound) {
				s.log(r.Context()).Error(r.Context(), "failed to load session user", "user_id", id, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			_ = s.endSession(w, r)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		ctx = context.WithValue(ctx, userIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAPIUser accepts a bearer access token or the session cookie. A
// bearer header that fails validation is rejected outright.
func (s *Server) requireAPIUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id uint

		if header := r.Header.Get("Authorization"); header != "" {
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}
			userID, err := s.svc.Authenticate(token)
			if err != nil {
				s.log(r.Context()).Debug(r.Context(), "bearer token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "Invalid access token")
				return
			}
			id = userID
		} else {
			userID, ok := s.sessionUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			id = userID
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func currentUserID(ctx context.Context) uint {
	id, _ := ctx.Value(userIDKey).(uint)
	return id
}

func currentUser(ctx context.Context) *model.User {
	u, _ := ctx.Value(userKey).(*model.User)
	return u
}
