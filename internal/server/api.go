package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Wh1teCaat/fitness-companion/internal/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header so an unencodable value turns
// into a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.svc.ModelReady(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Model not loaded")
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID := currentUserID(ctx)
	res, err := s.svc.Chat(ctx, userID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrModelNotLoaded):
			writeError(w, http.StatusInternalServerError, "Model not loaded")
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "Empty message")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "Authentication required")
		default:
			s.log(ctx).Error(ctx, "chat failed", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.log(ctx).Debug(ctx, "chat turn stored", "user_id", userID, "emotion", res.Emotion, "confidence", res.Confidence)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts, err := s.svc.EmotionCounts(ctx, currentUserID(ctx))
	if err != nil {
		s.log(ctx).Error(ctx, "failed to tally emotions", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) calendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal, err := s.svc.Calendar(ctx, currentUserID(ctx))
	if err != nil {
		s.log(ctx).Error(ctx, "failed to build calendar", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pair, err := s.svc.IssueTokens(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
		default:
			s.log(ctx).Error(ctx, "failed to issue tokens", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to login")
		}
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	accessToken, expiresAt, err := s.svc.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		default:
			s.log(ctx).Error(ctx, "failed to refresh access token", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to refresh access token")
		}
		return
	}

	writeJSON(w, http.StatusOK, service.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    expiresAt,
	})
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", ModelLoaded: s.models.Loaded()})
}
