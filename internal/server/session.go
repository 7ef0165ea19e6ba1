package server

import (
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName   = "session"
	sessionUserID = "user_id"
)

func newStore(secret string) *sessions.CookieStore {
	s := sessions.NewCookieStore([]byte(secret))
	s.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return s
}

// sessionUser returns the user id stored in the session cookie, if any.
func (s *Server) sessionUser(r *http.Request) (uint, bool) {
	session, _ := s.store.Get(r, sessionName)
	id, ok := session.Values[sessionUserID].(uint)
	return id, ok && id != 0
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID uint) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values[sessionUserID] = userID
	return session.Save(r, w)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	delete(session.Values, sessionUserID)
	return session.Save(r, w)
}

func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, message string) {
	session, _ := s.store.Get(r, sessionName)
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		s.log(r.Context()).Error(r.Context(), "failed to save flash", "error", err)
	}
}

// flashes pops the pending flash messages.
func (s *Server) flashes(w http.ResponseWriter, r *http.Request) []string {
	session, _ := s.store.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		s.log(r.Context()).Error(r.Context(), "failed to save session", "error", err)
	}

	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
