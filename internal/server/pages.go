package server

import (
	"errors"
	"net/http"

	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/service"
)

const (
	flashFieldsRequired = "Username and password are required."
	flashUsernameTaken  = "Username already exists. Please choose another."
	flashSignedUp       = "Account created successfully!"
	flashLoginFailed    = "Invalid username or password. Please try again."
	flashProfileSaved   = "Profile updated!"
	flashProfileInvalid = "Please choose a fitness goal and workout time from the list."
)

var optionLabels = map[string]string{
	"weight_loss":     "Weight Loss",
	"muscle_gain":     "Muscle Gain",
	"endurance":       "Endurance",
	"stress_relief":   "Stress Relief",
	"general_fitness": "General Fitness",
	"morning":         "Morning",
	"afternoon":       "Afternoon",
	"evening":         "Evening",
}

func userView(u *model.User) map[string]interface{} {
	return map[string]interface{}{
		"username":     u.Username,
		"streak":       u.StreakCount,
		"fitness_goal": optionLabels[u.FitnessGoal],
		"workout_time": optionLabels[u.WorkoutTime],
	}
}

func options(values []string, selected string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, map[string]interface{}{
			"value":    v,
			"label":    optionLabels[v],
			"selected": v == selected,
		})
	}
	return out
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessionUser(r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.renderPage(w, r, http.StatusOK, "auth.html", nil)
}

// loginSubmit handles both forms of the auth page, told apart by "action".
func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := r.FormValue("username")
	password := r.FormValue("password")

	switch r.FormValue("action") {
	case "signup":
		user, err := s.svc.Signup(ctx, username, password)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmptyFields):
				s.renderAuthError(w, r, flashFieldsRequired)
			case errors.Is(err, service.ErrUsernameTaken):
				s.renderAuthError(w, r, flashUsernameTaken)
			default:
				s.log(ctx).Error(ctx, "failed to sign up", "username", username, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
			return
		}

		if err := s.startSession(w, r, user.ID); err != nil {
			s.log(ctx).Error(ctx, "failed to start session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.log(ctx).Info(ctx, "user signed up", "user_id", user.ID)
		s.addFlash(w, r, flashSignedUp)
		http.Redirect(w, r, "/profile", http.StatusFound)

	case "login":
		user, err := s.svc.Login(ctx, username, password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				s.renderAuthError(w, r, flashLoginFailed)
				return
			}
			s.log(ctx).Error(ctx, "failed to log in", "username", username, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if err := s.startSession(w, r, user.ID); err != nil {
			s.log(ctx).Error(ctx, "failed to start session", "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.log(ctx).Info(ctx, "user logged in", "user_id", user.ID, "streak", user.StreakCount)
		http.Redirect(w, r, "/", http.StatusFound)

	default:
		s.renderPage(w, r, http.StatusOK, "auth.html", nil)
	}
}

func (s *Server) renderAuthError(w http.ResponseWriter, r *http.Request, msg string) {
	s.renderPage(w, r, http.StatusOK, "auth.html", map[string]interface{}{
		"flashes": []string{msg},
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.endSession(w, r); err != nil {
		s.log(r.Context()).Error(r.Context(), "failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, http.StatusOK, "index.html", nil)
}

func (s *Server) profilePage(w http.ResponseWriter, r *http.Request) {
	s.renderProfile(w, r, http.StatusOK, nil)
}

// renderProfile shows the stored profile; flashes replaces the pending ones when set.
func (s *Server) renderProfile(w http.ResponseWriter, r *http.Request, status int, flashes []string) {
	u := currentUser(r.Context())
	data := map[string]interface{}{
		"goals":         options(service.FitnessGoals, u.FitnessGoal),
		"workout_times": options(service.WorkoutTimes, u.WorkoutTime),
	}
	if flashes != nil {
		data["flashes"] = flashes
	}
	s.renderPage(w, r, status, "profile.html", data)
}

func (s *Server) profileSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := currentUser(ctx)

	err := s.svc.UpdateProfile(ctx, u.ID, r.FormValue("fitness_goal"), r.FormValue("workout_time"))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidProfile):
		s.renderProfile(w, r, http.StatusBadRequest, []string{flashProfileInvalid})
		return
	default:
		s.log(ctx).Error(ctx, "failed to update profile", "user_id", u.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	s.addFlash(w, r, flashProfileSaved)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := currentUser(ctx)

	msgs, err := s.svc.RecentMessages(ctx, u.ID)
	if err != nil {
		s.log(ctx).Error(ctx, "failed to load recent messages", "user_id", u.ID, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	recent := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		emotion := ""
		if m.Emotion != nil {
			emotion = *m.Emotion
		}
		recent = append(recent, map[string]interface{}{
			"content": m.Content,
			"is_bot":  m.IsBot,
			"emotion": emotion,
			"time":    m.Timestamp.UTC().Format("2006-01-02 15:04"),
		})
	}

	s.renderPage(w, r, http.StatusOK, "dashboard.html", map[string]interface{}{
		"recent_messages": recent,
	})
}
