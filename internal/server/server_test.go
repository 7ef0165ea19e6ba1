package server

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/auth"
	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/Wh1teCaat/fitness-companion/internal/database"
	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/model"
	"github.com/Wh1teCaat/fitness-companion/internal/repository"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
	"github.com/Wh1teCaat/fitness-companion/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	label string
	err   error
}

func (c *stubClassifier) Classify(context.Context, string) (string, float64, error) {
	if c.err != nil {
		return "", 0, c.err
	}
	return c.label, 0.9, nil
}

type stubModels struct {
	c   *stubClassifier
	err error
}

func (m *stubModels) Get(context.Context) (classifier.Classifier, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.c, nil
}

func (m *stubModels) Loaded() bool { return m.err == nil }

type testEnv struct {
	ts     *httptest.Server
	client *http.Client
	repo   *repository.Repository
	models *stubModels
}

// setupTestServer starts the full handler stack on a fresh SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.InitDB(config.Database{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "web.db")})
	require.NoError(t, err)
	repo := repository.NewRepository(db)

	tokens, err := auth.NewTokenManager(config.Jwt{HS256_SECRET: "test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.NoError(t, err)

	models := &stubModels{c: &stubClassifier{label: "neutral"}}
	svc := service.NewService(repo, tokens, models, responder.New(rand.NewSource(7)), service.WithLocation(time.UTC))

	srv, err := NewServer(svc, models, "session-secret", logging.Nop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := ts.Client()
	client.Jar = jar

	return &testEnv{ts: ts, client: client, repo: repo, models: models}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.ts.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) signup(t *testing.T, username, password string) string {
	t.Helper()
	_, body := e.postForm(t, "/login", url.Values{"action": {"signup"}, "username": {username}, "password": {password}})
	return body
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	_, body := e.postForm(t, "/login", url.Values{"action": {"login"}, "username": {username}, "password": {password}})
	return body
}

func (e *testEnv) chat(t *testing.T, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+"/chat", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	return resp, out
}

func noRedirects(c *http.Client) *http.Client {
	cp := *c
	cp.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &cp
}

func TestSignup(t *testing.T) {
	e := setupTestServer(t)

	body := e.signup(t, "alice", "secret")
	assert.Contains(t, body, "Account created successfully!")
	assert.Contains(t, body, `name="fitness_goal"`, "new users land on the profile page")
}

func TestSignup_Duplicate(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.get(t, "/logout")

	body := e.signup(t, "alice", "other")
	assert.Contains(t, body, "Username already exists. Please choose another.")

	var n int64
	require.NoError(t, e.repo.DB.Model(&model.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	body = e.login(t, "alice", "secret")
	assert.Contains(t, body, "Hi alice!")
}

func TestSignup_EmptyFields(t *testing.T) {
	e := setupTestServer(t)

	body := e.signup(t, "", "secret")
	assert.Contains(t, body, "Username and password are required.")
}

func TestLogin(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.get(t, "/logout")

	wrongPass := e.login(t, "alice", "nope")
	assert.Contains(t, wrongPass, "Invalid username or password. Please try again.")

	wrongUser := e.login(t, "bob", "secret")
	assert.Contains(t, wrongUser, "Invalid username or password. Please try again.")

	body := e.login(t, "alice", "secret")
	assert.Contains(t, body, "Hi alice!")
	assert.Contains(t, body, "streak 1")
}

func TestLogout(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	resp, body := e.get(t, "/logout")
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, `value="signup"`)

	resp, _ = noRedirects(e.client).Get(e.ts.URL + "/")
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestRequiresLogin(t *testing.T) {
	e := setupTestServer(t)
	c := noRedirects(e.client)

	for _, path := range []string{"/", "/profile", "/dashboard"} {
		resp, err := c.Get(e.ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}

	for _, path := range []string{"/api/analytics", "/api/calendar"} {
		resp, err := c.Get(e.ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := e.chat(t, `{"message":"hi"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfile(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	_, body := e.postForm(t, "/profile", url.Values{"fitness_goal": {"stress_relief"}, "workout_time": {"evening"}})
	assert.Contains(t, body, "Profile updated!")
	assert.Contains(t, body, "Goal: Stress Relief")

	_, body = e.get(t, "/profile")
	assert.Contains(t, body, `<option value="stress_relief" selected>`)
	assert.Contains(t, body, `<option value="evening" selected>`)

	resp, body := e.postForm(t, "/profile", url.Values{"fitness_goal": {"bulk"}, "workout_time": {"morning"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, flashProfileInvalid)
	assert.Contains(t, body, `<option value="stress_relief" selected>`, "stored profile is shown again")

	var u model.User
	require.NoError(t, e.repo.DB.Where("username = ?", "alice").First(&u).Error)
	assert.Equal(t, "stress_relief", u.FitnessGoal)
	assert.Equal(t, "evening", u.WorkoutTime, "valid half of a rejected form is not saved either")
}

func TestChat(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.models.c.label = "fatigue"

	resp, out := e.chat(t, `{"message":"so tired today"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fatigue", out["emotion"])
	assert.Equal(t, 0.9, out["confidence"])
	assert.Contains(t, responder.Candidates("fatigue"), out["response"])
	assert.Equal(t, responder.Disclaimer, out["disclaimer"])

	rec, ok := out["recommendation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "video", rec["type"])
	assert.Equal(t, "5 Minute Gentle Yoga for Fatigue", rec["title"])

	e.models.c.label = "neutral"
	resp, out = e.chat(t, `{"message":"fine"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, out["recommendation"])
}

func TestChat_BadInput(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{"message":""}`, "Empty message"},
		{"whitespace", `{"message":"   "}`, "Empty message"},
		{"missing", `{}`, "Empty message"},
		{"malformed", `{"message":`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := e.chat(t, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.want, out["error"])
		})
	}

	var n int64
	require.NoError(t, e.repo.DB.Model(&model.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestChat_ModelNotLoaded(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.models.err = classifier.ErrNotLoaded

	for _, body := range []string{`{"message":"hello"}`, `{"message":""}`, `not json`} {
		resp, out := e.chat(t, body, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, body)
		assert.Equal(t, "Model not loaded", out["error"], body)
	}
}

func TestAnalyticsAndCalendar(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	for _, label := range []string{"anxiety", "anxiety", "positive"} {
		e.models.c.label = label
		resp, _ := e.chat(t, `{"message":"update"}`, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	_, body := e.get(t, "/api/analytics")
	var counts map[string]int
	require.NoError(t, json.Unmarshal([]byte(body), &counts))
	assert.Equal(t, map[string]int{"anxiety": 2, "positive": 1}, counts)

	_, body = e.get(t, "/api/calendar")
	var cal map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &cal))
	require.Len(t, cal, 1)
	for _, emotion := range cal {
		assert.Equal(t, "positive", emotion)
	}
}

func TestAnalytics_Empty(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	_, body := e.get(t, "/api/analytics")
	assert.JSONEq(t, `{}`, body)
	_, body = e.get(t, "/api/calendar")
	assert.JSONEq(t, `{}`, body)
}

func TestDashboard(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")

	_, body := e.get(t, "/dashboard")
	assert.Contains(t, body, "No messages yet.")

	resp, _ := e.chat(t, `{"message":"<b>leg day</b>"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = e.get(t, "/dashboard")
	assert.Contains(t, body, "Current streak: <strong>0</strong>")
	assert.Contains(t, body, "&lt;b&gt;leg day&lt;/b&gt;")
	assert.NotContains(t, body, "<b>leg day</b>")
	assert.Contains(t, body, "[neutral]")
}

func TestTokens(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.get(t, "/logout")

	post := func(path, body string) (*http.Response, map[string]any) {
		t.Helper()
		resp, err := http.Post(e.ts.URL+path, "application/json", strings.NewReader(body))
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
		return resp, out
	}

	resp, out := post("/api/token", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid username or password", out["error"])

	resp, out = post("/api/token", `{"username":"alice","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	access, _ := out["access_token"].(string)
	refresh, _ := out["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotZero(t, out["expires_at"])

	resp, body := e.chat(t, `{"message":"hello"}`, http.Header{"Authorization": {"Bearer " + access}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "neutral", body["emotion"])

	resp, body = e.chat(t, `{"message":"hello"}`, http.Header{"Authorization": {"Bearer " + refresh}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid access token", body["error"])

	resp, out = post("/api/token/refresh", `{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, refresh, out["refresh_token"])
	assert.NotEmpty(t, out["access_token"])

	resp, out = post("/api/token/refresh", `{"refresh_token":"`+access+`"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid refresh token", out["error"])
}

func TestHealthz(t *testing.T) {
	e := setupTestServer(t)

	_, body := e.get(t, "/healthz")
	assert.JSONEq(t, `{"status":"ok","model_loaded":true}`, body)

	e.models.err = classifier.ErrNotLoaded
	_, body = e.get(t, "/healthz")
	assert.JSONEq(t, `{"status":"ok","model_loaded":false}`, body)
}

func TestStaticAssets(t *testing.T) {
	e := setupTestServer(t)

	resp, body := e.get(t, "/static/chat.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `fetch("/chat"`)
}

func TestRequestID(t *testing.T) {
	e := setupTestServer(t)

	resp, _ := e.get(t, "/healthz")
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	req, err := http.NewRequest(http.MethodGet, e.ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err = e.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestRecoverPanic(t *testing.T) {
	s := &Server{logger: logging.Nop()}
	h := s.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"confidence": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestChat_ClassifierFailureStoresNothing(t *testing.T) {
	e := setupTestServer(t)
	e.signup(t, "alice", "secret")
	e.models.c.err = classifier.ErrInvalidLogits

	resp, out := e.chat(t, `{"message":"hello"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", out["error"])

	var n int64
	require.NoError(t, e.repo.DB.Model(&model.Message{}).Count(&n).Error)
	assert.Zero(t, n)
}
