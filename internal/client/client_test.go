package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Wh1teCaat/fitness-companion/internal/logging"
	"github.com/Wh1teCaat/fitness-companion/internal/responder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI mimics the token and chat endpoints of the web server.
type fakeAPI struct {
	refreshes atomic.Int32
	lastAuth  atomic.Value
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid username or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","expires_at":` +
			jsonInt(time.Now().Add(time.Hour).Unix()) + `}`))
	})

	mux.HandleFunc("POST /api/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["refresh_token"] != "refresh-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid refresh token"}`))
			return
		}
		f.refreshes.Add(1)
		_, _ = w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-1","expires_at":` +
			jsonInt(time.Now().Add(time.Hour).Unix()) + `}`))
	})

	mux.HandleFunc("POST /chat", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth.Store(r.Header.Get("Authorization"))
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer access-") {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		_, _ = w.Write([]byte(`{"response":"Rest up.","emotion":"fatigue","confidence":0.75,` +
			`"disclaimer":"d","recommendation":{"type":"video","title":"Yoga","url":"https://example.com"}}`))
	})

	return mux
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	ts := httptest.NewServer(api.handler(t))
	t.Cleanup(ts.Close)
	return New(ts.URL+"/", 5*time.Second, logging.Nop()), api
}

func TestLoginAndChat(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	_, err := c.Chat(ctx, "hi")
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, c.Login(ctx, "alice", "secret"))
	assert.Equal(t, "access-1", c.Tokens().AccessToken())
	assert.Equal(t, "refresh-1", c.Tokens().RefreshToken())

	reply, err := c.Chat(ctx, "so tired")
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-1", api.lastAuth.Load())
	assert.Equal(t, "Rest up.", reply.Response)
	assert.Equal(t, "fatigue", reply.Emotion)
	assert.Equal(t, 0.75, reply.Confidence)
	require.NotNil(t, reply.Recommendation)
	assert.Equal(t, responder.TypeVideo, reply.Recommendation.Type)
}

func TestLogin_Rejected(t *testing.T) {
	c, _ := newTestClient(t)

	err := c.Login(context.Background(), "alice", "wrong")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid username or password", apiErr.Message)
	assert.Empty(t, c.Tokens().AccessToken())
}

func TestRefresh(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()

	assert.ErrorIs(t, c.Refresh(ctx), ErrNotLoggedIn)

	require.NoError(t, c.Login(ctx, "alice", "secret"))
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, int32(1), api.refreshes.Load())
	assert.Equal(t, "access-2", c.Tokens().AccessToken())

	_, err := c.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-2", api.lastAuth.Load())
}

func TestStartRefresher_RefreshesInsideLeadWindow(t *testing.T) {
	tm := NewTokenManager()
	tm.Update("a", "r", time.Now().Add(30*time.Second).Unix())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	called := make(chan struct{}, 1)
	tm.StartRefresher(ctx, time.Minute, func(context.Context) error {
		tm.Update("b", "r", time.Now().Add(time.Hour).Unix())
		called <- struct{}{}
		return nil
	}, logging.Nop())

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not triggered")
	}
	assert.Equal(t, "b", tm.AccessToken())
}

func TestStartRefresher_ShortLivedTokensDoNotSpin(t *testing.T) {
	tm := NewTokenManager()
	tm.Update("a", "r", time.Now().Add(30*time.Second).Unix())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	tm.StartRefresher(ctx, time.Minute, func(context.Context) error {
		calls.Add(1)
		tm.Update("b", "r", time.Now().Add(30*time.Second).Unix())
		return nil
	}, logging.Nop())

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestStartRefresher_StopsOnCancel(t *testing.T) {
	tm := NewTokenManager()
	tm.Update("a", "r", time.Now().Add(time.Hour).Unix())

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	tm.StartRefresher(ctx, time.Minute, func(context.Context) error {
		calls.Add(1)
		return nil
	}, logging.Nop())

	cancel()
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestTransportSkipsTokenEndpoints(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, r.URL.Path+"="+r.Header.Get("Authorization"))
	}))
	defer ts.Close()

	tm := NewTokenManager()
	tm.Update("tok", "ref", 0)
	hc := &http.Client{Transport: &tokenTransport{base: http.DefaultTransport, tokens: tm}}

	for _, p := range []string{"/api/token", "/api/token/refresh", "/chat"} {
		resp, err := hc.Post(ts.URL+p, "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/api/token=", "/api/token/refresh=", "/chat=Bearer tok"}, seen)
}
