package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	mu    sync.Mutex
	creds Credentials
}

func (s *memStore) LoadCredentials() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *memStore) SaveCredentials(c Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = c
	return nil
}

func (s *memStore) ClearCredentials() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// makeToken signs a throwaway JWT. sub keeps same-TTL tokens
// distinguishable; exp only has second resolution.
func makeToken(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(ttl).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func newTestClient(t *testing.T, handler http.Handler, creds Credentials) (*Client, *memStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := &memStore{creds: creds}
	return NewClient(srv.URL, store, zap.NewNop()), store
}

func TestDoSendsBearerToken(t *testing.T) {
	tok := makeToken(t, "user-1", time.Hour)

	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}), Credentials{Token: tok, RefreshToken: "r-1"})

	var out map[string]string
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/ping", nil, &out))
	assert.Equal(t, "Bearer "+tok, gotAuth)
	assert.Equal(t, "yes", out["ok"])
}

func TestDoRefreshesProactivelyNearExpiry(t *testing.T) {
	oldTok := makeToken(t, "user-1", 10*time.Second) // inside the refresh window
	newTok := makeToken(t, "user-1-rotated", time.Hour)

	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "r-1", req["refreshToken"])
		json.NewEncoder(w).Encode(Credentials{Token: newTok, RefreshToken: "r-2"})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+newTok, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	})

	client, store := newTestClient(t, mux, Credentials{Token: oldTok, RefreshToken: "r-1"})
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/ping", nil, nil))

	assert.Equal(t, 1, refreshes)
	saved, _ := store.LoadCredentials()
	assert.Equal(t, newTok, saved.Token)
	assert.Equal(t, "r-2", saved.RefreshToken)
}

func TestDoSkipsRefreshForFreshToken(t *testing.T) {
	tok := makeToken(t, "user-1", time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		t.Error("refresh must not be called for a fresh token")
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux, Credentials{Token: tok, RefreshToken: "r-1"})
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/ping", nil, nil))
}

func TestDoRetriesOnceAfter401(t *testing.T) {
	oldTok := makeToken(t, "user-1", time.Hour) // looks fresh, rejected anyway
	newTok := makeToken(t, "user-1-rotated", time.Hour)
	require.NotEqual(t, oldTok, newTok, "handler below tells the tokens apart")

	var pings int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Credentials{Token: newTok, RefreshToken: "r-2"})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		pings++
		if r.Header.Get("Authorization") != "Bearer "+newTok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	})

	client, _ := newTestClient(t, mux, Credentials{Token: oldTok, RefreshToken: "r-1"})
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/ping", nil, nil))
	assert.Equal(t, 2, pings)
}

func TestDoGivesUpAfterSecond401(t *testing.T) {
	oldTok := makeToken(t, "user-1", time.Hour)
	newTok := makeToken(t, "user-1-rotated", time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Credentials{Token: newTok, RefreshToken: "r-2"})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, store := newTestClient(t, mux, Credentials{Token: oldTok, RefreshToken: "r-1"})
	err := client.do(context.Background(), http.MethodGet, "/ping", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)

	saved, _ := store.LoadCredentials()
	assert.Empty(t, saved.Token, "credentials cleared after fatal auth failure")
}

func TestDoNoRefreshTokenMeansSessionExpired(t *testing.T) {
	oldTok := makeToken(t, "user-1", 5*time.Second)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}), Credentials{Token: oldTok})

	err := client.do(context.Background(), http.MethodGet, "/ping", nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestDoRefreshKeepsOldRefreshTokenWhenOmitted(t *testing.T) {
	oldTok := makeToken(t, "user-1", 5*time.Second)
	newTok := makeToken(t, "user-1-rotated", time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		// platform rotates the bearer but not the refresh token
		json.NewEncoder(w).Encode(Credentials{Token: newTok})
	})
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	client, store := newTestClient(t, mux, Credentials{Token: oldTok, RefreshToken: "r-1"})
	require.NoError(t, client.do(context.Background(), http.MethodGet, "/ping", nil, nil))

	saved, _ := store.LoadCredentials()
	assert.Equal(t, "r-1", saved.RefreshToken)
}

// failStore accepts loads but refuses every write.
type failStore struct{}

func (failStore) LoadCredentials() (Credentials, error) { return Credentials{}, nil }
func (failStore) SaveCredentials(Credentials) error     { return assert.AnError }
func (failStore) ClearCredentials() error               { return assert.AnError }

func TestLoginSurvivesCredentialPersistFailure(t *testing.T) {
	tok := makeToken(t, "user-1", time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AuthResult{Token: tok, RefreshToken: "r-1"})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, failStore{}, zap.NewNop())
	res, err := client.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err, "a broken local store must not block sign-in")
	assert.Equal(t, tok, res.Token)
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	tok := makeToken(t, "user-1", time.Hour)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"Device limit reached for your plan"}`))
	}), Credentials{Token: tok, RefreshToken: "r-1"})

	err := client.do(context.Background(), http.MethodGet, "/devices/add", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Device limit reached for your plan", err.Error())
}

func TestServerMessageFallsBackToStatusLine(t *testing.T) {
	assert.Equal(t, "API error: 500 - boom", serverMessage(500, []byte("boom")))
	assert.Equal(t, "oops", serverMessage(400, []byte(`{"message":"oops"}`)))
}

func TestDoPublicSendsNoAuthHeader(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]map[string]string{{"id": "plan-1"}})
	}), Credentials{Token: makeToken(t, "user-1", time.Hour)})

	var out []map[string]string
	require.NoError(t, client.doPublic(context.Background(), http.MethodGet, "/subscription-plans/public", nil, &out))
	require.Len(t, out, 1)
}
