package keycloak

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/realm-provisioner/internal/adapter/metrics"
	"github.com/V4T54L/realm-provisioner/internal/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type fakeKeycloak struct {
	mu         sync.Mutex
	requests   []recordedRequest
	tokenCalls int
	tokenTTL   int
	statuses   map[string]int
	server     *httptest.Server
}

func newFakeKeycloak(t *testing.T) *fakeKeycloak {
	t.Helper()
	f := &fakeKeycloak{tokenTTL: 60, statuses: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.tokenCalls++
		ttl := f.tokenTTL
		f.mu.Unlock()

		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "admin" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`))
			return
		}
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "admin-cli", r.PostForm.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: ttl})
	})
	mux.HandleFunc("/admin/realms", f.record)
	mux.HandleFunc("/admin/realms/{realm}", f.record)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeKeycloak) record(w http.ResponseWriter, r *http.Request) {
	req := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, ok := f.statuses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		status = http.StatusNoContent
		if r.Method == http.MethodPost {
			status = http.StatusCreated
		}
	}
	if status >= 400 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"errorMessage":"remote failure"}`))
		return
	}
	w.WriteHeader(status)
}

func (f *fakeKeycloak) client(t *testing.T, password string, m *metrics.RealmMetrics) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{
		BaseURL:  f.server.URL + "/",
		Username: "admin",
		Password: password,
	}, logger, m)
}

func TestClient_CreateRealm(t *testing.T) {
	kc := newFakeKeycloak(t)
	c := kc.client(t, "secret", nil)

	name, enabled, display := "acme", true, "Acme Corp"
	err := c.CreateRealm(context.Background(), domain.RealmRepresentation{
		Realm:       name,
		Enabled:     &enabled,
		DisplayName: &display,
	})
	require.NoError(t, err)

	require.Len(t, kc.requests, 1)
	req := kc.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/admin/realms", req.Path)
	assert.Equal(t, "Bearer tok-1", req.Auth)
	assert.Equal(t, map[string]any{"realm": "acme", "enabled": true, "displayName": "Acme Corp"}, req.Body)
}

func TestClient_UpdateAndDeleteRealm(t *testing.T) {
	kc := newFakeKeycloak(t)
	c := kc.client(t, "secret", nil)
	ctx := context.Background()

	login := false
	require.NoError(t, c.UpdateRealm(ctx, "acme", domain.RealmRepresentation{Realm: "acme", RegistrationAllowed: &login}))
	require.NoError(t, c.DeleteRealm(ctx, "acme"))

	require.Len(t, kc.requests, 2)
	assert.Equal(t, http.MethodPut, kc.requests[0].Method)
	assert.Equal(t, "/admin/realms/acme", kc.requests[0].Path)
	assert.Equal(t, map[string]any{"realm": "acme", "registrationAllowed": false}, kc.requests[0].Body)
	assert.Equal(t, http.MethodDelete, kc.requests[1].Method)
	assert.Equal(t, "/admin/realms/acme", kc.requests[1].Path)

	// one token serves both calls
	assert.Equal(t, 1, kc.tokenCalls)
}

func TestClient_TokenRefreshedNearExpiry(t *testing.T) {
	kc := newFakeKeycloak(t)
	c := kc.client(t, "secret", nil)
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 1, kc.tokenCalls)

	now = now.Add(55 * time.Second)
	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, 2, kc.tokenCalls)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		status   int
		call     func(*Client) error
		wantKind domain.Kind
		wantNil  bool
	}{
		{
			name:     "create conflict",
			key:      "POST /admin/realms",
			status:   http.StatusConflict,
			call:     func(c *Client) error { return c.CreateRealm(context.Background(), domain.RealmRepresentation{Realm: "acme"}) },
			wantKind: domain.KindConflict,
		},
		{
			name:     "create rejected",
			key:      "POST /admin/realms",
			status:   http.StatusBadRequest,
			call:     func(c *Client) error { return c.CreateRealm(context.Background(), domain.RealmRepresentation{Realm: "acme"}) },
			wantKind: domain.KindValidation,
		},
		{
			name:     "update missing realm",
			key:      "PUT /admin/realms/acme",
			status:   http.StatusNotFound,
			call:     func(c *Client) error { return c.UpdateRealm(context.Background(), "acme", domain.RealmRepresentation{}) },
			wantKind: domain.KindNotFound,
		},
		{
			name:     "update server error",
			key:      "PUT /admin/realms/acme",
			status:   http.StatusInternalServerError,
			call:     func(c *Client) error { return c.UpdateRealm(context.Background(), "acme", domain.RealmRepresentation{}) },
			wantKind: domain.KindUpstream,
		},
		{
			name:    "delete missing realm is success",
			key:     "DELETE /admin/realms/acme",
			status:  http.StatusNotFound,
			call:    func(c *Client) error { return c.DeleteRealm(context.Background(), "acme") },
			wantNil: true,
		},
		{
			name:     "delete forbidden",
			key:      "DELETE /admin/realms/acme",
			status:   http.StatusForbidden,
			call:     func(c *Client) error { return c.DeleteRealm(context.Background(), "acme") },
			wantKind: domain.KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc := newFakeKeycloak(t)
			kc.statuses[tt.key] = tt.status

			err := tt.call(kc.client(t, "secret", nil))
			if tt.wantNil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.ErrorKind(err))
			assert.Contains(t, err.Error(), "remote failure")
		})
	}
}

func TestClient_Unauthorized(t *testing.T) {
	kc := newFakeKeycloak(t)
	c := kc.client(t, "wrong", nil)

	err := c.CreateRealm(context.Background(), domain.RealmRepresentation{Realm: "acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Contains(t, err.Error(), "Invalid user credentials")
	assert.Empty(t, kc.requests)
}

func TestClient_ExpiredTokenIsDropped(t *testing.T) {
	kc := newFakeKeycloak(t)
	kc.statuses["PUT /admin/realms/acme"] = http.StatusUnauthorized
	c := kc.client(t, "secret", nil)

	err := c.UpdateRealm(context.Background(), "acme", domain.RealmRepresentation{})
	assert.ErrorIs(t, err, domain.ErrUpstream)

	delete(kc.statuses, "PUT /admin/realms/acme")
	require.NoError(t, c.UpdateRealm(context.Background(), "acme", domain.RealmRepresentation{}))
	assert.Equal(t, 2, kc.tokenCalls)
}

func TestClient_ServerUnreachable(t *testing.T) {
	kc := newFakeKeycloak(t)
	c := kc.client(t, "secret", nil)
	kc.server.Close()

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestClient_Metrics(t *testing.T) {
	kc := newFakeKeycloak(t)
	kc.statuses["PUT /admin/realms/gone"] = http.StatusNotFound
	m := metrics.NewRealmMetrics(prometheus.NewRegistry())
	c := kc.client(t, "secret", m)
	ctx := context.Background()

	require.NoError(t, c.CreateRealm(ctx, domain.RealmRepresentation{Realm: "acme"}))
	require.Error(t, c.UpdateRealm(ctx, "gone", domain.RealmRepresentation{}))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdPCallsTotal.WithLabelValues("create_realm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdPCallsTotal.WithLabelValues("update_realm", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IdPCallsTotal.WithLabelValues("delete_realm", "ok")))
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	kc := newFakeKeycloak(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(Config{BaseURL: kc.server.URL, Username: "admin", Password: "secret", RateLimit: 0.001}, logger, nil)

	require.NoError(t, c.DeleteRealm(context.Background(), "acme"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := c.DeleteRealm(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrUpstream)
	assert.Len(t, kc.requests, 1)
}
