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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/aidtrace/internal/domain"
	"github.com/spec-kit/aidtrace/internal/events"
	"github.com/spec-kit/aidtrace/internal/offline"
	"github.com/spec-kit/aidtrace/internal/session"
	apperrors "github.com/spec-kit/aidtrace/pkg/util"
)

// switchTransport forwards to the default transport until it is taken down.
type switchTransport struct {
	down atomic.Bool
}

func (s *switchTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if s.down.Load() {
		return nil, errors.New("dial tcp: network is unreachable")
	}
	return http.DefaultTransport.RoundTrip(r)
}

type fixture struct {
	server    *httptest.Server
	mux       *http.ServeMux
	transport *switchTransport
	store     *session.Store
	events    events.Dispatcher
	client    *Client
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		mux:       http.NewServeMux(),
		transport: &switchTransport{},
		store:     session.NewStore(nil),
		events:    events.NewInMemoryDispatcher(),
	}
	f.server = httptest.NewServer(f.mux)
	t.Cleanup(f.server.Close)

	base := []Option{
		WithHTTPClient(&http.Client{Transport: f.transport, Timeout: 5 * time.Second}),
		WithEvents(f.events),
	}
	f.client = New(Config{BaseURL: f.server.URL + "/api/", Store: f.store}, append(base, opts...)...)
	return f
}

func (f *fixture) signIn(t *testing.T, access, refresh string) {
	t.Helper()
	org := int64(7)
	require.NoError(t, f.store.SaveLogin(context.Background(), access, refresh,
		domain.User{ID: 1, Username: "alice", Role: domain.RoleOrganisation, Organisation: &org}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerTokenInjection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var seen []string
	f.mux.HandleFunc("/api/public/stats/", func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, map[string]any{"total_projects": 3})
	})

	_, err := f.client.PublicStats(ctx)
	require.NoError(t, err)

	f.signIn(t, "A1", "R1")
	_, err = f.client.PublicStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer A1"}, seen)
}

func TestLoginPersistsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, domain.Credentials{Username: "alice", Password: "secret1"}, creds)
		writeJSON(w, http.StatusOK, map[string]any{
			"access":  "A1",
			"refresh": "R1",
			"user":    map[string]any{"role": "donor", "username": "alice"},
		})
	})

	var established []events.Event
	f.events.Subscribe(events.EventSessionEstablished, func(_ context.Context, e events.Event) error {
		established = append(established, e)
		return nil
	})

	resp, err := f.client.Login(ctx, domain.Credentials{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "A1", resp.Access)

	access, err := f.store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", access)
	refresh, err := f.store.RefreshToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R1", refresh)
	user, err := f.client.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleDonor, user.Role)
	assert.Len(t, established, 1)
}

func TestLoginInvalidCredentialsDoesNotRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	var refreshes atomic.Int32
	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access": "new"})
	})
	f.mux.HandleFunc("/api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
	})

	_, err := f.client.Login(ctx, domain.Credentials{Username: "alice", Password: "nope"})
	require.Error(t, err)
	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindAuth, apiErr.Kind)
	assert.Equal(t, map[string]any{"error": "Invalid credentials"}, apiErr.Payload)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.Zero(t, refreshes.Load())
}

func TestRefreshAndReplayOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	var refreshes, calls atomic.Int32
	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "R1", body["refresh"])
		writeJSON(w, http.StatusOK, map[string]any{"access": "new"})
	})
	f.mux.HandleFunc("/api/funding/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer new" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Given token not valid for any token type"})
			return
		}
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		body["id"] = 11
		writeJSON(w, http.StatusCreated, body)
	})

	rec, err := f.client.FundProject(ctx, domain.Record{"project": 1, "amount": 50})
	require.NoError(t, err)
	assert.Equal(t, float64(11), rec["id"])
	assert.Equal(t, float64(50), rec["amount"])

	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
	access, _ := f.store.AccessToken(ctx)
	assert.Equal(t, "new", access)
	refresh, _ := f.store.RefreshToken(ctx)
	assert.Equal(t, "R1", refresh)
}

func TestReplayedUnauthorizedIsNotRetriedAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	var refreshes, calls atomic.Int32
	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"access": "new"})
	})
	f.mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "nope"})
	})

	_, err := f.client.Users(ctx, UserFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefreshFailureClearsTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired", "code": "token_not_valid"})
	})
	f.mux.HandleFunc("/api/reports/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Given token not valid for any token type"})
	})

	var expired []events.SessionPayload
	f.events.Subscribe(events.EventSessionExpired, func(_ context.Context, e events.Event) error {
		expired = append(expired, e.Payload.(events.SessionPayload))
		return nil
	})

	_, err := f.client.AllReports(ctx)
	require.Error(t, err)
	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "token_not_valid", apiErr.Payload["code"])
	assert.Equal(t, "Token is invalid or expired", apiErr.Message)

	access, _ := f.store.AccessToken(ctx)
	refresh, _ := f.store.RefreshToken(ctx)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	require.Len(t, expired, 1)
	assert.Equal(t, LoginPath, expired[0].LoginPath)
}

func TestCallerTimeoutDuringRefreshKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{"access": "new"})
	})
	f.mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": 0, "results": []any{}})
	})

	var expired atomic.Int32
	f.events.Subscribe(events.EventSessionExpired, func(context.Context, events.Event) error {
		expired.Add(1)
		return nil
	})

	impatient, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	patientErr := make(chan error, 1)
	go func() {
		time.Sleep(20 * time.Millisecond)
		_, err := f.client.Users(context.Background(), UserFilter{})
		patientErr <- err
	}()

	_, err := f.client.Users(impatient, UserFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransport))

	refresh, _ := f.store.RefreshToken(context.Background())
	assert.Equal(t, "R1", refresh)

	require.NoError(t, <-patientErr)
	access, _ := f.store.AccessToken(context.Background())
	assert.Equal(t, "new", access)
	assert.Zero(t, expired.Load())
}

func TestUnauthorizedWithoutRefreshTokenPassesThrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var refreshes atomic.Int32
	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	f.mux.HandleFunc("/api/dashboard/stats/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
	})

	_, err := f.client.DashboardStats(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindAuth))
	assert.Zero(t, refreshes.Load())
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "old", "R1")

	var refreshes atomic.Int32
	f.mux.HandleFunc("/api/auth/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		time.Sleep(50 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{"access": "new"})
	})
	f.mux.HandleFunc("/api/distributions/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer new" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": 0, "results": []any{}})
	})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.client.Distributions(ctx, DistributionFilter{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
}

func TestServerErrorIsNotAFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, WithMonitor(AlwaysOffline))
	f.mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "database unavailable"})
	})
	f.mux.HandleFunc("/api/projects/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "database unavailable"})
	})

	_, err := f.client.Users(ctx, UserFilter{})
	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, map[string]any{"detail": "database unavailable"}, apiErr.Payload)

	_, err = f.client.Projects(ctx, ProjectFilter{})
	assert.True(t, apperrors.IsStatus(err, http.StatusInternalServerError))
}

func TestNonJSONErrorBodyKeepsRawMessage(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/api/audit/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := f.client.AuditLogs(context.Background(), AuditFilter{})
	apiErr, ok := apperrors.AsAPIError(err)
	require.True(t, ok)
	assert.Nil(t, apiErr.Payload)
	assert.Equal(t, "bad gateway", strings.TrimSpace(apiErr.Message))
}

func TestLogoutClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "A1", "R1")

	require.NoError(t, f.client.Logout(ctx))

	access, _ := f.store.AccessToken(ctx)
	refresh, _ := f.store.RefreshToken(ctx)
	user, err := f.store.User(ctx)
	require.NoError(t, err)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	assert.Nil(t, user)
}

func TestFiltersAreEncoded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var queries []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, map[string]any{"count": 0, "results": []any{}})
	}
	f.mux.HandleFunc("/api/projects/", handler)
	f.mux.HandleFunc("/api/reports/", handler)

	_, err := f.client.Projects(ctx, ProjectFilter{Status: []string{"approved", "active"}, Organisation: 3})
	require.NoError(t, err)
	_, err = f.client.VerifiedReports(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"organisation=3&status=approved%2Cactive", "is_verified=true"}, queries)
}

func TestCreateFieldOfficerUsesSessionOrganisation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, "A1", "R1")

	f.mux.HandleFunc("/api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(7), body["organisation"])
		assert.Equal(t, "pw12345678", body["password_confirm"])
		assert.Equal(t, "field_officer", body["role"])
		assert.Equal(t, "Bearer A1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, map[string]any{"message": "ok"})
	})

	rec, err := f.client.CreateFieldOfficer(ctx, domain.Registration{Username: "bob", Email: "bob@example.org", Password: "pw12345678"})
	require.NoError(t, err)
	assert.Equal(t, "ok", rec["message"])
}

func TestVerifyHash(t *testing.T) {
	f := newFixture(t)
	f.mux.HandleFunc("/api/blockchain/verify/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{"verified": body["hash"] == "abc" && body["tx_id"] == "sim_1"})
	})

	res, err := f.client.VerifyHash(context.Background(), "abc", "sim_1")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "abc", res.Hash)
}

func TestRateLimitedClientStillServes(t *testing.T) {
	f := newFixture(t, WithRateLimit(1000, 1))
	f.mux.HandleFunc("/api/public/projects/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{map[string]any{"id": 1}})
	})
	for i := 0; i < 3; i++ {
		items, err := f.client.PublicProjects(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}
}

var _ offline.Replayer = (*Client)(nil)
