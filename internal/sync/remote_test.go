package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marisol-apps/pantrylog-backend/pkg/auth"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
)

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "pantrylog-device", ExpirationMinutes: 5}
}

func remoteAgainst(t *testing.T, handler http.Handler) *HTTPRemote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	remote, err := NewHTTPRemote(
		config.SyncConfig{RemoteURL: srv.URL, PushTimeout: 2 * time.Second, ProbeTimeout: time.Second},
		jwtConfig(), enums.SubscriptionTierPlus,
	)
	require.NoError(t, err)
	return remote
}

func TestPushSendsDeviceToken(t *testing.T) {
	var gotAuth string
	remote := remoteAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req pushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		fmt.Fprintf(w, `{"results":[{"id":%q,"ok":true}]}`, req.Records[0].ID)
	}))

	id := uuid.New()
	result, err := remote.Push(context.Background(), "user-1", []Record{
		{Entity: "inventory_items", ID: id, Data: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, result.Succeeded)

	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	claims, err := auth.ParseDeviceToken(jwtConfig(), strings.TrimPrefix(gotAuth, "Bearer "))
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, enums.SubscriptionTierPlus, claims.Tier)
}

func TestPushUnacknowledgedRecordsAreFailed(t *testing.T) {
	remote := remoteAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))

	id := uuid.New()
	result, err := remote.Push(context.Background(), "user-1", []Record{
		{Entity: "stores", ID: id, Data: json.RawMessage(`{}`)},
	})
	require.NoError(t, err)
	require.Empty(t, result.Succeeded)
	require.Contains(t, result.Failed, id)
}

func TestPushRejectedTokenIsPermissionError(t *testing.T) {
	remote := remoteAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := remote.Push(context.Background(), "user-1", nil)
	require.Equal(t, pkgerrors.CodePermission, pkgerrors.CodeOf(err))
}

func TestProbeUnhealthyRemoteIsOffline(t *testing.T) {
	remote := remoteAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := remote.Probe(context.Background())
	require.Equal(t, pkgerrors.CodeOffline, pkgerrors.CodeOf(err))
}

func TestProbeUnreachableRemoteIsOffline(t *testing.T) {
	remote, err := NewHTTPRemote(
		config.SyncConfig{RemoteURL: "http://127.0.0.1:1", PushTimeout: time.Second, ProbeTimeout: time.Second},
		jwtConfig(), enums.SubscriptionTierPlus,
	)
	require.NoError(t, err)

	err = remote.Probe(context.Background())
	require.Equal(t, pkgerrors.CodeOffline, pkgerrors.CodeOf(err))
}
