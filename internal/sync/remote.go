package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marisol-apps/pantrylog-backend/pkg/auth"
	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/enums"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
)

// Record is one dirty row keyed by entity type for the remote batch write.
type Record struct {
	Entity string          `json:"entity"`
	ID     uuid.UUID       `json:"id"`
	Data   json.RawMessage `json:"data"`
}

// PushResult reports per-record success and failure. The remote is not
// transactional across entity types.
type PushResult struct {
	Succeeded []uuid.UUID
	Failed    map[uuid.UUID]string
}

// RemoteStore is the cloud persistence collaborator.
type RemoteStore interface {
	// Probe is a cheap connectivity check run before any batch work.
	Probe(ctx context.Context) error
	// Push writes one batch of dirty records and reports per-record status.
	Push(ctx context.Context, userID string, records []Record) (*PushResult, error)
}

// HTTPRemote talks to the cloud sync endpoint, authenticating each request
// with a short-lived device JWT.
type HTTPRemote struct {
	baseURL string
	jwtCfg  config.JWTConfig
	tier    enums.SubscriptionTier
	http    *http.Client
}

func NewHTTPRemote(syncCfg config.SyncConfig, jwtCfg config.JWTConfig, tier enums.SubscriptionTier) (*HTTPRemote, error) {
	if strings.TrimSpace(syncCfg.RemoteURL) == "" {
		return nil, fmt.Errorf("sync remote URL is required")
	}
	return &HTTPRemote{
		baseURL: strings.TrimRight(syncCfg.RemoteURL, "/"),
		jwtCfg:  jwtCfg,
		tier:    tier,
		http:    &http.Client{Timeout: syncCfg.PushTimeout},
	}, nil
}

// Probe hits the remote health endpoint. Any transport failure maps to an
// offline error so the engine can report without retrying.
func (r *HTTPRemote) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return mapTransportErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeOffline,
			fmt.Sprintf("sync remote unhealthy, status %d", resp.StatusCode))
	}
	return nil
}

type pushRequest struct {
	Records []Record `json:"records"`
}

type pushResponse struct {
	Results []struct {
		ID    uuid.UUID `json:"id"`
		OK    bool      `json:"ok"`
		Error string    `json:"error,omitempty"`
	} `json:"results"`
}

// Push posts the batch with a bearer device token and decodes per-record
// results. Records the response does not mention are treated as failed.
func (r *HTTPRemote) Push(ctx context.Context, userID string, records []Record) (*PushResult, error) {
	token, err := auth.MintDeviceToken(r.jwtCfg, time.Now(), auth.DeviceTokenPayload{
		UserID: userID,
		Tier:   r.tier,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(pushRequest{Records: records})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/sync/push", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, mapTransportErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, pkgerrors.New(pkgerrors.CodePermission, "sync remote rejected device token")
	case resp.StatusCode != http.StatusOK:
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("sync remote returned status %d", resp.StatusCode))
	}

	var decoded pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding sync response")
	}

	result := &PushResult{Failed: map[uuid.UUID]string{}}
	mentioned := map[uuid.UUID]struct{}{}
	for _, rec := range decoded.Results {
		mentioned[rec.ID] = struct{}{}
		if rec.OK {
			result.Succeeded = append(result.Succeeded, rec.ID)
		} else {
			result.Failed[rec.ID] = rec.Error
		}
	}
	for _, rec := range records {
		if _, ok := mentioned[rec.ID]; !ok {
			result.Failed[rec.ID] = "not acknowledged by remote"
		}
	}
	return result, nil
}

func mapTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "sync remote timed out")
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "sync remote timed out")
	}
	return pkgerrors.Wrap(pkgerrors.CodeOffline, err, "sync remote unreachable")
}

var _ RemoteStore = (*HTTPRemote)(nil)
