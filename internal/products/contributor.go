package products

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
)

// Contribution is an unrecognized product submitted to the moderation queue.
type Contribution struct {
	Barcode  string  `json:"barcode"`
	Name     string  `json:"name"`
	Brand    *string `json:"brand,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Contributor submits unrecognized products for review. Submissions are
// fire-and-forget: a failure must never block the shopping pipeline.
type Contributor interface {
	Contribute(ctx context.Context, c Contribution)
}

// HTTPContributor posts contributions to the moderation endpoint.
type HTTPContributor struct {
	url  string
	user string
	http *http.Client
	logg *logger.Logger
}

// NewHTTPContributor returns nil when no contribute URL is configured,
// which disables submissions entirely.
func NewHTTPContributor(cfg config.LookupConfig, logg *logger.Logger) *HTTPContributor {
	if strings.TrimSpace(cfg.ContributeURL) == "" {
		return nil
	}
	return &HTTPContributor{
		url:  cfg.ContributeURL,
		user: cfg.ContributeUser,
		http: &http.Client{Timeout: cfg.Timeout},
		logg: logg,
	}
}

// Contribute posts the product to the pending-review queue. Errors are
// logged and swallowed.
func (h *HTTPContributor) Contribute(ctx context.Context, c Contribution) {
	if h == nil {
		return
	}
	body, err := json.Marshal(c)
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if h.user != "" {
		req.Header.Set("X-Contributor", h.user)
	}
	resp, err := h.http.Do(req)
	if err != nil {
		h.warn(ctx, fmt.Sprintf("product contribution failed: %v", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		h.warn(ctx, fmt.Sprintf("product contribution rejected with status %d", resp.StatusCode))
	}
}

func (h *HTTPContributor) warn(ctx context.Context, msg string) {
	if h.logg != nil {
		h.logg.Warn(ctx, msg)
	}
}

var _ Contributor = (*HTTPContributor)(nil)
