package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
	"github.com/marisol-apps/pantrylog-backend/pkg/logger"
	"github.com/marisol-apps/pantrylog-backend/pkg/redis"
)

// Result is the outcome of a barcode lookup. Found=false means the catalog
// does not know the barcode; the caller creates the item anyway and flags it
// for review.
type Result struct {
	Found       bool    `json:"found"`
	Source      string  `json:"source"`
	ProductName *string `json:"productName,omitempty"`
	Brands      *string `json:"brands,omitempty"`
	Categories  *string `json:"categories,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

const (
	sourceOpenFoodFacts = "openfoodfacts"
	sourceCache         = "cache"
)

// Lookup resolves barcodes against the Open Food Facts catalog, with a redis
// cache in front so repeat scans of the same product stay off the network.
type Lookup struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	logg    *logger.Logger
}

// NewLookup builds the lookup collaborator. The cache is optional.
func NewLookup(cfg config.LookupConfig, cache *redis.Client, logg *logger.Logger) *Lookup {
	return &Lookup{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		logg:    logg,
	}
}

type offPayload struct {
	Status  int `json:"status"`
	Product struct {
		ProductName string `json:"product_name"`
		Brands      string `json:"brands"`
		Categories  string `json:"categories"`
		ImageURL    string `json:"image_url"`
	} `json:"product"`
}

// ByBarcode resolves a barcode. An unknown barcode is a successful lookup
// with Found=false, never an error; only transport failures error out.
func (l *Lookup) ByBarcode(ctx context.Context, barcode string) (Result, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "barcode required")
	}

	if cached, ok := l.fromCache(ctx, barcode); ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/api/v2/product/%s.json", l.baseURL, barcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "product lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		result := Result{Found: false, Source: sourceOpenFoodFacts}
		l.toCache(ctx, barcode, result)
		return result, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("product lookup returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading lookup response")
	}

	var payload offPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding lookup response")
	}

	result := Result{Source: sourceOpenFoodFacts}
	if payload.Status == 1 && payload.Product.ProductName != "" {
		result.Found = true
		result.ProductName = optional(payload.Product.ProductName)
		result.Brands = optional(payload.Product.Brands)
		result.Categories = optional(payload.Product.Categories)
		result.ImageURL = optional(payload.Product.ImageURL)
	}
	l.toCache(ctx, barcode, result)
	return result, nil
}

func (l *Lookup) fromCache(ctx context.Context, barcode string) (Result, bool) {
	if l.cache == nil {
		return Result{}, false
	}
	raw, err := l.cache.Get(ctx, l.cache.LookupKey(barcode))
	if err != nil {
		if !errors.Is(err, redis.Nil) && l.logg != nil {
			l.logg.Warn(ctx, "lookup cache read failed")
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, false
	}
	result.Source = sourceCache
	return result, true
}

func (l *Lookup) toCache(ctx context.Context, barcode string, result Result) {
	if l.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := l.cache.Set(ctx, l.cache.LookupKey(barcode), string(raw), 0); err != nil && l.logg != nil {
		l.logg.Warn(ctx, "lookup cache write failed")
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
