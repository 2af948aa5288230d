package products

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marisol-apps/pantrylog-backend/pkg/config"
	pkgerrors "github.com/marisol-apps/pantrylog-backend/pkg/errors"
)

func lookupAgainst(t *testing.T, handler http.HandlerFunc) *Lookup {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLookup(config.LookupConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil, nil)
}

func TestByBarcodeFound(t *testing.T) {
	lookup := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/product/4006381333931.json", r.URL.Path)
		w.Write([]byte(`{"status":1,"product":{"product_name":"Oat Milk","brands":"Oately","image_url":"https://img.example/1.jpg"}}`))
	})

	result, err := lookup.ByBarcode(context.Background(), "4006381333931")
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "Oat Milk", *result.ProductName)
	require.Equal(t, "Oately", *result.Brands)
	require.Nil(t, result.Categories)
}

func TestByBarcodeUnknownIsNotAnError(t *testing.T) {
	lookup := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	result, err := lookup.ByBarcode(context.Background(), "0000000000000")
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestByBarcodeStatusZeroIsNotFound(t *testing.T) {
	lookup := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"product":{}}`))
	})

	result, err := lookup.ByBarcode(context.Background(), "4006381333931")
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestByBarcodeServerErrorIsDependencyFailure(t *testing.T) {
	lookup := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := lookup.ByBarcode(context.Background(), "4006381333931")
	require.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestByBarcodeRejectsBlank(t *testing.T) {
	lookup := lookupAgainst(t, func(w http.ResponseWriter, r *http.Request) {})
	_, err := lookup.ByBarcode(context.Background(), " ")
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
