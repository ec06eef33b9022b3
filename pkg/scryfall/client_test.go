package scryfall_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/palantir/card-catalog-pipeline/pkg/mockscryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/pipeline/core"
	"github.com/palantir/card-catalog-pipeline/pkg/scryfall"
	"github.com/palantir/card-catalog-pipeline/pkg/table"
)

const cardsJSON = `[
  {"object":"card","name":"Opt","rarity":"common","legalities":{"standard":"legal","modern":"legal"},"prices":{"usd":"0.10","eur":"12.50","tix":null}},
  {"object":"card","name":"Oko","rarity":"rare","cmc":3,"legalities":{"standard":"banned","modern":"banned"},"prices":{"usd":null,"eur":"3.00","tix":"0.02"}}
]`

func newClient(t *testing.T, ts *httptest.Server, cfg scryfall.Config) *scryfall.Client {
	t.Helper()
	cfg.BaseURL = ts.URL
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = -1
	}
	c, err := scryfall.New(cfg, scryfall.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c
}

func TestFetchCatalog(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(cardsJSON))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := newClient(t, ts, scryfall.Config{BulkType: scryfall.BulkOracleCards})
	tbl, err := c.FetchCatalog(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"object", "name", "rarity", "legalities", "prices", "cmc"}, tbl.Columns())
	require.Equal(t, 2, tbl.Len())

	cmc, err := tbl.Column("cmc")
	require.NoError(t, err)
	require.True(t, cmc.At(0).IsNull())

	prices, err := tbl.Value(0, "prices")
	require.NoError(t, err)
	require.Equal(t, []string{"usd", "eur", "tix"}, prices.Keys())
	eur, _ := prices.Get("eur")
	d, ok := eur.Dec()
	require.True(t, ok)
	require.True(t, d.Equal(decimal.RequireFromString("12.5")))
	tix, _ := prices.Get("tix")
	require.True(t, tix.IsNull())

	calls := srv.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, "/bulk-data", calls[0].Path)
	require.Equal(t, "/files/oracle_cards.json", calls[2].Path)
	for _, call := range calls {
		require.True(t, strings.HasPrefix(call.UserAgent, "card-catalog-pipeline/"), call.UserAgent)
	}
}

func TestFetchCatalogSelectsBulkType(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(`[{"name":"oracle"}]`))
	srv.AddDataset(scryfall.BulkDefaultCards, []byte(`[{"name":"default"}]`))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	tests := []struct {
		bulkType string
		want     string
	}{
		{bulkType: scryfall.BulkDefaultCards, want: "default"},
		{bulkType: scryfall.BulkOracleCards, want: "oracle"},
		{bulkType: "", want: "oracle"},
	}
	for _, tt := range tests {
		c := newClient(t, ts, scryfall.Config{BulkType: tt.bulkType})
		tbl, err := c.FetchCatalog(context.Background())
		require.NoError(t, err)
		v, err := tbl.Value(0, "name")
		require.NoError(t, err)
		require.True(t, v.Equal(table.String(tt.want)), "bulk type %q", tt.bulkType)
	}
}

func TestFetchCatalogFirstListedDataset(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(`[{"name":"oracle"}]`))
	srv.AddDataset(scryfall.BulkDefaultCards, []byte(`[{"name":"default"}]`))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	srv.SetListing([]byte(`{"object":"list","data":[
		{"type":"default_cards","download_uri":"` + ts.URL + `/files/default_cards.json"},
		{"type":"oracle_cards","download_uri":"` + ts.URL + `/files/oracle_cards.json"}
	]}`))

	for _, bulkType := range []string{scryfall.BulkFirst, ""} {
		c := newClient(t, ts, scryfall.Config{BulkType: bulkType})
		tbl, err := c.FetchCatalog(context.Background())
		require.NoError(t, err)
		v, err := tbl.Value(0, "name")
		require.NoError(t, err)
		require.True(t, v.Equal(table.String("default")), "bulk type %q", bulkType)
	}
}

func TestFetchCatalogFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(*mockscryfall.Server)
		bulkType string
		kind     scryfall.ErrorKind
		status   int
	}{
		{
			name: "listing unavailable",
			setup: func(s *mockscryfall.Server) {
				s.FailNext("/bulk-data", mockscryfall.Failure{Status: http.StatusServiceUnavailable, Body: "maintenance"})
			},
			kind:   scryfall.KindStatus,
			status: http.StatusServiceUnavailable,
		},
		{
			name: "malformed listing",
			setup: func(s *mockscryfall.Server) {
				s.SetListing([]byte(`{"object":"list","data":`))
			},
			kind: scryfall.KindMetadata,
		},
		{
			name: "listing without data",
			setup: func(s *mockscryfall.Server) {
				s.SetListing([]byte(`{"object":"list"}`))
			},
			kind: scryfall.KindMetadata,
		},
		{
			name: "empty listing",
			setup: func(s *mockscryfall.Server) {
				s.SetListing([]byte(`{"object":"list","data":[]}`))
			},
			kind: scryfall.KindMetadata,
		},
		{
			name:     "unknown bulk type",
			setup:    func(*mockscryfall.Server) {},
			bulkType: scryfall.BulkRulings,
			kind:     scryfall.KindMetadata,
		},
		{
			name: "download not found",
			setup: func(s *mockscryfall.Server) {
				s.FailNext("/files/oracle_cards.json", mockscryfall.Failure{
					Status: http.StatusNotFound,
					Body:   `{"object":"error","code":"not_found","status":404,"details":"gone"}`,
				})
			},
			kind:   scryfall.KindStatus,
			status: http.StatusNotFound,
		},
		{
			name: "payload not an array",
			setup: func(s *mockscryfall.Server) {
				s.AddDataset(scryfall.BulkOracleCards, []byte(`{"object":"card"}`))
			},
			kind: scryfall.KindPayload,
		},
		{
			name: "truncated payload",
			setup: func(s *mockscryfall.Server) {
				s.AddDataset(scryfall.BulkOracleCards, []byte(`[{"name":"Opt"},`))
			},
			kind: scryfall.KindPayload,
		},
		{
			name: "bad price",
			setup: func(s *mockscryfall.Server) {
				s.AddDataset(scryfall.BulkOracleCards, []byte(`[{"prices":{"eur":"n/a"}}]`))
			},
			kind: scryfall.KindPayload,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := mockscryfall.New([]byte(cardsJSON))
			tt.setup(srv)
			ts := httptest.NewServer(srv.Handler())
			defer ts.Close()

			bulkType := tt.bulkType
			if bulkType == "" {
				bulkType = scryfall.BulkOracleCards
			}
			c := newClient(t, ts, scryfall.Config{BulkType: bulkType})
			_, err := c.FetchCatalog(context.Background())
			require.Error(t, err)

			var fe *scryfall.FetchError
			require.True(t, errors.As(err, &fe), "got %T: %v", err, err)
			require.Equal(t, tt.kind, fe.Kind, err.Error())

			if tt.status != 0 {
				var he *scryfall.HTTPError
				require.True(t, errors.As(err, &he))
				require.Equal(t, tt.status, he.StatusCode)
			}
		})
	}
}

func TestHTTPErrorParsesEnvelope(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(cardsJSON))
	srv.FailNext("/bulk-data", mockscryfall.Failure{
		Status: http.StatusBadRequest,
		Body:   `{"object":"error","code":"bad_request","status":400,"details":"nope"}`,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, err := newClient(t, ts, scryfall.Config{}).BulkData(context.Background())
	var he *scryfall.HTTPError
	require.True(t, errors.As(err, &he))
	require.Equal(t, "bad_request", he.Code)
	require.Equal(t, "nope", he.Details)
	require.Empty(t, he.Snippet)
}

func TestTransientStatusIsRetriedWithinBudget(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(cardsJSON))
	srv.FailNext("/bulk-data", mockscryfall.Failure{Status: http.StatusTooManyRequests, Body: "slow down"})
	srv.FailNext("/bulk-data", mockscryfall.Failure{Status: http.StatusBadGateway, Body: "bad gateway"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	// Default budget: a single attempt, the 429 surfaces as transient.
	_, err := newClient(t, ts, scryfall.Config{}).FetchCatalog(context.Background())
	var te *core.TransientError
	require.True(t, errors.As(err, &te))

	// One failure left in the queue; one retry absorbs it.
	tbl, err := newClient(t, ts, scryfall.Config{MaxRetries: 2}).FetchCatalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
}

func TestClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(cardsJSON))
	srv.FailNext("/bulk-data", mockscryfall.Failure{Status: http.StatusNotFound, Body: "missing"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	_, err := newClient(t, ts, scryfall.Config{MaxRetries: 3}).FetchCatalog(context.Background())
	require.Error(t, err)
	require.Len(t, srv.Calls(), 1)
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	c := newClient(t, ts, scryfall.Config{Timeout: time.Second})
	ts.Close()

	_, err := c.FetchCatalog(context.Background())
	var fe *scryfall.FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, scryfall.KindTransport, fe.Kind)
}

func TestSourceLoadsCatalog(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(mockscryfall.New([]byte(cardsJSON)).Handler())
	defer ts.Close()

	var src core.Source = scryfall.Source{Client: newClient(t, ts, scryfall.Config{})}
	tbl, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := scryfall.New(scryfall.Config{BaseURL: "http://"})
	require.Error(t, err)
}
