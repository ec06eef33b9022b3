package mockscryfall_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/palantir/card-catalog-pipeline/pkg/mockscryfall"
)

func TestListingPointsAtRedirectingDownload(t *testing.T) {
	t.Parallel()

	cards := []byte(`[{"name":"Opt"}]`)
	srv := mockscryfall.New(cards)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/bulk-data")
	if err != nil {
		t.Fatalf("get listing: %v", err)
	}
	defer res.Body.Close()

	var listing struct {
		Data []struct {
			Type        string `json:"type"`
			DownloadURI string `json:"download_uri"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Data) != 1 || listing.Data[0].Type != "oracle_cards" {
		t.Fatalf("unexpected listing: %#v", listing)
	}

	dl, err := http.Get(listing.Data[0].DownloadURI)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	got, _ := io.ReadAll(dl.Body)
	if string(got) != string(cards) {
		t.Fatalf("download body=%q want=%q", got, cards)
	}

	calls := srv.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected listing, redirect and file calls, got %#v", calls)
	}
	if calls[2].Path != "/files/oracle_cards.json" {
		t.Fatalf("unexpected final path: %q", calls[2].Path)
	}
}

func TestFailNextIsServedOnce(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(`[]`))
	srv.FailNext("/bulk-data", mockscryfall.Failure{Status: http.StatusServiceUnavailable, Body: "down"})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for i, want := range []int{http.StatusServiceUnavailable, http.StatusOK} {
		res, err := http.Get(ts.URL + "/bulk-data")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = res.Body.Close()
		if res.StatusCode != want {
			t.Fatalf("request %d: status=%d want=%d", i, res.StatusCode, want)
		}
	}
}

func TestUnknownDatasetIsNotFound(t *testing.T) {
	t.Parallel()

	srv := mockscryfall.New([]byte(`[]`))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL + "/bulk-data/rulings/download")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want=404", res.StatusCode)
	}
}
