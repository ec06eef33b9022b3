package scryfall

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Bulk dataset types published by Scryfall.
const (
	BulkOracleCards   = "oracle_cards"
	BulkUniqueArtwork = "unique_artwork"
	BulkDefaultCards  = "default_cards"
	BulkAllCards      = "all_cards"
	BulkRulings       = "rulings"

	// BulkFirst selects whichever dataset the listing puts first.
	BulkFirst = "first"

	DefaultBulkType = BulkOracleCards
	bulkDataPath    = "bulk-data"
)

// BulkData describes one downloadable dataset.
type BulkData struct {
	Object          string    `json:"object"`
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	UpdatedAt       time.Time `json:"updated_at"`
	URI             string    `json:"uri"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Size            int64     `json:"size"`
	DownloadURI     string    `json:"download_uri"`
	ContentType     string    `json:"content_type"`
	ContentEncoding string    `json:"content_encoding"`
}

// BulkList is the /bulk-data response.
type BulkList struct {
	Object  string     `json:"object"`
	HasMore bool       `json:"has_more"`
	Data    []BulkData `json:"data"`
}

func parseBulkList(b []byte) (BulkList, error) {
	var l BulkList
	if err := json.Unmarshal(b, &l); err != nil {
		return BulkList{}, fmt.Errorf("decode bulk-data listing: %w", err)
	}
	if l.Data == nil {
		return BulkList{}, fmt.Errorf("bulk-data listing has no data field")
	}
	return l, nil
}

// Select picks the dataset of the given type. An empty type or BulkFirst selects
// the first listed dataset.
func (l BulkList) Select(bulkType string) (BulkData, error) {
	if len(l.Data) == 0 {
		return BulkData{}, fmt.Errorf("bulk-data listing is empty")
	}
	bulkType = strings.TrimSpace(bulkType)
	var d BulkData
	if bulkType == "" || bulkType == BulkFirst {
		d = l.Data[0]
	} else {
		found := false
		for _, item := range l.Data {
			if item.Type == bulkType {
				d, found = item, true
				break
			}
		}
		if !found {
			return BulkData{}, fmt.Errorf("bulk-data listing has no %q dataset (have %s)", bulkType, strings.Join(l.types(), ", "))
		}
	}
	if strings.TrimSpace(d.DownloadURI) == "" {
		return BulkData{}, fmt.Errorf("dataset %q has no download_uri", d.Type)
	}
	return d, nil
}

func (l BulkList) types() []string {
	out := make([]string, 0, len(l.Data))
	for _, d := range l.Data {
		out = append(out, d.Type)
	}
	return out
}
