package features

import (
	"maps"
	"slices"
)

// Legality statuses used by the provider.
const (
	StatusLegal      = "legal"
	StatusNotLegal   = "not_legal"
	StatusBanned     = "banned"
	StatusRestricted = "restricted"
)

// Statuses lists every known legality status.
var Statuses = []string{StatusLegal, StatusNotLegal, StatusBanned, StatusRestricted}

// Vocabulary is the schema knowledge the toolbox works against. Callers that
// target a different upstream schema pass their own instead of editing the
// defaults.
type Vocabulary struct {
	// Formats are the legality columns produced by expanding the legalities map.
	Formats []string `yaml:"formats,omitempty"`
	// RarityRanks maps each rarity to its ordinal rank. Ties are allowed.
	RarityRanks map[string]int `yaml:"rarity_ranks,omitempty"`
	// NestedColumns are the map-valued columns ExpandNested flattens.
	NestedColumns []string `yaml:"nested_columns,omitempty"`
	// NoiseColumns are identifiers, URIs, free text and sparsely populated fields.
	NoiseColumns []string `yaml:"noise_columns,omitempty"`
	// PresentationColumns are print/presentation metadata. Disjoint from NoiseColumns
	// so both sets can be dropped strictly one after the other.
	PresentationColumns []string `yaml:"presentation_columns,omitempty"`
}

// DefaultVocabulary returns the vocabulary for the Scryfall card schema.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Formats: []string{
			"standard", "future", "pioneer", "modern", "legacy", "pauper", "vintage", "penny",
			"commander", "oathbreaker", "paupercommander", "duel", "oldschool", "premodern", "predh",
		},
		RarityRanks: map[string]int{
			"common":   1,
			"uncommon": 2,
			"rare":     3,
			"mythic":   4,
			"special":  5,
			"bonus":    5,
		},
		NestedColumns: []string{"legalities", "prices"},
		NoiseColumns: []string{
			// constant across the catalog
			"object", "lang", "attraction_lights",
			"games",
			// identifiers
			"id", "set_id", "mtgo_id", "oracle_id", "arena_id", "multiverse_ids", "tcgplayer_id",
			"cardmarket_id", "artist_ids", "illustration_id", "tcgplayer_etched_id", "mtgo_foil_id",
			// URIs
			"uri", "scryfall_uri", "image_status", "image_uris", "set_name", "set_uri", "set_search_uri",
			"scryfall_set_uri", "rulings_uri", "prints_search_uri", "related_uris", "purchase_uris",
			"card_back_id",
			// free text
			"oracle_text", "flavor_text",
			"preview", "highres_image", "all_parts",
			// fewer than a thousand populated rows
			"card_faces", "loyalty", "color_indicator", "life_modifier", "hand_modifier", "content_warning",
			"artist", "frame", "frame_effects", "border_color", "reserved", "promo", "oversized",
			"finishes", "nonfoil", "collector_number", "full_art", "textless", "story_spotlight", "digital",
			"reprint", "promo_types", "produced_mana", "defense",
			// prices other than eur
			"usd", "usd_foil", "usd_etched", "eur_foil", "tix",
			// arena-only formats
			"brawl", "historic", "standardbrawl", "alchemy", "gladiator", "timeless",
		},
		PresentationColumns: []string{
			"layout", "foil", "variation", "watermark", "security_stamp", "booster",
		},
	}
}

// IsFormat reports whether name is in the format vocabulary.
func (v Vocabulary) IsFormat(name string) bool {
	return slices.Contains(v.Formats, name)
}

// Merge returns v with every non-empty field of o taking precedence.
func (v Vocabulary) Merge(o Vocabulary) Vocabulary {
	out := v.clone()
	if len(o.Formats) > 0 {
		out.Formats = slices.Clone(o.Formats)
	}
	if len(o.RarityRanks) > 0 {
		out.RarityRanks = maps.Clone(o.RarityRanks)
	}
	if len(o.NestedColumns) > 0 {
		out.NestedColumns = slices.Clone(o.NestedColumns)
	}
	if len(o.NoiseColumns) > 0 {
		out.NoiseColumns = slices.Clone(o.NoiseColumns)
	}
	if len(o.PresentationColumns) > 0 {
		out.PresentationColumns = slices.Clone(o.PresentationColumns)
	}
	return out
}

func (v Vocabulary) clone() Vocabulary {
	return Vocabulary{
		Formats:             slices.Clone(v.Formats),
		RarityRanks:         maps.Clone(v.RarityRanks),
		NestedColumns:       slices.Clone(v.NestedColumns),
		NoiseColumns:        slices.Clone(v.NoiseColumns),
		PresentationColumns: slices.Clone(v.PresentationColumns),
	}
}
