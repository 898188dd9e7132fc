package tables

import "lampview/internal/domain"

// Descriptor is one entry of the difficulty-table list: where a table's song
// list lives and how its levels are labeled.
type Descriptor struct {
	TableFullName    string   `json:"tableFullName"`
	InternalFileName string   `json:"internalFileName"`
	ShortName        string   `json:"shortName"`
	URL              string   `json:"url"`
	Levels           []string `json:"levels,omitempty"`
	SkipMerge        bool     `json:"skipMerge,omitempty"`
}

// RawTable is one fetched difficulty table: its short level prefix and the
// charts it lists.
type RawTable struct {
	ShortName string             `json:"shortName"`
	Songs     []domain.TableSong `json:"songs"`
}

// MergedTables is the unified song set across every fetched table, keyed by
// md5 where available and sha256 otherwise.
type MergedTables struct {
	LastUpdate string             `json:"Last Update"`
	Tables     []string           `json:"tables"`
	Songs      []domain.TableSong `json:"songs"`
}
