package model

// Dashboard aggregates counts across the store. Status and role maps
// always contain every known key, zero when absent.
type Dashboard struct {
	Plants      int64            `json:"plants"`
	Reports     int64            `json:"reports"`
	Incidents   map[string]int64 `json:"incidents"`
	Maintenance map[string]int64 `json:"maintenance"`
	Users       map[string]int64 `json:"users"`
}
