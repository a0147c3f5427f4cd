package model

import "time"

// Plant is a maintained facility owned by a client account.
type Plant struct {
	ID         uint64    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Location   string    `db:"location" json:"location"`
	ClientID   uint64    `db:"client_id" json:"client_id"`
	ClientName string    `db:"client_name" json:"client_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PlantPatch lists the plant columns a caller may change. Nil fields are
// left untouched.
type PlantPatch struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	ClientID *uint64 `json:"client_id"`
}

// Empty reports whether the patch changes nothing.
func (p PlantPatch) Empty() bool {
	return p.Name == nil && p.Location == nil && p.ClientID == nil
}
