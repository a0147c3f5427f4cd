package model

import "time"

// Report records a generated document for a plant. The PDF itself is
// rendered on download.
type Report struct {
	ID            uint64    `db:"id" json:"id"`
	PlantID       uint64    `db:"plant_id" json:"plant_id"`
	UserID        uint64    `db:"user_id" json:"user_id"`
	Type          string    `db:"type" json:"type"`
	Description   string    `db:"description" json:"description"`
	Period        string    `db:"period" json:"period"`
	FilePath      string    `db:"file_path" json:"file_path"`
	GeneratedAt   time.Time `db:"generated_at" json:"generated_at"`
	PlantName     string    `db:"plant_name" json:"plant_name"`
	GeneratorName string    `db:"generator_name" json:"generator_name"`
}
