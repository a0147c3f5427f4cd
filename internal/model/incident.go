package model

import (
	"strings"
	"time"
)

type IncidentStatus string

const (
	IncidentPending    IncidentStatus = "pending"
	IncidentInProgress IncidentStatus = "in_progress"
	IncidentResolved   IncidentStatus = "resolved"
)

// ParseIncidentStatus normalizes s and accepts the labels used by the
// bundled frontend (pendiente, en_progreso, resuelto).
func ParseIncidentStatus(s string) (IncidentStatus, bool) {
	switch normalizeLabel(s) {
	case "pending", "pendiente":
		return IncidentPending, true
	case "in_progress", "en_progreso", "en_proceso":
		return IncidentInProgress, true
	case "resolved", "resuelto", "resuelta":
		return IncidentResolved, true
	}
	return "", false
}

// Incident is a problem reported against a plant. ResolvedAt is set only
// while Status is resolved.
type Incident struct {
	ID           uint64         `db:"id" json:"id"`
	PlantID      uint64         `db:"plant_id" json:"plant_id"`
	UserID       uint64         `db:"user_id" json:"user_id"`
	Title        string         `db:"title" json:"title"`
	Description  string         `db:"description" json:"description"`
	Status       IncidentStatus `db:"status" json:"status"`
	ReportedAt   time.Time      `db:"reported_at" json:"reported_at"`
	ResolvedAt   *time.Time     `db:"resolved_at" json:"resolved_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
	PlantName    string         `db:"plant_name" json:"plant_name"`
	ReporterName string         `db:"reporter_name" json:"reporter_name"`
}

type IncidentPatch struct {
	Title       *string
	Description *string
	Status      *IncidentStatus
}

func (p IncidentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// normalizeLabel lower-cases s and folds spaces and dashes to underscores
// so "In Progress", "in-progress" and "in_progress" compare equal.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
