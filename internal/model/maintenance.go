package model

import "time"

type MaintenanceType string

const (
	MaintenancePreventive MaintenanceType = "preventive"
	MaintenanceCorrective MaintenanceType = "corrective"
)

func ParseMaintenanceType(s string) (MaintenanceType, bool) {
	switch normalizeLabel(s) {
	case "preventive", "preventivo":
		return MaintenancePreventive, true
	case "corrective", "correctivo":
		return MaintenanceCorrective, true
	}
	return "", false
}

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
)

func ParseMaintenanceStatus(s string) (MaintenanceStatus, bool) {
	switch normalizeLabel(s) {
	case "pending", "pendiente":
		return MaintenancePending, true
	case "in_progress", "en_progreso", "en_proceso":
		return MaintenanceInProgress, true
	case "completed", "completado", "completada":
		return MaintenanceCompleted, true
	}
	return "", false
}

// Maintenance is a scheduled job on a plant assigned to one user.
// CompletedAt is set only while Status is completed.
type Maintenance struct {
	ID             uint64            `db:"id" json:"id"`
	PlantID        uint64            `db:"plant_id" json:"plant_id"`
	UserID         uint64            `db:"user_id" json:"user_id"`
	Type           MaintenanceType   `db:"type" json:"type"`
	Description    string            `db:"description" json:"description"`
	ScheduledAt    time.Time         `db:"scheduled_at" json:"scheduled_at"`
	CompletedAt    *time.Time        `db:"completed_at" json:"completed_at"`
	Status         MaintenanceStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
	PlantName      string            `db:"plant_name" json:"plant_name"`
	TechnicianName string            `db:"technician_name" json:"technician_name"`
	Checklist      []ChecklistItem   `db:"-" json:"checklist,omitempty"`
}

type MaintenancePatch struct {
	Description *string
	ScheduledAt *time.Time
	Status      *MaintenanceStatus
	UserID      *uint64
}

func (p MaintenancePatch) Empty() bool {
	return p.Description == nil && p.ScheduledAt == nil && p.Status == nil && p.UserID == nil
}

// ChecklistItem is one toggleable task of a maintenance job. Position keeps
// the insertion order.
type ChecklistItem struct {
	ID            uint64    `db:"id" json:"id"`
	MaintenanceID uint64    `db:"maintenance_id" json:"maintenance_id"`
	Position      int       `db:"position" json:"position"`
	Label         string    `db:"label" json:"label"`
	Completed     bool      `db:"completed" json:"completed"`
	Notes         *string   `db:"notes" json:"notes"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type ChecklistPatch struct {
	Completed *bool   `json:"completed"`
	Notes     *string `json:"notes"`
}

func (p ChecklistPatch) Empty() bool { return p.Completed == nil && p.Notes == nil }
