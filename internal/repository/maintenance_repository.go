package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const maintenanceSelect = `SELECT m.id, m.plant_id, m.user_id, m.type, m.description, m.scheduled_at,
	m.completed_at, m.status, m.created_at, m.updated_at,
	COALESCE(p.name, '') AS plant_name, COALESCE(u.name, '') AS technician_name
	FROM maintenance m
	LEFT JOIN plants p ON p.id = m.plant_id
	LEFT JOIN users u ON u.id = m.user_id`

const maintenanceOrder = " ORDER BY m.scheduled_at DESC, m.id DESC"

// completedStamp mirrors resolvedStamp for maintenance jobs.
const completedStamp = "completed_at = CASE WHEN ? = ? THEN COALESCE(completed_at, ?) ELSE NULL END"

// MaintenanceRepo handles maintenance jobs and their checklist items.
type MaintenanceRepo struct{ db *sqlx.DB }

func NewMaintenanceRepo(db *sqlx.DB) *MaintenanceRepo { return &MaintenanceRepo{db: db} }

// Create inserts m with its initial checklist labels in one transaction.
func (r *MaintenanceRepo) Create(ctx context.Context, m *model.Maintenance, checklist []string) (err error) {
	if err := r.checkRefs(ctx, m.PlantID, m.UserID); err != nil {
		return fmt.Errorf("error creating maintenance: %w", err)
	}
	if m.Type == "" {
		m.Type = model.MaintenancePreventive
	}
	if m.Status == "" {
		m.Status = model.MaintenancePending
	}
	ts := now()
	var completedAt *time.Time
	if m.Status == model.MaintenanceCompleted {
		completedAt = &ts
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error creating maintenance: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO maintenance (plant_id, user_id, type, description, scheduled_at, completed_at, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.PlantID, m.UserID, m.Type, m.Description, m.ScheduledAt.UTC(), completedAt, m.Status, ts, ts)
	if err != nil {
		return fmt.Errorf("error creating maintenance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error creating maintenance: %w", err)
	}
	for i, label := range checklist {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO maintenance_checklist (maintenance_id, position, label, completed, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, i+1, label, false, ts, ts)
		if err != nil {
			return fmt.Errorf("error creating checklist item: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error creating maintenance: %w", err)
	}

	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

func (r *MaintenanceRepo) checkRefs(ctx context.Context, plantID, userID uint64) error {
	ok, err := exists(ctx, r.db, "plants", plantID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("plant: %w", ErrInvalidReference)
	}
	if ok, err = exists(ctx, r.db, "users", userID); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("technician: %w", ErrInvalidReference)
	}
	return nil
}

// GetByID returns the job with its checklist attached.
func (r *MaintenanceRepo) GetByID(ctx context.Context, id uint64) (*model.Maintenance, error) {
	var m model.Maintenance
	if err := r.db.GetContext(ctx, &m, maintenanceSelect+" WHERE m.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMaintenanceNotFound
		}
		return nil, fmt.Errorf("error fetching maintenance: %w", err)
	}
	items, err := r.Checklist(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Checklist = items
	return &m, nil
}

func (r *MaintenanceRepo) List(ctx context.Context, page model.Page) ([]model.Maintenance, error) {
	return r.list(ctx, "error listing maintenance", maintenanceOrder+" LIMIT ? OFFSET ?", pageArgs(page)...)
}

func (r *MaintenanceRepo) ListByPlant(ctx context.Context, plantID uint64) ([]model.Maintenance, error) {
	return r.list(ctx, "error listing maintenance by plant", " WHERE m.plant_id = ?"+maintenanceOrder, plantID)
}

func (r *MaintenanceRepo) ListByTechnician(ctx context.Context, userID uint64) ([]model.Maintenance, error) {
	return r.list(ctx, "error listing maintenance by technician", " WHERE m.user_id = ?"+maintenanceOrder, userID)
}

func (r *MaintenanceRepo) list(ctx context.Context, prefix, tail string, args ...any) ([]model.Maintenance, error) {
	out := []model.Maintenance{}
	if err := r.db.SelectContext(ctx, &out, maintenanceSelect+tail, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	return out, nil
}

func (r *MaintenanceRepo) Update(ctx context.Context, id uint64, patch model.MaintenancePatch) (*model.Maintenance, error) {
	if patch.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	ts := now()
	var set setList
	if patch.Description != nil {
		set.add("description = ?", *patch.Description)
	}
	if patch.ScheduledAt != nil {
		set.add("scheduled_at = ?", patch.ScheduledAt.UTC())
	}
	if patch.UserID != nil {
		ok, err := exists(ctx, r.db, "users", *patch.UserID)
		if err != nil {
			return nil, fmt.Errorf("error updating maintenance: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("error updating maintenance: technician: %w", ErrInvalidReference)
		}
		set.add("user_id = ?", *patch.UserID)
	}
	if patch.Status != nil {
		set.add("status = ?", *patch.Status)
		set.add(completedStamp, *patch.Status, model.MaintenanceCompleted, ts)
	}
	set.add("updated_at = ?", ts)
	return r.apply(ctx, id, "error updating maintenance", set)
}

// SetStatus moves a job to status with the same set-once stamping rule
// incidents use for resolution.
func (r *MaintenanceRepo) SetStatus(ctx context.Context, id uint64, status model.MaintenanceStatus) (*model.Maintenance, error) {
	ts := now()
	var set setList
	set.add("status = ?", status)
	set.add(completedStamp, status, model.MaintenanceCompleted, ts)
	set.add("updated_at = ?", ts)
	return r.apply(ctx, id, "error changing maintenance status", set)
}

func (r *MaintenanceRepo) apply(ctx context.Context, id uint64, prefix string, set setList) (*model.Maintenance, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE maintenance SET "+set.String()+" WHERE id = ?", append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrMaintenanceNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the job and its checklist.
func (r *MaintenanceRepo) Delete(ctx context.Context, id uint64) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error deleting maintenance: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, "DELETE FROM maintenance_checklist WHERE maintenance_id = ?", id); err != nil {
		return false, fmt.Errorf("error deleting maintenance: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM maintenance WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("error deleting maintenance: %w", err)
	}
	n, _ := res.RowsAffected()
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("error deleting maintenance: %w", err)
	}
	return n > 0, nil
}

func (r *MaintenanceRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	out, err := groupCounts(ctx, r.db,
		"SELECT status AS k, COUNT(*) AS n FROM maintenance GROUP BY status",
		string(model.MaintenancePending), string(model.MaintenanceInProgress), string(model.MaintenanceCompleted))
	if err != nil {
		return nil, fmt.Errorf("error counting maintenance: %w", err)
	}
	return out, nil
}
