package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const checklistColumns = "id, maintenance_id, position, label, completed, notes, created_at, updated_at"

// Checklist returns the items of a job in insertion order.
func (r *MaintenanceRepo) Checklist(ctx context.Context, maintenanceID uint64) ([]model.ChecklistItem, error) {
	out := []model.ChecklistItem{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+checklistColumns+" FROM maintenance_checklist WHERE maintenance_id = ? ORDER BY position, id",
		maintenanceID)
	if err != nil {
		return nil, fmt.Errorf("error fetching checklist: %w", err)
	}
	return out, nil
}

// AddChecklistItem appends an unchecked item to the end of a job's list.
func (r *MaintenanceRepo) AddChecklistItem(ctx context.Context, maintenanceID uint64, label string) (*model.ChecklistItem, error) {
	ok, err := exists(ctx, r.db, "maintenance", maintenanceID)
	if err != nil {
		return nil, fmt.Errorf("error adding checklist item: %w", err)
	}
	if !ok {
		return nil, ErrMaintenanceNotFound
	}
	var last int
	err = r.db.GetContext(ctx, &last,
		"SELECT COALESCE(MAX(position), 0) FROM maintenance_checklist WHERE maintenance_id = ?", maintenanceID)
	if err != nil {
		return nil, fmt.Errorf("error adding checklist item: %w", err)
	}
	ts := now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO maintenance_checklist (maintenance_id, position, label, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		maintenanceID, last+1, label, false, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("error adding checklist item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("error adding checklist item: %w", err)
	}
	return r.checklistItem(ctx, maintenanceID, uint64(id))
}

// UpdateChecklistItem toggles completion and/or sets the notes of an item.
// The item must belong to maintenanceID.
func (r *MaintenanceRepo) UpdateChecklistItem(ctx context.Context, maintenanceID, itemID uint64, patch model.ChecklistPatch) (*model.ChecklistItem, error) {
	if patch.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	var set setList
	if patch.Completed != nil {
		set.add("completed = ?", *patch.Completed)
	}
	if patch.Notes != nil {
		set.add("notes = ?", *patch.Notes)
	}
	set.add("updated_at = ?", now())

	res, err := r.db.ExecContext(ctx,
		"UPDATE maintenance_checklist SET "+set.String()+" WHERE id = ? AND maintenance_id = ?",
		append(set.args, itemID, maintenanceID)...)
	if err != nil {
		return nil, fmt.Errorf("error updating checklist item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrChecklistNotFound
	}
	return r.checklistItem(ctx, maintenanceID, itemID)
}

func (r *MaintenanceRepo) DeleteChecklistItem(ctx context.Context, maintenanceID, itemID uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM maintenance_checklist WHERE id = ? AND maintenance_id = ?", itemID, maintenanceID)
	if err != nil {
		return false, fmt.Errorf("error deleting checklist item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *MaintenanceRepo) checklistItem(ctx context.Context, maintenanceID, itemID uint64) (*model.ChecklistItem, error) {
	var it model.ChecklistItem
	err := r.db.GetContext(ctx, &it,
		"SELECT "+checklistColumns+" FROM maintenance_checklist WHERE id = ? AND maintenance_id = ?",
		itemID, maintenanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChecklistNotFound
		}
		return nil, fmt.Errorf("error fetching checklist item: %w", err)
	}
	return &it, nil
}
