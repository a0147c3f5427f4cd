package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const plantSelect = `SELECT p.id, p.name, p.location, p.client_id,
	COALESCE(u.name, '') AS client_name, p.created_at, p.updated_at
	FROM plants p LEFT JOIN users u ON u.id = p.client_id`

// PlantRepo encapsulates all queries on plants.
type PlantRepo struct{ db *sqlx.DB }

func NewPlantRepo(db *sqlx.DB) *PlantRepo { return &PlantRepo{db: db} }

// Create inserts p after checking that its client exists, then re-reads
// the row so the caller receives the joined client name.
func (r *PlantRepo) Create(ctx context.Context, p *model.Plant) error {
	ok, err := exists(ctx, r.db, "users", p.ClientID)
	if err != nil {
		return fmt.Errorf("error creating plant: %w", err)
	}
	if !ok {
		return fmt.Errorf("error creating plant: client: %w", ErrInvalidReference)
	}
	ts := now()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO plants (name, location, client_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Location, p.ClientID, ts, ts)
	if err != nil {
		return fmt.Errorf("error creating plant: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error creating plant: %w", err)
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

func (r *PlantRepo) GetByID(ctx context.Context, id uint64) (*model.Plant, error) {
	var p model.Plant
	if err := r.db.GetContext(ctx, &p, plantSelect+" WHERE p.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("error fetching plant: %w", err)
	}
	return &p, nil
}

// List returns one page of plants, newest first.
func (r *PlantRepo) List(ctx context.Context, page model.Page) ([]model.Plant, error) {
	out := []model.Plant{}
	err := r.db.SelectContext(ctx, &out,
		plantSelect+" ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?", pageArgs(page)...)
	if err != nil {
		return nil, fmt.Errorf("error listing plants: %w", err)
	}
	return out, nil
}

func (r *PlantRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.Plant, error) {
	out := []model.Plant{}
	err := r.db.SelectContext(ctx, &out,
		plantSelect+" WHERE p.client_id = ? ORDER BY p.created_at DESC, p.id DESC", clientID)
	if err != nil {
		return nil, fmt.Errorf("error listing plants by client: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of patch. An empty patch yields
// ErrNoFieldsToUpdate.
func (r *PlantRepo) Update(ctx context.Context, id uint64, patch model.PlantPatch) (*model.Plant, error) {
	if patch.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	var set setList
	if patch.Name != nil {
		set.add("name = ?", *patch.Name)
	}
	if patch.Location != nil {
		set.add("location = ?", *patch.Location)
	}
	if patch.ClientID != nil {
		ok, err := exists(ctx, r.db, "users", *patch.ClientID)
		if err != nil {
			return nil, fmt.Errorf("error updating plant: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("error updating plant: client: %w", ErrInvalidReference)
		}
		set.add("client_id = ?", *patch.ClientID)
	}
	set.add("updated_at = ?", now())

	res, err := r.db.ExecContext(ctx, "UPDATE plants SET "+set.String()+" WHERE id = ?", append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("error updating plant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPlantNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a plant together with its incidents, maintenance jobs,
// their checklist items and its reports. It reports whether the plant
// existed.
func (r *PlantRepo) Delete(ctx context.Context, id uint64) (deleted bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("error deleting plant: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cascade := []string{
		"DELETE FROM maintenance_checklist WHERE maintenance_id IN (SELECT id FROM maintenance WHERE plant_id = ?)",
		"DELETE FROM maintenance WHERE plant_id = ?",
		"DELETE FROM incidents WHERE plant_id = ?",
		"DELETE FROM reports WHERE plant_id = ?",
	}
	for _, q := range cascade {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			return false, fmt.Errorf("error deleting plant: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM plants WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("error deleting plant: %w", err)
	}
	n, _ := res.RowsAffected()
	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("error deleting plant: %w", err)
	}
	return n > 0, nil
}

func (r *PlantRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM plants"); err != nil {
		return 0, fmt.Errorf("error counting plants: %w", err)
	}
	return n, nil
}
