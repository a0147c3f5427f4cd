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

const incidentSelect = `SELECT i.id, i.plant_id, i.user_id, i.title, i.description, i.status,
	i.reported_at, i.resolved_at, i.updated_at,
	COALESCE(p.name, '') AS plant_name, COALESCE(u.name, '') AS reporter_name
	FROM incidents i
	LEFT JOIN plants p ON p.id = i.plant_id
	LEFT JOIN users u ON u.id = i.user_id`

const incidentOrder = " ORDER BY i.reported_at DESC, i.id DESC"

// resolvedStamp keeps an existing resolution time when the incident is
// already resolved and clears it for any other status. Arguments: new
// status, terminal status, stamp.
const resolvedStamp = "resolved_at = CASE WHEN ? = ? THEN COALESCE(resolved_at, ?) ELSE NULL END"

type IncidentRepo struct{ db *sqlx.DB }

func NewIncidentRepo(db *sqlx.DB) *IncidentRepo { return &IncidentRepo{db: db} }

// Create inserts in, defaulting the status to pending, and re-reads it.
func (r *IncidentRepo) Create(ctx context.Context, in *model.Incident) error {
	ok, err := exists(ctx, r.db, "plants", in.PlantID)
	if err != nil {
		return fmt.Errorf("error creating incident: %w", err)
	}
	if !ok {
		return fmt.Errorf("error creating incident: plant: %w", ErrInvalidReference)
	}
	if in.Status == "" {
		in.Status = model.IncidentPending
	}
	ts := now()
	var resolvedAt *time.Time
	if in.Status == model.IncidentResolved {
		resolvedAt = &ts
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incidents (plant_id, user_id, title, description, status, reported_at, resolved_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		in.PlantID, in.UserID, in.Title, in.Description, in.Status, ts, resolvedAt, ts)
	if err != nil {
		return fmt.Errorf("error creating incident: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error creating incident: %w", err)
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*in = *created
	return nil
}

func (r *IncidentRepo) GetByID(ctx context.Context, id uint64) (*model.Incident, error) {
	var in model.Incident
	if err := r.db.GetContext(ctx, &in, incidentSelect+" WHERE i.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("error fetching incident: %w", err)
	}
	return &in, nil
}

func (r *IncidentRepo) List(ctx context.Context, page model.Page) ([]model.Incident, error) {
	return r.list(ctx, "error listing incidents", incidentOrder+" LIMIT ? OFFSET ?", pageArgs(page)...)
}

func (r *IncidentRepo) ListByPlant(ctx context.Context, plantID uint64) ([]model.Incident, error) {
	return r.list(ctx, "error listing incidents by plant", " WHERE i.plant_id = ?"+incidentOrder, plantID)
}

func (r *IncidentRepo) ListByStatus(ctx context.Context, status model.IncidentStatus) ([]model.Incident, error) {
	return r.list(ctx, "error listing incidents by status", " WHERE i.status = ?"+incidentOrder, status)
}

func (r *IncidentRepo) list(ctx context.Context, prefix, tail string, args ...any) ([]model.Incident, error) {
	out := []model.Incident{}
	if err := r.db.SelectContext(ctx, &out, incidentSelect+tail, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	return out, nil
}

// Update applies the non-nil fields of patch. A status change goes through
// the same stamping rule as SetStatus.
func (r *IncidentRepo) Update(ctx context.Context, id uint64, patch model.IncidentPatch) (*model.Incident, error) {
	if patch.Empty() {
		return nil, ErrNoFieldsToUpdate
	}
	ts := now()
	var set setList
	if patch.Title != nil {
		set.add("title = ?", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description = ?", *patch.Description)
	}
	if patch.Status != nil {
		set.add("status = ?", *patch.Status)
		set.add(resolvedStamp, *patch.Status, model.IncidentResolved, ts)
	}
	set.add("updated_at = ?", ts)
	return r.apply(ctx, id, "error updating incident", set)
}

// SetStatus moves an incident to status. Entering resolved stamps the
// resolution time once; repeating it keeps the first stamp. Any other
// status clears it.
func (r *IncidentRepo) SetStatus(ctx context.Context, id uint64, status model.IncidentStatus) (*model.Incident, error) {
	ts := now()
	var set setList
	set.add("status = ?", status)
	set.add(resolvedStamp, status, model.IncidentResolved, ts)
	set.add("updated_at = ?", ts)
	return r.apply(ctx, id, "error changing incident status", set)
}

func (r *IncidentRepo) apply(ctx context.Context, id uint64, prefix string, set setList) (*model.Incident, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE incidents SET "+set.String()+" WHERE id = ?", append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrIncidentNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *IncidentRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM incidents WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("error deleting incident: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *IncidentRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	out, err := groupCounts(ctx, r.db,
		"SELECT status AS k, COUNT(*) AS n FROM incidents GROUP BY status",
		string(model.IncidentPending), string(model.IncidentInProgress), string(model.IncidentResolved))
	if err != nil {
		return nil, fmt.Errorf("error counting incidents: %w", err)
	}
	return out, nil
}
