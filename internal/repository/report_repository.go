package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

const reportSelect = `SELECT r.id, r.plant_id, r.user_id, r.type, r.description, r.period,
	r.file_path, r.generated_at,
	COALESCE(p.name, '') AS plant_name, COALESCE(u.name, '') AS generator_name
	FROM reports r
	LEFT JOIN plants p ON p.id = r.plant_id
	LEFT JOIN users u ON u.id = r.user_id`

const reportOrder = " ORDER BY r.generated_at DESC, r.id DESC"

type ReportRepo struct{ db *sqlx.DB }

func NewReportRepo(db *sqlx.DB) *ReportRepo { return &ReportRepo{db: db} }

// Create stores report metadata. When FilePath is empty it is derived from
// the type, plant and generation date.
func (r *ReportRepo) Create(ctx context.Context, rep *model.Report) error {
	ok, err := exists(ctx, r.db, "plants", rep.PlantID)
	if err != nil {
		return fmt.Errorf("error creating report: %w", err)
	}
	if !ok {
		return fmt.Errorf("error creating report: plant: %w", ErrInvalidReference)
	}
	ts := now()
	if rep.FilePath == "" {
		rep.FilePath = ReportFilePath(rep.Type, rep.PlantID, ts)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reports (plant_id, user_id, type, description, period, file_path, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.PlantID, rep.UserID, rep.Type, rep.Description, rep.Period, rep.FilePath, ts)
	if err != nil {
		return fmt.Errorf("error creating report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error creating report: %w", err)
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*rep = *created
	return nil
}

func (r *ReportRepo) GetByID(ctx context.Context, id uint64) (*model.Report, error) {
	var rep model.Report
	if err := r.db.GetContext(ctx, &rep, reportSelect+" WHERE r.id = ?", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("error fetching report: %w", err)
	}
	return &rep, nil
}

func (r *ReportRepo) List(ctx context.Context, page model.Page) ([]model.Report, error) {
	return r.list(ctx, "error listing reports", reportOrder+" LIMIT ? OFFSET ?", pageArgs(page)...)
}

func (r *ReportRepo) ListByPlant(ctx context.Context, plantID uint64) ([]model.Report, error) {
	return r.list(ctx, "error listing reports by plant", " WHERE r.plant_id = ?"+reportOrder, plantID)
}

func (r *ReportRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Report, error) {
	return r.list(ctx, "error listing reports by user", " WHERE r.user_id = ?"+reportOrder, userID)
}

func (r *ReportRepo) list(ctx context.Context, prefix, tail string, args ...any) ([]model.Report, error) {
	out := []model.Report{}
	if err := r.db.SelectContext(ctx, &out, reportSelect+tail, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", prefix, err)
	}
	return out, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("error deleting report: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *ReportRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM reports"); err != nil {
		return 0, fmt.Errorf("error counting reports: %w", err)
	}
	return n, nil
}
