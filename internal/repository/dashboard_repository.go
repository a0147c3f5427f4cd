package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/plant-maintenance/internal/model"
)

// DashboardRepo aggregates counts from the other repositories.
type DashboardRepo struct {
	users       *UserRepo
	plants      *PlantRepo
	incidents   *IncidentRepo
	maintenance *MaintenanceRepo
	reports     *ReportRepo
}

func NewDashboardRepo(db *sqlx.DB) *DashboardRepo {
	return &DashboardRepo{
		users:       NewUserRepo(db),
		plants:      NewPlantRepo(db),
		incidents:   NewIncidentRepo(db),
		maintenance: NewMaintenanceRepo(db),
		reports:     NewReportRepo(db),
	}
}

func (r *DashboardRepo) Stats(ctx context.Context) (*model.Dashboard, error) {
	var (
		d   model.Dashboard
		err error
	)
	if d.Plants, err = r.plants.Count(ctx); err != nil {
		return nil, err
	}
	if d.Reports, err = r.reports.Count(ctx); err != nil {
		return nil, err
	}
	if d.Incidents, err = r.incidents.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if d.Maintenance, err = r.maintenance.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = r.users.CountByRole(ctx); err != nil {
		return nil, err
	}
	return &d, nil
}
