package repository

import (
	"context"

	"gorm.io/gorm"

	"edusync/backend/internal/model"
)

// ScheduleRunRepository 排课运行记录数据访问接口
type ScheduleRunRepository interface {
	Create(ctx context.Context, run *model.ScheduleRun) error
	Update(ctx context.Context, run *model.ScheduleRun) error
	GetByID(ctx context.Context, runID string) (*model.ScheduleRun, error)
	GetLatest(ctx context.Context) (*model.ScheduleRun, error)
}

type scheduleRunRepo struct {
	db *gorm.DB
}

// NewScheduleRunRepo 创建 ScheduleRunRepository 实例
func NewScheduleRunRepo(db *gorm.DB) ScheduleRunRepository {
	return &scheduleRunRepo{db: db}
}

func (r *scheduleRunRepo) Create(ctx context.Context, run *model.ScheduleRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *scheduleRunRepo) Update(ctx context.Context, run *model.ScheduleRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *scheduleRunRepo) GetByID(ctx context.Context, runID string) (*model.ScheduleRun, error) {
	var run model.ScheduleRun
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *scheduleRunRepo) GetLatest(ctx context.Context) (*model.ScheduleRun, error) {
	var run model.ScheduleRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}
