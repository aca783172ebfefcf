package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edusync/backend/config"
	"edusync/backend/internal/dto"
	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
	"edusync/backend/internal/scheduler"
)

var (
	ErrSectionNotFound = errors.New("教学班不存在")
	ErrFacultyNotFound = errors.New("教师不存在")
)

// TimetableQueryService 排课结果查询接口
type TimetableQueryService interface {
	// ListSlots 按条件分页查询排课结果
	ListSlots(ctx context.Context, req *dto.SlotListRequest) ([]dto.SlotResponse, int64, error)
	// GetSectionTimetable 教学班周课表
	GetSectionTimetable(ctx context.Context, sectionID int64) (*dto.TimetableGridResponse, error)
	// GetFacultyTimetable 教师周课表
	GetFacultyTimetable(ctx context.Context, facultyID int64) (*dto.TimetableGridResponse, error)
}

type timetableQueryService struct {
	grid   scheduler.Grid
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableQueryService 创建 TimetableQueryService 实例
func NewTimetableQueryService(cfg *config.SchedulerConfig, repo *repository.Repository, logger *zap.Logger) TimetableQueryService {
	return &timetableQueryService{grid: scheduler.GridFromConfig(cfg), repo: repo, logger: logger}
}

func (s *timetableQueryService) ListSlots(ctx context.Context, req *dto.SlotListRequest) ([]dto.SlotResponse, int64, error) {
	slots, total, err := s.repo.ScheduleSlot.List(ctx, repository.SlotFilter{
		SectionID: req.SectionID,
		FacultyID: req.FacultyID,
		CourseID:  req.CourseID,
		Day:       req.Day,
		Page:      req.GetPage(),
		PageSize:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询排课结果失败", zap.Error(err))
		return nil, 0, err
	}
	return lo.Map(slots, func(sl model.ScheduleSlot, _ int) dto.SlotResponse { return toSlotResponse(&sl) }), total, nil
}

func (s *timetableQueryService) GetSectionTimetable(ctx context.Context, sectionID int64) (*dto.TimetableGridResponse, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return nil, err
	}
	slots, err := s.repo.ScheduleSlot.ListBySection(ctx, sectionID)
	if err != nil {
		s.logger.Error("查询教学班课表失败", zap.Error(err))
		return nil, err
	}

	name := section.Name
	if section.Class != nil {
		name = section.Class.Name + " " + section.Name
	}
	return buildGrid(s.grid, "section", section.ID, name, slots), nil
}

func (s *timetableQueryService) GetFacultyTimetable(ctx context.Context, facultyID int64) (*dto.TimetableGridResponse, error) {
	faculty, err := s.repo.Faculty.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	slots, err := s.repo.ScheduleSlot.ListByFaculty(ctx, facultyID)
	if err != nil {
		s.logger.Error("查询教师课表失败", zap.Error(err))
		return nil, err
	}
	return buildGrid(s.grid, "faculty", faculty.ID, faculty.Name, slots), nil
}

// buildGrid 按 工作日 × 时段 组装网格；不在当前网格内的记录只计入 Total
func buildGrid(g scheduler.Grid, ownerType string, ownerID int64, ownerName string, slots []model.ScheduleSlot) *dto.TimetableGridResponse {
	resp := &dto.TimetableGridResponse{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Total:     len(slots),
		TimeSlots: lo.Map(g.Slots, func(ts scheduler.TimeSlot, _ int) dto.TimeSlotBrief {
			return dto.TimeSlotBrief{Index: ts.Index, Start: ts.Start, End: ts.End}
		}),
	}

	columns := make(map[int]*dto.DayColumn, len(g.Weekdays))
	for _, day := range g.Weekdays {
		resp.Days = append(resp.Days, dto.DayColumn{
			DayOfWeek: day,
			DayName:   dayName(day),
			Slots:     make([]*dto.SlotResponse, len(g.Slots)),
		})
	}
	for i := range resp.Days {
		columns[resp.Days[i].DayOfWeek] = &resp.Days[i]
	}

	for i := range slots {
		col, ok := columns[slots[i].DayOfWeek]
		if !ok || slots[i].SlotIndex < 0 || slots[i].SlotIndex >= len(col.Slots) {
			continue
		}
		r := toSlotResponse(&slots[i])
		col.Slots[slots[i].SlotIndex] = &r
	}
	return resp
}

func toSlotResponse(sl *model.ScheduleSlot) dto.SlotResponse {
	resp := dto.SlotResponse{
		ID:        sl.ID,
		CourseID:  sl.CourseID,
		FacultyID: sl.FacultyID,
		SectionID: sl.SectionID,
		ClassID:   sl.ClassID,
		DayOfWeek: sl.DayOfWeek,
		DayName:   dayName(sl.DayOfWeek),
		SlotIndex: sl.SlotIndex,
		StartTime: clock(sl.StartTime),
		EndTime:   clock(sl.EndTime),
	}
	if sl.Course != nil {
		resp.Course = &dto.CourseBrief{ID: sl.Course.ID, Name: sl.Course.Name, Code: sl.Course.Code}
	}
	if sl.Faculty != nil {
		resp.Faculty = &dto.FacultyBrief{ID: sl.Faculty.ID, Name: sl.Faculty.Name}
	}
	if sl.Section != nil {
		resp.Section = &dto.SectionBrief{ID: sl.Section.ID, Name: sl.Section.Name, ClassID: sl.Section.ClassID}
	}
	return resp
}

var dayNames = map[int]string{1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五", 6: "周六", 7: "周日"}

func dayName(day int) string {
	return dayNames[day]
}

// clock 数据库 TIME 列读出为 HH:MM:SS，统一截成 HH:MM
func clock(t string) string {
	if len(t) > 5 {
		return t[:5]
	}
	return t
}
