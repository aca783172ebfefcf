package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"edusync/backend/config"
	"edusync/backend/internal/dto"
	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
	"edusync/backend/internal/scheduler"
)

// ── 课表生成模块业务错误 ──

var (
	ErrRunInProgress     = errors.New("已有排课任务正在运行")
	ErrRunNotFound       = errors.New("排课运行记录不存在")
	ErrNoCourseSections  = errors.New("没有需要排课的课程-教学班")
	ErrConflictDetected  = errors.New("排课结果存在时间冲突")
	errSnapshotLoadFatal = errors.New("加载排课数据失败")
)

const runLockName = "timetable:generate"

// ── TimetableService 接口 ──────────────────────────────────
//
// Generate 流程：
//
//	获取运行锁 → 加载快照 → 清空旧结果（保留时改为载入占用）→ 补充任课并落库
//	→ 分配时段 → 冲突校验 → 分批幂等写入 → 记录缺口与统计 → 更新运行记录
//
// 数据缺口只记警告；存储写入失败即终止，运行记录标记为 failed。
// 已提交的批次不回滚。
// ─────────────────────────────────────────────────────────────

// TimetableService 课表生成业务接口
type TimetableService interface {
	// Generate 基于数据库全量数据生成课表
	Generate(ctx context.Context, req *dto.GenerateRequest, triggeredBy string) (*dto.RunSummary, error)
	// Preview 对离线快照试运行，不读写数据库
	Preview(ctx context.Context, in scheduler.Input) (*dto.RunSummary, error)
	// GetRun 查询运行记录
	GetRun(ctx context.Context, runID string) (*dto.RunResponse, error)
	// GetLatestRun 查询最近一次运行
	GetLatestRun(ctx context.Context) (*dto.RunResponse, error)
}

type timetableService struct {
	cfg    *config.SchedulerConfig
	grid   scheduler.Grid
	repo   *repository.Repository
	locker RunLocker
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(cfg *config.SchedulerConfig, repo *repository.Repository, locker RunLocker, logger *zap.Logger) TimetableService {
	return &timetableService{
		cfg:    cfg,
		grid:   scheduler.GridFromConfig(cfg),
		repo:   repo,
		locker: locker,
		logger: logger,
	}
}

// ════════════════════════════════════════════════════════════
// Generate
// ════════════════════════════════════════════════════════════

func (s *timetableService) Generate(ctx context.Context, req *dto.GenerateRequest, triggeredBy string) (*dto.RunSummary, error) {
	// 0. 运行锁
	release, err := s.locker.Acquire(ctx, runLockName, s.cfg.LockTTL)
	switch {
	case isLockBusy(err):
		return nil, ErrRunInProgress
	case err != nil:
		// 锁服务不可用时不阻塞管理操作
		s.logger.Warn("获取排课运行锁失败，继续执行", zap.Error(err))
	default:
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("释放排课运行锁失败", zap.Error(err))
			}
		}()
	}

	run := &model.ScheduleRun{
		RunID:       uuid.NewString(),
		Status:      model.RunStatusRunning,
		DryRun:      req.DryRun,
		TriggeredBy: triggeredBy,
		Weekdays:    model.IntArray(s.grid.Weekdays),
		LabDays:     model.IntArray(s.grid.LabDays),
		StartedAt:   time.Now(),
	}
	log := s.logger.With(zap.String("run_id", run.RunID), zap.Bool("dry_run", req.DryRun))
	log.Info("开始生成课表", zap.String("triggered_by", triggeredBy))

	if !req.DryRun {
		if err := s.repo.ScheduleRun.Create(ctx, run); err != nil {
			log.Error("创建排课运行记录失败", zap.Error(err))
			return nil, err
		}
	}

	summary := &dto.RunSummary{RunID: run.RunID, DryRun: req.DryRun}

	// 1. 加载快照
	in, err := s.loadInput(ctx)
	if err != nil {
		return nil, s.failRun(ctx, log, run, err)
	}
	if len(in.CourseSections) == 0 {
		return nil, s.failRun(ctx, log, run, ErrNoCourseSections)
	}

	// 2. 清空旧结果（快照非空才清空）；保留时以已有结果为占用起点
	keep := req.KeepExisting || !s.cfg.ClearExisting
	if !req.DryRun && !keep {
		cleared, err := s.repo.ScheduleSlot.DeleteAll(ctx)
		if err != nil {
			return nil, s.failRun(ctx, log, run, fmt.Errorf("清空旧排课结果失败: %w", err))
		}
		summary.Cleared = cleared
		log.Info("已清空旧排课结果", zap.Int64("deleted", cleared))
	}

	// 3. 补充任课教师，先于排课落库
	bf := scheduler.Backfill(in, s.cfg.MaxBackfill)
	s.logBackfill(log, in, bf)
	summary.Backfilled = len(bf.Added)
	if !req.DryRun && len(bf.Added) > 0 {
		rows := lo.Map(bf.Added, func(a scheduler.Assignment, _ int) model.FacultyCourseAssignment {
			return model.FacultyCourseAssignment{
				FacultyID: a.FacultyID,
				CourseID:  a.CourseID,
				Source:    model.AssignmentSourceBackfill,
			}
		})
		if _, err := s.repo.FacultyCourse.BatchCreate(ctx, rows, s.cfg.BatchSize); err != nil {
			return nil, s.failRun(ctx, log, run, fmt.Errorf("写入补充任课关系失败: %w", err))
		}
	}

	// 4. 分配 + 冲突校验
	allocator := scheduler.NewAllocator(s.grid)
	if keep {
		state, err := s.existingState(ctx, log)
		if err != nil {
			return nil, s.failRun(ctx, log, run, err)
		}
		allocator = scheduler.NewAllocatorWithState(s.grid, state)
	}
	result := allocator.Allocate(in, bf.Index)
	if conflicts := scheduler.Verify(result.Slots); len(conflicts) > 0 {
		for _, c := range conflicts {
			log.Error("排课冲突", zap.Stringer("conflict", c))
		}
		return nil, s.failRun(ctx, log, run, ErrConflictDetected)
	}

	// 5. 分批幂等写入
	if !req.DryRun {
		slots := toSlotModels(result.Slots, run.RunID)
		inserted, err := s.repo.ScheduleSlot.BulkInsert(ctx, slots, s.cfg.BatchSize)
		summary.Inserted = inserted
		if err != nil {
			run.Inserted = int(inserted)
			return nil, s.failRun(ctx, log, run, err)
		}
		if skipped := int64(len(slots)) - inserted; skipped > 0 {
			log.Warn("部分排课结果与已有记录冲突被跳过", zap.Int64("skipped", skipped))
		}
	}

	// 6. 缺口与统计
	s.logShortfalls(log, result.Shortfalls)
	s.logStats(log, result.Stats)

	fillSummary(summary, result)
	summary.Status = model.RunStatusCompleted
	summary.StartedAt = run.StartedAt.Format(time.RFC3339)

	if err := s.completeRun(ctx, run, summary, result); err != nil {
		log.Error("更新排课运行记录失败", zap.Error(err))
		return nil, err
	}
	summary.FinishedAt = run.FinishedAt.Format(time.RFC3339)
	summary.DurationMs = run.FinishedAt.Sub(run.StartedAt).Milliseconds()

	log.Info("课表生成完成",
		zap.Int("scheduled", summary.Scheduled),
		zap.Int("required", summary.Required),
		zap.Int64("inserted", summary.Inserted),
		zap.Int("shortfalls", summary.ShortfallCount),
		zap.Int64("duration_ms", summary.DurationMs),
	)
	return summary, nil
}

// ════════════════════════════════════════════════════════════
// Preview 离线快照试运行
// ════════════════════════════════════════════════════════════

func (s *timetableService) Preview(_ context.Context, in scheduler.Input) (*dto.RunSummary, error) {
	if len(in.CourseSections) == 0 {
		return nil, ErrNoCourseSections
	}
	started := time.Now()
	log := s.logger.With(zap.String("mode", "snapshot"))

	bf := scheduler.Backfill(in, s.cfg.MaxBackfill)
	s.logBackfill(log, in, bf)

	result := scheduler.NewAllocator(s.grid).Allocate(in, bf.Index)
	if conflicts := scheduler.Verify(result.Slots); len(conflicts) > 0 {
		return nil, ErrConflictDetected
	}
	s.logShortfalls(log, result.Shortfalls)
	s.logStats(log, result.Stats)

	finished := time.Now()
	summary := &dto.RunSummary{
		RunID:      uuid.NewString(),
		Status:     model.RunStatusCompleted,
		DryRun:     true,
		Backfilled: len(bf.Added),
		StartedAt:  started.Format(time.RFC3339),
		FinishedAt: finished.Format(time.RFC3339),
		DurationMs: finished.Sub(started).Milliseconds(),
	}
	fillSummary(summary, result)
	return summary, nil
}

// ════════════════════════════════════════════════════════════
// 运行记录查询
// ════════════════════════════════════════════════════════════

func (s *timetableService) GetRun(ctx context.Context, runID string) (*dto.RunResponse, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return nil, ErrRunNotFound
	}
	run, err := s.repo.ScheduleRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询排课运行记录失败", zap.Error(err))
		return nil, err
	}
	return toRunResponse(run), nil
}

func (s *timetableService) GetLatestRun(ctx context.Context) (*dto.RunResponse, error) {
	run, err := s.repo.ScheduleRun.GetLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		s.logger.Error("查询最近排课运行失败", zap.Error(err))
		return nil, err
	}
	return toRunResponse(run), nil
}

// ── 内部辅助 ──

// loadInput 一次性加载排课所需的全部数据
func (s *timetableService) loadInput(ctx context.Context) (scheduler.Input, error) {
	courses, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 课程: %v", errSnapshotLoadFatal, err)
	}
	classes, err := s.repo.Class.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 行政班: %v", errSnapshotLoadFatal, err)
	}
	sections, err := s.repo.Section.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 教学班: %v", errSnapshotLoadFatal, err)
	}
	faculty, err := s.repo.Faculty.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 教师: %v", errSnapshotLoadFatal, err)
	}
	pairs, err := s.repo.CourseSection.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 课程-教学班: %v", errSnapshotLoadFatal, err)
	}
	assignments, err := s.repo.FacultyCourse.ListAll(ctx)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: 任课关系: %v", errSnapshotLoadFatal, err)
	}

	classDept := lo.SliceToMap(classes, func(c model.Class) (int64, int64) { return c.ID, c.DepartmentID })

	return scheduler.Input{
		Courses: lo.Map(courses, func(c model.Course, _ int) scheduler.Course {
			return scheduler.Course{ID: c.ID, Name: c.Name, DepartmentID: c.DepartmentID, CreditHours: c.CreditHours}
		}),
		Sections: lo.Map(sections, func(sec model.Section, _ int) scheduler.Section {
			return scheduler.Section{ID: sec.ID, Name: sec.Name, ClassID: sec.ClassID, DepartmentID: classDept[sec.ClassID]}
		}),
		Faculty: lo.Map(faculty, func(f model.Faculty, _ int) scheduler.Faculty {
			return scheduler.Faculty{ID: f.ID, Name: f.Name, DepartmentID: f.DepartmentID}
		}),
		CourseSections: lo.Map(pairs, func(cs model.CourseSection, _ int) scheduler.CourseSection {
			return scheduler.CourseSection{CourseID: cs.CourseID, SectionID: cs.SectionID}
		}),
		Assignments: lo.Map(assignments, func(a model.FacultyCourseAssignment, _ int) scheduler.Assignment {
			return scheduler.Assignment{FacultyID: a.FacultyID, CourseID: a.CourseID}
		}),
	}, nil
}

// existingState 读取已有排课结果作为分配起点
func (s *timetableService) existingState(ctx context.Context, log *zap.Logger) (*scheduler.State, error) {
	rows, err := s.repo.ScheduleSlot.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载已有排课结果失败: %w", err)
	}

	slots := make([]scheduler.Slot, 0, len(rows))
	for _, r := range rows {
		if ts, ok := s.grid.Slot(r.SlotIndex); !ok || ts.Start != clock(r.StartTime) {
			log.Warn("已有排课不在当前时段网格内，仍按占用处理",
				zap.Int64("slot_id", r.ID),
				zap.Int("slot_index", r.SlotIndex),
				zap.String("start_time", clock(r.StartTime)),
			)
		}
		slots = append(slots, scheduler.Slot{
			CourseID:  r.CourseID,
			FacultyID: r.FacultyID,
			ClassID:   r.ClassID,
			SectionID: r.SectionID,
			Day:       r.DayOfWeek,
			SlotIndex: r.SlotIndex,
		})
	}
	log.Info("已载入已有排课结果", zap.Int("slots", len(slots)))
	return scheduler.StateFromSlots(slots), nil
}

func (s *timetableService) logBackfill(log *zap.Logger, in scheduler.Input, bf scheduler.BackfillResult) {
	courses := lo.KeyBy(in.Courses, func(c scheduler.Course) int64 { return c.ID })
	for _, id := range bf.Unstaffed {
		log.Warn("教师名册为空，课程无法补充任课教师",
			zap.Int64("course_id", id),
			zap.String("course_name", courses[id].Name),
		)
	}
	for _, id := range bf.Fallback {
		// 取模回退可能跨院系分配，需人工复核
		log.Warn("院系内无教师，按取模规则跨院系补充任课",
			zap.Int64("course_id", id),
			zap.String("course_name", courses[id].Name),
			zap.Int64("department_id", courses[id].DepartmentID),
		)
	}
	if len(bf.Added) > 0 {
		log.Info("已补充任课关系", zap.Int("count", len(bf.Added)))
	}
}

func (s *timetableService) logShortfalls(log *zap.Logger, shortfalls []scheduler.Shortfall) {
	for _, sf := range shortfalls {
		log.Warn("排课缺口",
			zap.Int64("course_id", sf.CourseID),
			zap.String("course_name", sf.CourseName),
			zap.Int64("section_id", sf.SectionID),
			zap.String("section_name", sf.SectionName),
			zap.Int64("faculty_id", sf.FacultyID),
			zap.Int("scheduled", sf.Scheduled),
			zap.Int("required", sf.Required),
			zap.String("reason", string(sf.Reason)),
			zap.Bool("fallback", sf.Fallback),
		)
	}
}

func (s *timetableService) logStats(log *zap.Logger, st scheduler.Stats) {
	log.Info("排课统计",
		zap.Int("course_sections", st.CourseSections),
		zap.Int("required", st.Required),
		zap.Int("scheduled", st.Scheduled),
		zap.Any("by_department", st.ByDepartment),
		zap.Any("by_day", st.ByDay),
		zap.Any("by_slot", st.BySlot),
		zap.Int("lab_sessions", st.LabSessions),
		zap.Int("project_sessions", st.ProjectSessions),
		zap.Int("regular_sessions", st.RegularSessions),
		zap.Float64("special_ratio", st.SpecialRatio()),
		zap.Int("min_per_section", st.MinPerSection),
		zap.Int("max_per_section", st.MaxPerSection),
		zap.Float64("utilization", st.Utilization),
	)
}

// failRun 标记运行失败并返回原错误
func (s *timetableService) failRun(ctx context.Context, log *zap.Logger, run *model.ScheduleRun, cause error) error {
	log.Error("课表生成失败", zap.Error(cause))
	if run.DryRun {
		return cause
	}
	now := time.Now()
	run.Status = model.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.FinishedAt = &now
	if err := s.repo.ScheduleRun.Update(context.WithoutCancel(ctx), run); err != nil {
		log.Error("更新排课运行记录失败", zap.Error(err))
	}
	return cause
}

func (s *timetableService) completeRun(ctx context.Context, run *model.ScheduleRun, summary *dto.RunSummary, result *scheduler.Result) error {
	now := time.Now()
	run.Status = model.RunStatusCompleted
	run.FinishedAt = &now
	run.CourseSections = summary.CourseSections
	run.Required = summary.Required
	run.Scheduled = summary.Scheduled
	run.Inserted = int(summary.Inserted)
	run.Backfilled = summary.Backfilled
	run.ShortfallCount = summary.ShortfallCount
	if run.DryRun {
		return nil
	}

	stats, err := json.Marshal(result.Stats)
	if err != nil {
		return err
	}
	shortfalls, err := json.Marshal(result.Shortfalls)
	if err != nil {
		return err
	}
	run.Stats = datatypes.JSON(stats)
	run.Shortfalls = datatypes.JSON(shortfalls)
	return s.repo.ScheduleRun.Update(ctx, run)
}

func fillSummary(summary *dto.RunSummary, result *scheduler.Result) {
	summary.CourseSections = result.Stats.CourseSections
	summary.Required = result.Stats.Required
	summary.Scheduled = result.Stats.Scheduled
	summary.Kept = result.Kept
	summary.ShortfallCount = len(result.Shortfalls)
	summary.Stats = result.Stats
	summary.Shortfalls = lo.Map(result.Shortfalls, func(sf scheduler.Shortfall, _ int) dto.ShortfallResponse {
		return dto.ShortfallResponse{
			CourseID:    sf.CourseID,
			CourseName:  sf.CourseName,
			SectionID:   sf.SectionID,
			SectionName: sf.SectionName,
			FacultyID:   sf.FacultyID,
			Scheduled:   sf.Scheduled,
			Required:    sf.Required,
			Reason:      string(sf.Reason),
			Fallback:    sf.Fallback,
		}
	})
}

func toSlotModels(slots []scheduler.Slot, runID string) []model.ScheduleSlot {
	return lo.Map(slots, func(s scheduler.Slot, _ int) model.ScheduleSlot {
		return model.ScheduleSlot{
			CourseID:  s.CourseID,
			FacultyID: s.FacultyID,
			ClassID:   s.ClassID,
			SectionID: s.SectionID,
			DayOfWeek: s.Day,
			SlotIndex: s.SlotIndex,
			StartTime: s.Start,
			EndTime:   s.End,
			RunID:     &runID,
		}
	})
}

func toRunResponse(run *model.ScheduleRun) *dto.RunResponse {
	resp := &dto.RunResponse{
		RunID:          run.RunID,
		Status:         run.Status,
		DryRun:         run.DryRun,
		TriggeredBy:    run.TriggeredBy,
		Weekdays:       []int(run.Weekdays),
		LabDays:        []int(run.LabDays),
		CourseSections: run.CourseSections,
		Required:       run.Required,
		Scheduled:      run.Scheduled,
		Inserted:       run.Inserted,
		Backfilled:     run.Backfilled,
		ShortfallCount: run.ShortfallCount,
		ErrorMessage:   run.ErrorMessage,
		StartedAt:      run.StartedAt.Format(time.RFC3339),
	}
	if len(run.Stats) > 0 {
		resp.Stats = json.RawMessage(run.Stats)
	}
	if len(run.Shortfalls) > 0 {
		resp.Shortfalls = json.RawMessage(run.Shortfalls)
	}
	if run.FinishedAt != nil {
		t := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &t
	}
	return resp
}
