package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edusync/backend/config"
	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
)

// CalendarService iCalendar 导出接口
//
// 每条排课结果生成一个按周重复的 VEVENT：
// 首次上课日为学期开始日当周（含）之后第一个对应星期，重复 term_weeks 次。
type CalendarService interface {
	// FacultyCalendar 教师课表 .ics
	FacultyCalendar(ctx context.Context, facultyID int64) (string, string, error)
	// SectionCalendar 教学班课表 .ics
	SectionCalendar(ctx context.Context, sectionID int64) (string, string, error)
}

type calendarService struct {
	cfg    *config.CalendarConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(cfg *config.CalendarConfig, repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{cfg: cfg, repo: repo, logger: logger}
}

// slotNamespace 生成稳定的事件 UID
var slotNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://edusync/schedule-slots"))

func (s *calendarService) FacultyCalendar(ctx context.Context, facultyID int64) (string, string, error) {
	faculty, err := s.repo.Faculty.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrFacultyNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return "", "", err
	}
	slots, err := s.repo.ScheduleSlot.ListByFaculty(ctx, facultyID)
	if err != nil {
		s.logger.Error("查询教师课表失败", zap.Error(err))
		return "", "", err
	}

	body, err := s.build(faculty.Name+" 课表", slots, func(sl *model.ScheduleSlot) string {
		if sl.Section != nil {
			return sl.Section.Name
		}
		return ""
	})
	if err != nil {
		return "", "", err
	}
	return body, fmt.Sprintf("faculty-%d.ics", facultyID), nil
}

func (s *calendarService) SectionCalendar(ctx context.Context, sectionID int64) (string, string, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrSectionNotFound
		}
		s.logger.Error("查询教学班失败", zap.Error(err))
		return "", "", err
	}
	slots, err := s.repo.ScheduleSlot.ListBySection(ctx, sectionID)
	if err != nil {
		s.logger.Error("查询教学班课表失败", zap.Error(err))
		return "", "", err
	}

	body, err := s.build(section.Name+" 课表", slots, func(sl *model.ScheduleSlot) string {
		if sl.Faculty != nil {
			return sl.Faculty.Name
		}
		return ""
	})
	if err != nil {
		return "", "", err
	}
	return body, fmt.Sprintf("section-%d.ics", sectionID), nil
}

// build 组装日历；detail 为事件描述（教师视角显示教学班，教学班视角显示教师）
func (s *calendarService) build(name string, slots []model.ScheduleSlot, detail func(*model.ScheduleSlot) string) (string, error) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return "", fmt.Errorf("无效的日历时区 %q: %w", s.cfg.Timezone, err)
	}
	termStart, err := time.ParseInLocation("2006-01-02", s.cfg.TermStart, loc)
	if err != nil {
		return "", fmt.Errorf("无效的学期开始日期 %q: %w", s.cfg.TermStart, err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//EduSync//Timetable//ZH")
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(s.cfg.Timezone)

	stamp := time.Now()
	for i := range slots {
		sl := &slots[i]
		start, end, err := firstOccurrence(termStart, sl.DayOfWeek, clock(sl.StartTime), clock(sl.EndTime), loc)
		if err != nil {
			s.logger.Warn("跳过无法解析时间的排课记录", zap.Int64("slot_id", sl.ID), zap.Error(err))
			continue
		}

		summary := fmt.Sprintf("课程 %d", sl.CourseID)
		if sl.Course != nil {
			summary = sl.Course.Name
		}

		uid := uuid.NewSHA1(slotNamespace, []byte(fmt.Sprintf("%d", sl.ID))).String() + "@edusync"
		evt := cal.AddEvent(uid)
		evt.SetDtStampTime(stamp)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(summary)
		if d := detail(sl); d != "" {
			evt.SetDescription(d)
		}
		evt.SetProperty(ics.ComponentPropertyRrule, fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", s.cfg.TermWeeks))
	}
	return cal.Serialize(), nil
}

// firstOccurrence 学期开始日（含）之后第一个 day（1=周一 … 7=周日）的上课起止时间
func firstOccurrence(termStart time.Time, day int, startClock, endClock string, loc *time.Location) (time.Time, time.Time, error) {
	if day < 1 || day > 7 {
		return time.Time{}, time.Time{}, fmt.Errorf("day_of_week 超出范围: %d", day)
	}
	st, err := time.Parse("15:04", startClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	et, err := time.Parse("15:04", endClock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	target := time.Weekday(day % 7)
	offset := (int(target) - int(termStart.Weekday()) + 7) % 7
	date := termStart.AddDate(0, 0, offset)

	start := time.Date(date.Year(), date.Month(), date.Day(), st.Hour(), st.Minute(), 0, 0, loc)
	end := time.Date(date.Year(), date.Month(), date.Day(), et.Hour(), et.Minute(), 0, 0, loc)
	return start, end, nil
}
