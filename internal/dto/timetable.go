package dto

import (
	"encoding/json"

	"edusync/backend/internal/scheduler"
)

// ── 课表生成 DTO ──

// GenerateRequest 生成课表请求
type GenerateRequest struct {
	DryRun       bool `json:"dry_run"`       // 仅计算，不写库
	KeepExisting bool `json:"keep_existing"` // 保留旧排课结果（覆盖 clear_existing）
}

// SlotListRequest 排课结果列表查询参数
type SlotListRequest struct {
	SectionID int64 `form:"section_id" binding:"omitempty,min=1"`
	FacultyID int64 `form:"faculty_id" binding:"omitempty,min=1"`
	CourseID  int64 `form:"course_id"  binding:"omitempty,min=1"`
	Day       int   `form:"day"        binding:"omitempty,min=1,max=7"`
	PaginationRequest
}

// ── 响应 ──

// ShortfallResponse 排课缺口
type ShortfallResponse struct {
	CourseID    int64  `json:"course_id"`
	CourseName  string `json:"course_name"`
	SectionID   int64  `json:"section_id"`
	SectionName string `json:"section_name"`
	FacultyID   int64  `json:"faculty_id,omitempty"`
	Scheduled   int    `json:"scheduled"`
	Required    int    `json:"required"`
	Reason      string `json:"reason"`
	Fallback    bool   `json:"fallback"`
}

// RunSummary 一次生成运行的结果摘要
type RunSummary struct {
	RunID          string              `json:"run_id"`
	Status         string              `json:"status"`
	DryRun         bool                `json:"dry_run"`
	Cleared        int64               `json:"cleared"`
	Backfilled     int                 `json:"backfilled"`
	CourseSections int                 `json:"course_sections"`
	Required       int                 `json:"required"`
	Scheduled      int                 `json:"scheduled"`
	Kept           int                 `json:"kept"`
	Inserted       int64               `json:"inserted"`
	ShortfallCount int                 `json:"shortfall_count"`
	Shortfalls     []ShortfallResponse `json:"shortfalls"`
	Stats          scheduler.Stats     `json:"stats"`
	StartedAt      string              `json:"started_at"`
	FinishedAt     string              `json:"finished_at"`
	DurationMs     int64               `json:"duration_ms"`
}

// RunResponse 运行记录
type RunResponse struct {
	RunID          string          `json:"run_id"`
	Status         string          `json:"status"`
	DryRun         bool            `json:"dry_run"`
	TriggeredBy    string          `json:"triggered_by"`
	Weekdays       []int           `json:"weekdays"`
	LabDays        []int           `json:"lab_days"`
	CourseSections int             `json:"course_sections"`
	Required       int             `json:"required"`
	Scheduled      int             `json:"scheduled"`
	Inserted       int             `json:"inserted"`
	Backfilled     int             `json:"backfilled"`
	ShortfallCount int             `json:"shortfall_count"`
	Stats          json.RawMessage `json:"stats,omitempty"`
	Shortfalls     json.RawMessage `json:"shortfalls,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	StartedAt      string          `json:"started_at"`
	FinishedAt     *string         `json:"finished_at,omitempty"`
}

// SlotResponse 单条排课结果
type SlotResponse struct {
	ID        int64         `json:"id"`
	Course    *CourseBrief  `json:"course,omitempty"`
	Faculty   *FacultyBrief `json:"faculty,omitempty"`
	Section   *SectionBrief `json:"section,omitempty"`
	CourseID  int64         `json:"course_id"`
	FacultyID int64         `json:"faculty_id"`
	SectionID int64         `json:"section_id"`
	ClassID   int64         `json:"class_id"`
	DayOfWeek int           `json:"day_of_week"`
	DayName   string        `json:"day_name"`
	SlotIndex int           `json:"slot_index"`
	StartTime string        `json:"start_time"`
	EndTime   string        `json:"end_time"`
}

// TimeSlotBrief 每日时段
type TimeSlotBrief struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayColumn 课表网格中的一天；Slots 与 TimeSlots 一一对应，空闲为 null
type DayColumn struct {
	DayOfWeek int             `json:"day_of_week"`
	DayName   string          `json:"day_name"`
	Slots     []*SlotResponse `json:"slots"`
}

// TimetableGridResponse 教学班或教师的周课表
type TimetableGridResponse struct {
	OwnerType string          `json:"owner_type"` // section | faculty
	OwnerID   int64           `json:"owner_id"`
	OwnerName string          `json:"owner_name"`
	TimeSlots []TimeSlotBrief `json:"time_slots"`
	Days      []DayColumn     `json:"days"`
	Total     int             `json:"total"`
}
