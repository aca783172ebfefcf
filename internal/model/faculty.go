package model

import "time"

// Faculty 教师表 — 对应 faculty
type Faculty struct {
	ID           int64  `gorm:"primaryKey"                 json:"id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Email        string `gorm:"type:varchar(150);not null" json:"email"`
	DepartmentID int64  `gorm:"not null"                   json:"department_id"`
	Timestamps
}

func (Faculty) TableName() string { return "faculty" }

// 任课关系来源
const (
	AssignmentSourceManual   = "manual"
	AssignmentSourceBackfill = "backfill" // 排课前按院系自动补充
)

// FacultyCourseAssignment 教师-课程任课关系 — 对应 faculty_courses
type FacultyCourseAssignment struct {
	ID        int64     `gorm:"primaryKey"                         json:"id"`
	FacultyID int64     `gorm:"not null"                           json:"faculty_id"`
	CourseID  int64     `gorm:"not null"                           json:"course_id"`
	Source    string    `gorm:"type:varchar(20);not null"          json:"source"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (FacultyCourseAssignment) TableName() string { return "faculty_courses" }
