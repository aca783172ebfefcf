package scheduler

// ── 排课输入（与存储无关的快照视图） ──

type Course struct {
	ID           int64  `json:"id"            mapstructure:"id"`
	Name         string `json:"name"          mapstructure:"name"`
	DepartmentID int64  `json:"department_id" mapstructure:"department_id"`
	CreditHours  int    `json:"credit_hours"  mapstructure:"credit_hours"`
}

// Section 班级分组；ClassID/DepartmentID 由 Section → Class → Department 展开
type Section struct {
	ID           int64  `json:"id"            mapstructure:"id"`
	Name         string `json:"name"          mapstructure:"name"`
	ClassID      int64  `json:"class_id"      mapstructure:"class_id"`
	DepartmentID int64  `json:"department_id" mapstructure:"department_id"`
}

type Faculty struct {
	ID           int64  `json:"id"            mapstructure:"id"`
	Name         string `json:"name"          mapstructure:"name"`
	DepartmentID int64  `json:"department_id" mapstructure:"department_id"`
}

// CourseSection 待排课单元
type CourseSection struct {
	CourseID  int64 `json:"course_id"  mapstructure:"course_id"`
	SectionID int64 `json:"section_id" mapstructure:"section_id"`
}

// Assignment 教师-课程任课关系
type Assignment struct {
	FacultyID int64 `json:"faculty_id" mapstructure:"faculty_id"`
	CourseID  int64 `json:"course_id"  mapstructure:"course_id"`
}

// Input 一次排课运行的完整数据快照
// Faculty 的顺序即教师名册顺序（补充任课与取模回退均依赖该顺序）
type Input struct {
	Courses        []Course        `json:"courses"         mapstructure:"courses"`
	Sections       []Section       `json:"sections"        mapstructure:"sections"`
	Faculty        []Faculty       `json:"faculty"         mapstructure:"faculty"`
	CourseSections []CourseSection `json:"course_sections" mapstructure:"course_sections"`
	Assignments    []Assignment    `json:"assignments"     mapstructure:"assignments"`
}

// Slot 一次排课结果
type Slot struct {
	CourseID  int64        `json:"course_id"`
	FacultyID int64        `json:"faculty_id"`
	ClassID   int64        `json:"class_id"`
	SectionID int64        `json:"section_id"`
	Day       int          `json:"day_of_week"`
	SlotIndex int          `json:"slot_index"`
	Start     string       `json:"start_time"`
	End       string       `json:"end_time"`
	Strategy  StrategyKind `json:"strategy"`
}
