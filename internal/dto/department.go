package dto

// ── 院系目录 DTO ──

// DepartmentResponse 院系概要
type DepartmentResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	FacultyCount int    `json:"faculty_count"`
	SectionCount int    `json:"section_count"`
	CourseCount  int    `json:"course_count"`
}

// DepartmentDetailResponse 院系详情（含教师与教学班，供按 ID 查询课表）
type DepartmentDetailResponse struct {
	DepartmentResponse
	Faculty  []FacultyBrief `json:"faculty"`
	Sections []SectionBrief `json:"sections"`
}
