package scheduler

// ShortfallReason 缺口原因
type ShortfallReason string

const (
	// ReasonNoFaculty 课程没有可用任课教师
	ReasonNoFaculty ShortfallReason = "no_faculty"
	// ReasonInsufficientSlots 策略链耗尽仍未达到所需课次
	ReasonInsufficientSlots ShortfallReason = "insufficient_slots"
	// ReasonFallbackPlacement 课次已满足，但使用了兜底放置（任意时段，或实验课落在非实验日）
	ReasonFallbackPlacement ShortfallReason = "fallback_placement"
	// ReasonMissingReference 课程或班级在快照中不存在
	ReasonMissingReference ShortfallReason = "missing_reference"
)

// Shortfall 排课缺口记录；只用于日志与人工复核，不是错误
type Shortfall struct {
	CourseID    int64           `json:"course_id"`
	CourseName  string          `json:"course_name"`
	SectionID   int64           `json:"section_id"`
	SectionName string          `json:"section_name"`
	FacultyID   int64           `json:"faculty_id,omitempty"`
	Scheduled   int             `json:"scheduled"`
	Required    int             `json:"required"`
	Reason      ShortfallReason `json:"reason"`
	// Fallback 是否有课次由兜底放置产生（insufficient_slots 时也可能为 true）
	Fallback bool `json:"fallback"`
}
