package scheduler

import "strings"

// CourseKind 课程类别
type CourseKind string

const (
	KindLab     CourseKind = "lab"
	KindProject CourseKind = "project"
	KindRegular CourseKind = "regular"
)

// Policy 课程的每周课次策略
type Policy struct {
	Kind     CourseKind
	Sessions int
}

// PolicyFor 根据课程名决定每周课次（区分大小写，先判断 "Lab"）
//   - 含 "Lab"     → 1 次，优先排在实验日
//   - 含 "Project" → 1 次，无日期偏好
//   - 其余         → 2 次，且不能落在同一天
func PolicyFor(courseName string) Policy {
	switch {
	case strings.Contains(courseName, "Lab"):
		return Policy{Kind: KindLab, Sessions: 1}
	case strings.Contains(courseName, "Project"):
		return Policy{Kind: KindProject, Sessions: 1}
	default:
		return Policy{Kind: KindRegular, Sessions: 2}
	}
}

// Special 实验/项目课，在同一班级内优先排课
func (p Policy) Special() bool {
	return p.Kind == KindLab || p.Kind == KindProject
}

// PreferredDays 优先日期；仅实验课有
func (p Policy) PreferredDays(g Grid) []int {
	if p.Kind != KindLab {
		return nil
	}
	return g.LabDays
}
