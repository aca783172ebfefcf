package scheduler

import (
	"github.com/samber/lo"
)

// Stats 运行结束后的汇总，供人工复核
// Required 与 Scheduled 只计本次新排的课次，沿用的已有课次见 Result.Kept
type Stats struct {
	CourseSections int `json:"course_sections"`
	Required       int `json:"required"`
	Scheduled      int `json:"scheduled"`
	ShortfallCount int `json:"shortfall_count"`

	ByDepartment map[int64]int `json:"by_department"`
	ByDay        map[int]int   `json:"by_day"`
	BySlot       map[int]int   `json:"by_slot"`

	LabSessions     int `json:"lab_sessions"`
	ProjectSessions int `json:"project_sessions"`
	RegularSessions int `json:"regular_sessions"`

	// 每个班级的课次（包含一节未排上的班级）
	MinPerSection int `json:"min_per_section"`
	MaxPerSection int `json:"max_per_section"`

	// 网格利用率（已排课次 / 班级数 × 单元数）
	Utilization float64 `json:"utilization"`
}

// BuildStats 统计排课结果
func BuildStats(in Input, g Grid, slots []Slot, required int) Stats {
	courses := lo.KeyBy(in.Courses, func(c Course) int64 { return c.ID })
	pairs := lo.Uniq(in.CourseSections)

	st := Stats{
		CourseSections: len(pairs),
		Required:       required,
		Scheduled:      len(slots),
		ByDepartment:   lo.CountValuesBy(slots, func(s Slot) int64 { return courses[s.CourseID].DepartmentID }),
		ByDay:          lo.CountValuesBy(slots, func(s Slot) int { return s.Day }),
		BySlot:         lo.CountValuesBy(slots, func(s Slot) int { return s.SlotIndex }),
	}

	for _, s := range slots {
		switch PolicyFor(courses[s.CourseID].Name).Kind {
		case KindLab:
			st.LabSessions++
		case KindProject:
			st.ProjectSessions++
		default:
			st.RegularSessions++
		}
	}

	sectionIDs := lo.Uniq(lo.Map(pairs, func(cs CourseSection, _ int) int64 { return cs.SectionID }))
	if len(sectionIDs) > 0 {
		perSection := lo.CountValuesBy(slots, func(s Slot) int64 { return s.SectionID })
		counts := lo.Map(sectionIDs, func(id int64, _ int) int { return perSection[id] })
		st.MinPerSection = lo.Min(counts)
		st.MaxPerSection = lo.Max(counts)

		if cells := len(sectionIDs) * g.Cells(); cells > 0 {
			st.Utilization = float64(len(slots)) / float64(cells)
		}
	}
	return st
}

// SpecialRatio 实验/项目课次占比
func (s Stats) SpecialRatio() float64 {
	if s.Scheduled == 0 {
		return 0
	}
	return float64(s.LabSessions+s.ProjectSessions) / float64(s.Scheduled)
}
