package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// DefaultMaxBackfill 每门课自动补充任课教师的上限
const DefaultMaxBackfill = 2

// BackfillResult 补充任课结果
type BackfillResult struct {
	// Added 新增的任课关系，需在排课前持久化
	Added []Assignment
	// Index 课程 → 任课教师（按教师 ID 升序，已去重）
	Index map[int64][]int64
	// Fallback 跨院系按取模规则补充的课程
	Fallback []int64
	// Unstaffed 教师名册为空、无法补充的课程
	Unstaffed []int64
}

// Backfill 为没有任课教师的课程补充任课关系
//
// 仅处理出现在 CourseSections 中的课程，按课程 ID 升序：
//  1. 同院系教师按名册顺序取前 maxPerCourse 位；
//  2. 院系内无人时取 roster[course.ID mod len(roster)]；
//  3. 名册为空时记入 Unstaffed，不报错。
//
// 指向名册外教师的任课关系被忽略。
func Backfill(in Input, maxPerCourse int) BackfillResult {
	if maxPerCourse <= 0 {
		maxPerCourse = DefaultMaxBackfill
	}

	roster := in.Faculty
	known := lo.SliceToMap(roster, func(f Faculty) (int64, bool) { return f.ID, true })
	courses := lo.KeyBy(in.Courses, func(c Course) int64 { return c.ID })

	index := make(map[int64][]int64)
	for _, a := range in.Assignments {
		if !known[a.FacultyID] {
			continue
		}
		index[a.CourseID] = append(index[a.CourseID], a.FacultyID)
	}

	res := BackfillResult{Index: index}

	courseIDs := lo.Uniq(lo.Map(in.CourseSections, func(cs CourseSection, _ int) int64 { return cs.CourseID }))
	sort.Slice(courseIDs, func(i, j int) bool { return courseIDs[i] < courseIDs[j] })

	for _, courseID := range courseIDs {
		if len(index[courseID]) > 0 {
			continue
		}
		if len(roster) == 0 {
			res.Unstaffed = append(res.Unstaffed, courseID)
			continue
		}

		var picked []int64
		if course, ok := courses[courseID]; ok {
			sameDept := lo.Filter(roster, func(f Faculty, _ int) bool { return f.DepartmentID == course.DepartmentID })
			picked = lo.Map(lo.Subset(sameDept, 0, uint(maxPerCourse)), func(f Faculty, _ int) int64 { return f.ID })
		}
		if len(picked) == 0 {
			n := int64(len(roster))
			picked = []int64{roster[((courseID%n)+n)%n].ID}
			res.Fallback = append(res.Fallback, courseID)
		}

		for _, fid := range picked {
			res.Added = append(res.Added, Assignment{FacultyID: fid, CourseID: courseID})
			index[courseID] = append(index[courseID], fid)
		}
	}

	for courseID, ids := range index {
		ids = lo.Uniq(ids)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		index[courseID] = ids
	}
	return res
}
