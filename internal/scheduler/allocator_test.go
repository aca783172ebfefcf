package scheduler

import (
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func slotsOf(res *Result, courseID, sectionID int64) []Slot {
	return lo.Filter(res.Slots, func(s Slot, _ int) bool {
		return s.CourseID == courseID && s.SectionID == sectionID
	})
}

func TestAllocate_LabAndRegularScenario(t *testing.T) {
	in := Input{
		Courses: []Course{
			{ID: 1, Name: "Algorithms", DepartmentID: 1},
			{ID: 2, Name: "Algorithms Lab", DepartmentID: 1},
		},
		Sections: []Section{{ID: 1, Name: "CS-A", ClassID: 10, DepartmentID: 1}},
		Faculty: []Faculty{
			{ID: 1, Name: "Ada", DepartmentID: 1},
			{ID: 2, Name: "Alan", DepartmentID: 1},
		},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}, {CourseID: 2, SectionID: 1}},
		Assignments: []Assignment{
			{FacultyID: 1, CourseID: 1}, {FacultyID: 2, CourseID: 1},
			{FacultyID: 1, CourseID: 2}, {FacultyID: 2, CourseID: 2},
		},
	}

	res, bf := Run(in, DefaultGrid(), DefaultMaxBackfill)

	assert.Empty(t, bf.Added)
	assert.Empty(t, res.Shortfalls)
	assert.Empty(t, Verify(res.Slots))

	lab := slotsOf(res, 2, 1)
	require.Len(t, lab, 1)
	assert.Contains(t, []int{4, 5}, lab[0].Day)
	assert.Equal(t, StrategyPreferredDay, lab[0].Strategy)

	regular := slotsOf(res, 1, 1)
	require.Len(t, regular, 2)
	assert.NotEqual(t, regular[0].Day, regular[1].Day)

	// 实验课先排：教师 1 取实验课，教师 2 因课时更少接下常规课
	assert.Equal(t, int64(1), lab[0].FacultyID)
	assert.Equal(t, int64(2), regular[0].FacultyID)
	assert.Equal(t, int64(2), regular[1].FacultyID)

	assert.Equal(t, 3, res.Stats.Required)
	assert.Equal(t, 3, res.Stats.Scheduled)
	assert.Equal(t, 1, res.Stats.LabSessions)
	assert.Equal(t, 2, res.Stats.RegularSessions)
	assert.Equal(t, 3, res.Stats.MinPerSection)
	assert.Equal(t, 3, res.Stats.MaxPerSection)
	assert.Equal(t, map[int64]int{1: 3}, res.Stats.ByDepartment)
}

func TestAllocate_EmptyRoster(t *testing.T) {
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Ethics", DepartmentID: 5}},
		Sections:       []Section{{ID: 1, Name: "S1", ClassID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}},
	}

	var res *Result
	require.NotPanics(t, func() { res, _ = Run(in, DefaultGrid(), DefaultMaxBackfill) })

	assert.Empty(t, res.Slots)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, ReasonNoFaculty, res.Shortfalls[0].Reason)
	assert.Equal(t, 0, res.Shortfalls[0].Scheduled)
	assert.Equal(t, 2, res.Shortfalls[0].Required)
	assert.Equal(t, 1, res.Stats.ShortfallCount)
}

func TestAllocate_LeastLoadedFaculty(t *testing.T) {
	in := Input{
		Courses:  []Course{{ID: 1, Name: "Calculus", DepartmentID: 1}},
		Sections: []Section{{ID: 1, ClassID: 1}, {ID: 2, ClassID: 1}, {ID: 3, ClassID: 1}},
		CourseSections: []CourseSection{
			{CourseID: 1, SectionID: 3},
			{CourseID: 1, SectionID: 1},
			{CourseID: 1, SectionID: 2},
		},
	}
	index := map[int64][]int64{1: {20, 30}}

	res := NewAllocator(DefaultGrid()).Allocate(in, index)

	assert.Equal(t, int64(20), slotsOf(res, 1, 1)[0].FacultyID)
	assert.Equal(t, int64(30), slotsOf(res, 1, 2)[0].FacultyID)
	// 两人各 2 课时，并列时取靠前者
	assert.Equal(t, int64(20), slotsOf(res, 1, 3)[0].FacultyID)
	assert.Empty(t, Verify(res.Slots))
}

func TestAllocate_DistinctDayAcrossSections(t *testing.T) {
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Physics"}},
		Sections:       []Section{{ID: 1}, {ID: 2}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}, {CourseID: 1, SectionID: 2}},
	}

	res := NewAllocator(DefaultGrid()).Allocate(in, map[int64][]int64{1: {1}})

	first := slotsOf(res, 1, 1)
	second := slotsOf(res, 1, 2)
	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, []int{1, 2}, []int{first[0].Day, first[1].Day})
	// 同一教师同一课程当天已上过，第二个班级顺延到周三、周四
	assert.Equal(t, []int{3, 4}, []int{second[0].Day, second[1].Day})
	assert.Empty(t, res.Shortfalls)
}

func TestAllocate_LabOffLabDayIsFlagged(t *testing.T) {
	g := DefaultGrid()
	state := NewState()
	for _, day := range g.LabDays {
		for _, ts := range g.Slots {
			state.Occupy(99, 99, 1, day, ts.Index)
		}
	}
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Chemistry Lab"}},
		Sections:       []Section{{ID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}},
	}

	res := NewAllocatorWithState(g, state).Allocate(in, map[int64][]int64{1: {5}})

	require.Len(t, res.Slots, 1)
	assert.Equal(t, 1, res.Slots[0].Day)
	assert.Equal(t, StrategyDistinctDay, res.Slots[0].Strategy)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, ReasonFallbackPlacement, res.Shortfalls[0].Reason)
	assert.True(t, res.Shortfalls[0].Fallback)
}

func TestAllocate_AnySlotFallback(t *testing.T) {
	g := Grid{
		Weekdays: []int{1},
		Slots:    []TimeSlot{{Index: 0, Start: "08:00", End: "09:30"}, {Index: 1, Start: "09:45", End: "11:15"}},
	}
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Statistics"}},
		Sections:       []Section{{ID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}},
	}

	res := NewAllocator(g).Allocate(in, map[int64][]int64{1: {1}})

	require.Len(t, res.Slots, 2)
	assert.Equal(t, StrategyDistinctDay, res.Slots[0].Strategy)
	assert.Equal(t, StrategyAnySlot, res.Slots[1].Strategy)
	assert.Equal(t, res.Slots[0].Day, res.Slots[1].Day)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, ReasonFallbackPlacement, res.Shortfalls[0].Reason)
	assert.Empty(t, Verify(res.Slots))
}

func TestAllocate_InsufficientSlots(t *testing.T) {
	g := Grid{Weekdays: []int{1}, Slots: []TimeSlot{{Index: 0, Start: "08:00", End: "09:30"}}}
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Statistics"}, {ID: 2, Name: "Geometry"}},
		Sections:       []Section{{ID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}, {CourseID: 2, SectionID: 1}},
	}

	res := NewAllocator(g).Allocate(in, map[int64][]int64{1: {1}, 2: {2}})

	require.Len(t, res.Slots, 1)
	require.Len(t, res.Shortfalls, 2)
	assert.Equal(t, ReasonInsufficientSlots, res.Shortfalls[0].Reason)
	assert.Equal(t, 1, res.Shortfalls[0].Scheduled)
	assert.False(t, res.Shortfalls[0].Fallback)
	assert.Equal(t, ReasonInsufficientSlots, res.Shortfalls[1].Reason)
	assert.Equal(t, 0, res.Shortfalls[1].Scheduled)
	assert.Equal(t, 4, res.Stats.Required)
	assert.Equal(t, 1, res.Stats.Scheduled)
}

func TestAllocate_MissingReference(t *testing.T) {
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Statistics"}},
		Sections:       []Section{{ID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 2}, {CourseID: 3, SectionID: 1}},
	}

	res := NewAllocator(DefaultGrid()).Allocate(in, map[int64][]int64{1: {1}, 3: {1}})

	assert.Empty(t, res.Slots)
	require.Len(t, res.Shortfalls, 2)
	for _, sf := range res.Shortfalls {
		assert.Equal(t, ReasonMissingReference, sf.Reason)
		assert.Zero(t, sf.Required)
	}
	assert.Zero(t, res.Stats.Required)
}

func TestAllocate_SharedLabFacultyStaysOnLabDays(t *testing.T) {
	in := Input{Courses: []Course{{ID: 1, Name: "Physics Lab"}}}
	for id := int64(1); id <= 3; id++ {
		in.Sections = append(in.Sections, Section{ID: id})
		in.CourseSections = append(in.CourseSections, CourseSection{CourseID: 1, SectionID: id})
	}

	res := NewAllocator(DefaultGrid()).Allocate(in, map[int64][]int64{1: {7}})

	assert.Empty(t, res.Shortfalls)
	for id := int64(1); id <= 3; id++ {
		slots := slotsOf(res, 1, id)
		require.Len(t, slots, 1)
		// 周四仍有空闲时段，同一教师的其他班级依次排入
		assert.Equal(t, 4, slots[0].Day)
		assert.Equal(t, int(id-1), slots[0].SlotIndex)
		assert.Equal(t, StrategyPreferredDay, slots[0].Strategy)
	}
}

func TestAllocate_LabSpillsOnlyWhenLabDaysAreFull(t *testing.T) {
	g := DefaultGrid()
	labCells := len(g.LabDays) * len(g.Slots)

	in := Input{Courses: []Course{{ID: 1, Name: "Chemistry Lab"}}}
	for id := int64(1); id <= int64(labCells)+1; id++ {
		in.Sections = append(in.Sections, Section{ID: id})
		in.CourseSections = append(in.CourseSections, CourseSection{CourseID: 1, SectionID: id})
	}

	res := NewAllocator(g).Allocate(in, map[int64][]int64{1: {7}})

	require.Len(t, res.Slots, labCells+1)
	for _, s := range res.Slots[:labCells] {
		assert.True(t, g.IsLabDay(s.Day), "实验日未排满前不应溢出: %+v", s)
	}
	last := res.Slots[labCells]
	assert.False(t, g.IsLabDay(last.Day))
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, int64(labCells+1), res.Shortfalls[0].SectionID)
	assert.Equal(t, ReasonFallbackPlacement, res.Shortfalls[0].Reason)
}

func TestAllocate_ContinuesFromExistingSlots(t *testing.T) {
	in := Input{
		Courses: []Course{
			{ID: 1, Name: "Algorithms"},
			{ID: 2, Name: "Algorithms Lab"},
			{ID: 3, Name: "Databases"},
		},
		Sections: []Section{{ID: 1}},
		CourseSections: []CourseSection{
			{CourseID: 1, SectionID: 1},
			{CourseID: 2, SectionID: 1},
			{CourseID: 3, SectionID: 1},
		},
	}
	existing := []Slot{
		{CourseID: 1, FacultyID: 2, SectionID: 1, Day: 1, SlotIndex: 0},
		{CourseID: 1, FacultyID: 2, SectionID: 1, Day: 2, SlotIndex: 0},
		{CourseID: 3, FacultyID: 2, SectionID: 1, Day: 3, SlotIndex: 0},
	}
	state := StateFromSlots(existing)
	require.Equal(t, 2, state.Placed(1, 1))

	res := NewAllocatorWithState(DefaultGrid(), state).Allocate(in, map[int64][]int64{1: {1, 2}, 2: {1}, 3: {1}})

	assert.Empty(t, slotsOf(res, 1, 1), "已排满的课程-班级不应再排")
	assert.Len(t, slotsOf(res, 2, 1), 1)

	databases := slotsOf(res, 3, 1)
	require.Len(t, databases, 1)
	// 沿用已有课次的教师，且不与周三那次同一天
	assert.Equal(t, int64(2), databases[0].FacultyID)
	assert.NotEqual(t, 3, databases[0].Day)

	assert.Equal(t, 3, res.Kept)
	assert.Equal(t, 2, res.Stats.Required)
	assert.Equal(t, 2, res.Stats.Scheduled)
	assert.Empty(t, res.Shortfalls)
	assert.Empty(t, Verify(append(existing, res.Slots...)))
}

func TestAllocate_SpecialCoursesFirstWithinSection(t *testing.T) {
	in := Input{
		Courses: []Course{
			{ID: 1, Name: "Databases"},
			{ID: 2, Name: "Team Project"},
			{ID: 3, Name: "Networks Lab"},
		},
		Sections: []Section{{ID: 1}},
		CourseSections: []CourseSection{
			{CourseID: 1, SectionID: 1},
			{CourseID: 2, SectionID: 1},
			{CourseID: 3, SectionID: 1},
		},
	}

	res := NewAllocator(DefaultGrid()).Allocate(in, map[int64][]int64{1: {1}, 2: {1}, 3: {1}})

	order := lo.Uniq(lo.Map(res.Slots, func(s Slot, _ int) int64 { return s.CourseID }))
	assert.Equal(t, []int64{2, 3, 1}, order)
}

// buildCampus 生成一个中等规模、存在资源竞争的数据集
func buildCampus() Input {
	var in Input
	names := []string{"Algorithms", "Algorithms Lab", "Databases", "Capstone Project", "Operating Systems", "Networks Lab", "Calculus"}
	for i, name := range names {
		in.Courses = append(in.Courses, Course{ID: int64(i + 1), Name: name, DepartmentID: int64(i%2 + 1)})
	}
	for f := 1; f <= 4; f++ {
		in.Faculty = append(in.Faculty, Faculty{ID: int64(f), Name: fmt.Sprintf("F%d", f), DepartmentID: int64(f%2 + 1)})
	}
	for s := 1; s <= 6; s++ {
		in.Sections = append(in.Sections, Section{ID: int64(s), Name: fmt.Sprintf("S%d", s), ClassID: int64(s%3 + 1)})
		for _, c := range in.Courses {
			in.CourseSections = append(in.CourseSections, CourseSection{CourseID: c.ID, SectionID: int64(s)})
		}
	}
	in.Assignments = []Assignment{{FacultyID: 1, CourseID: 1}, {FacultyID: 3, CourseID: 1}}
	return in
}

// labCellFree 实验日中是否仍有教师与班级均空闲的单元
func labCellFree(slots []Slot, g Grid, facultyID, sectionID int64) bool {
	busy := make(map[cell]bool)
	for _, s := range slots {
		if s.FacultyID == facultyID || s.SectionID == sectionID {
			busy[cell{s.Day, s.SlotIndex}] = true
		}
	}
	for _, day := range g.LabDays {
		for _, ts := range g.Slots {
			if !busy[cell{day, ts.Index}] {
				return true
			}
		}
	}
	return false
}

func TestAllocate_Properties(t *testing.T) {
	in := buildCampus()
	g := DefaultGrid()
	res, _ := Run(in, g, DefaultMaxBackfill)

	require.NotEmpty(t, res.Slots)
	assert.Empty(t, Verify(res.Slots), "教师或班级出现重复占用")

	flagged := lo.SliceToMap(
		lo.Filter(res.Shortfalls, func(sf Shortfall, _ int) bool { return sf.Fallback }),
		func(sf Shortfall) (CourseSection, bool) {
			return CourseSection{CourseID: sf.CourseID, SectionID: sf.SectionID}, true
		},
	)
	courses := lo.KeyBy(in.Courses, func(c Course) int64 { return c.ID })

	for _, cs := range lo.Uniq(in.CourseSections) {
		slots := slotsOf(res, cs.CourseID, cs.SectionID)
		policy := PolicyFor(courses[cs.CourseID].Name)
		// 实验课只有在教师或班级的实验日单元全部占满时才可溢出
		if policy.Kind == KindLab {
			for _, s := range slots {
				if !g.IsLabDay(s.Day) {
					assert.False(t, labCellFree(res.Slots, g, s.FacultyID, s.SectionID), "实验课 %v 在实验日仍有空闲时溢出", cs)
				}
			}
		}
		if flagged[cs] {
			continue
		}
		switch policy.Kind {
		case KindRegular:
			if len(slots) == 2 {
				assert.NotEqual(t, slots[0].Day, slots[1].Day, "常规课 %v 两次课在同一天", cs)
			}
		}
	}

	assert.Equal(t, len(res.Slots), res.Stats.Scheduled)
	assert.Equal(t, len(res.Slots), lo.Sum(lo.Values(res.Stats.ByDay)))
	assert.Equal(t, len(res.Slots), res.Stats.LabSessions+res.Stats.ProjectSessions+res.Stats.RegularSessions)
	assert.LessOrEqual(t, res.Stats.MinPerSection, res.Stats.MaxPerSection)
}

func TestAllocate_Deterministic(t *testing.T) {
	in := buildCampus()

	first, bf1 := Run(in, DefaultGrid(), DefaultMaxBackfill)
	second, bf2 := Run(in, DefaultGrid(), DefaultMaxBackfill)

	assert.Equal(t, bf1.Added, bf2.Added)
	assert.Equal(t, first.Slots, second.Slots)
	assert.Equal(t, first.Shortfalls, second.Shortfalls)

	// 任课关系全部落库后再次运行，教师选择不变
	in.Assignments = append(in.Assignments, bf1.Added...)
	third, bf3 := Run(in, DefaultGrid(), DefaultMaxBackfill)
	assert.Empty(t, bf3.Added)
	assert.Equal(t, first.Slots, third.Slots)
}

func TestAllocator_StateIsolation(t *testing.T) {
	in := Input{
		Courses:        []Course{{ID: 1, Name: "Physics"}},
		Sections:       []Section{{ID: 1}},
		CourseSections: []CourseSection{{CourseID: 1, SectionID: 1}},
	}
	index := map[int64][]int64{1: {1}}

	a := NewAllocator(DefaultGrid())
	b := NewAllocator(DefaultGrid())
	ra := a.Allocate(in, index)
	rb := b.Allocate(in, index)

	assert.Equal(t, ra.Slots, rb.Slots)
	assert.Equal(t, 2, a.State().Load(1))
	assert.Equal(t, 2, b.State().Load(1))
	assert.Equal(t, 2, a.State().sectionBusyCount(1))
}
