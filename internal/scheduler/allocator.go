package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// Result 一次分配的完整输出
type Result struct {
	Slots      []Slot      `json:"slots"` // 本次新增的课次
	Kept       int         `json:"kept"`  // 沿用已有结果的课次
	Shortfalls []Shortfall `json:"shortfalls"`
	Stats      Stats       `json:"stats"`
}

// Allocator 时段分配器
// 占用状态保存在实例内，可并行创建多个互不干扰的分配器
type Allocator struct {
	grid  Grid
	chain []Strategy
	state *State
}

// NewAllocator 使用默认策略链与空状态创建分配器
func NewAllocator(g Grid) *Allocator {
	return NewAllocatorWithState(g, NewState())
}

// NewAllocatorWithState 在已有占用状态上继续分配
func NewAllocatorWithState(g Grid, state *State) *Allocator {
	return &Allocator{grid: g, chain: DefaultChain(), state: state}
}

// State 返回分配器持有的状态
func (a *Allocator) State() *State {
	return a.state
}

// Allocate 为每个课程-班级选择任课教师并放置每周课次
//
// index 为课程 → 任课教师 ID（通常来自 Backfill）。
// 状态中已有的课次计入所需课次，已排满的课程-班级直接跳过。
// 处理顺序：班级按 ID 升序；同一班级内实验/项目课在前，其余按课程 ID 升序。
// 分配从不失败，未满足的课次记入 Shortfalls。
func (a *Allocator) Allocate(in Input, index map[int64][]int64) *Result {
	courses := lo.KeyBy(in.Courses, func(c Course) int64 { return c.ID })
	sections := lo.KeyBy(in.Sections, func(s Section) int64 { return s.ID })

	pairs := orderPairs(lo.Uniq(in.CourseSections), courses)

	res := &Result{Slots: []Slot{}, Shortfalls: []Shortfall{}}
	required := 0

	for _, cs := range pairs {
		course, okCourse := courses[cs.CourseID]
		section, okSection := sections[cs.SectionID]
		if !okCourse || !okSection {
			// 课程或班级缺失时无法确定课次，不计入 Required
			res.Shortfalls = append(res.Shortfalls, Shortfall{
				CourseID:    cs.CourseID,
				CourseName:  course.Name,
				SectionID:   cs.SectionID,
				SectionName: section.Name,
				Reason:      ReasonMissingReference,
			})
			continue
		}

		policy := PolicyFor(course.Name)
		kept := a.state.Placed(course.ID, section.ID)
		if kept >= policy.Sessions {
			res.Kept += policy.Sessions
			continue
		}
		res.Kept += kept
		required += policy.Sessions - kept

		// 已有课次沿用原教师
		facultyID, ok := a.state.Teacher(course.ID, section.ID)
		if !ok {
			candidates := index[course.ID]
			if len(candidates) == 0 {
				res.Shortfalls = append(res.Shortfalls, Shortfall{
					CourseID:    course.ID,
					CourseName:  course.Name,
					SectionID:   section.ID,
					SectionName: section.Name,
					Scheduled:   kept,
					Required:    policy.Sessions,
					Reason:      ReasonNoFaculty,
				})
				continue
			}
			facultyID = a.pickFaculty(candidates)
		}

		p := &placement{
			course:    course,
			section:   section,
			facultyID: facultyID,
			policy:    policy,
			kept:      kept,
		}
		for _, st := range a.chain {
			if p.remaining() == 0 {
				break
			}
			st.apply(a.grid, a.state, p)
		}
		res.Slots = append(res.Slots, p.slots...)

		if sf, ok := a.review(p); ok {
			res.Shortfalls = append(res.Shortfalls, sf)
		}
	}

	res.Stats = BuildStats(in, a.grid, res.Slots, required)
	res.Stats.ShortfallCount = len(res.Shortfalls)
	return res
}

// pickFaculty 课时最少的任课教师，并列时取靠前者
func (a *Allocator) pickFaculty(candidates []int64) int64 {
	return lo.MinBy(candidates, func(x, y int64) bool {
		return a.state.Load(x) < a.state.Load(y)
	})
}

// review 检查放置结果是否需要记入缺口
func (a *Allocator) review(p *placement) (Shortfall, bool) {
	fallback := lo.SomeBy(p.slots, func(s Slot) bool {
		if s.Strategy == StrategyAnySlot {
			return true
		}
		return p.policy.Kind == KindLab && !a.grid.IsLabDay(s.Day)
	})

	sf := Shortfall{
		CourseID:    p.course.ID,
		CourseName:  p.course.Name,
		SectionID:   p.section.ID,
		SectionName: p.section.Name,
		FacultyID:   p.facultyID,
		Scheduled:   p.kept + len(p.slots),
		Required:    p.policy.Sessions,
		Fallback:    fallback,
	}
	switch {
	case p.remaining() > 0:
		sf.Reason = ReasonInsufficientSlots
	case fallback:
		sf.Reason = ReasonFallbackPlacement
	default:
		return Shortfall{}, false
	}
	return sf, true
}

// orderPairs 班级优先排序，班级内实验/项目课在前
func orderPairs(pairs []CourseSection, courses map[int64]Course) []CourseSection {
	out := append([]CourseSection(nil), pairs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		si := PolicyFor(courses[out[i].CourseID].Name).Special()
		sj := PolicyFor(courses[out[j].CourseID].Name).Special()
		if si != sj {
			return si
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out
}

// Run 便捷入口：补充任课 + 分配
func Run(in Input, g Grid, maxBackfill int) (*Result, BackfillResult) {
	bf := Backfill(in, maxBackfill)
	return NewAllocator(g).Allocate(in, bf.Index), bf
}
