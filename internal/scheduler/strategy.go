package scheduler

// StrategyKind 排课放置策略
type StrategyKind string

const (
	// StrategyPreferredDay 仅在课程的优先日期内放置（实验课 → 实验日），只看教师与班级是否空闲
	StrategyPreferredDay StrategyKind = "preferred_day"
	// StrategyDistinctDay 按工作日顺序放置，同一教师同一课程每天至多一次
	StrategyDistinctDay StrategyKind = "distinct_day"
	// StrategyAnySlot 兜底：取消分天约束，按 (day, slot) 顺序首次适配
	StrategyAnySlot StrategyKind = "any_slot"
)

// Strategy 策略链中的一环
type Strategy struct {
	Kind StrategyKind
	// Days 本策略可扫描的日期（按顺序）；为空则跳过
	Days func(g Grid, p Policy) []int
	// Distinct 是否限制同一教师同一课程每天一次
	Distinct bool
}

// DefaultChain PreferredDay → DistinctDay → AnySlot
func DefaultChain() []Strategy {
	return []Strategy{
		{
			Kind: StrategyPreferredDay,
			Days: func(g Grid, p Policy) []int { return p.PreferredDays(g) },
		},
		{
			Kind:     StrategyDistinctDay,
			Days:     func(g Grid, _ Policy) []int { return g.Weekdays },
			Distinct: true,
		},
		{
			Kind: StrategyAnySlot,
			Days: func(g Grid, _ Policy) []int { return g.Weekdays },
		},
	}
}

// placement 单个课程-班级的放置上下文
type placement struct {
	course    Course
	section   Section
	facultyID int64
	policy    Policy
	kept      int // 已有结果中的课次
	slots     []Slot
}

func (p *placement) remaining() int {
	return p.policy.Sessions - p.kept - len(p.slots)
}

// apply 执行单个策略：首次适配，不回溯
func (st Strategy) apply(g Grid, state *State, p *placement) {
	for _, day := range st.Days(g, p.policy) {
		if p.remaining() == 0 {
			return
		}
		if st.Distinct && state.TeachesOn(p.course.ID, p.facultyID, day) {
			continue
		}
		for _, ts := range g.Slots {
			if p.remaining() == 0 {
				return
			}
			if !state.Free(p.facultyID, p.section.ID, day, ts.Index) {
				continue
			}
			state.Occupy(p.course.ID, p.facultyID, p.section.ID, day, ts.Index)
			p.slots = append(p.slots, Slot{
				CourseID:  p.course.ID,
				FacultyID: p.facultyID,
				ClassID:   p.section.ClassID,
				SectionID: p.section.ID,
				Day:       day,
				SlotIndex: ts.Index,
				Start:     ts.Start,
				End:       ts.End,
				Strategy:  st.Kind,
			})
			if st.Distinct {
				break
			}
		}
	}
}
