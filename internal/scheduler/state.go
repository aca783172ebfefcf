package scheduler

// cell 网格中的一个 (day, slot) 单元
type cell struct {
	day  int
	slot int
}

type courseDay struct {
	courseID  int64
	facultyID int64
	day       int
}

// State 一次排课运行中跨课程/班级共享的占用状态
// 由 Allocator 持有；不同运行互不影响
type State struct {
	facultyBusy map[int64]map[cell]bool
	sectionBusy map[int64]map[cell]bool
	load        map[int64]int
	courseDays  map[courseDay]bool
	placed      map[CourseSection]int
	teachers    map[CourseSection]int64
}

// NewState 创建空状态
func NewState() *State {
	return &State{
		facultyBusy: make(map[int64]map[cell]bool),
		sectionBusy: make(map[int64]map[cell]bool),
		load:        make(map[int64]int),
		courseDays:  make(map[courseDay]bool),
		placed:      make(map[CourseSection]int),
		teachers:    make(map[CourseSection]int64),
	}
}

// StateFromSlots 以已有排课结果为起点构造状态
func StateFromSlots(slots []Slot) *State {
	s := NewState()
	for _, sl := range slots {
		s.Occupy(sl.CourseID, sl.FacultyID, sl.SectionID, sl.Day, sl.SlotIndex)
	}
	return s
}

// Free 教师与班级在该单元均空闲
func (s *State) Free(facultyID, sectionID int64, day, slot int) bool {
	c := cell{day, slot}
	return !s.facultyBusy[facultyID][c] && !s.sectionBusy[sectionID][c]
}

// Occupy 占用单元并累计教师课时
func (s *State) Occupy(courseID, facultyID, sectionID int64, day, slot int) {
	c := cell{day, slot}
	if s.facultyBusy[facultyID] == nil {
		s.facultyBusy[facultyID] = make(map[cell]bool)
	}
	if s.sectionBusy[sectionID] == nil {
		s.sectionBusy[sectionID] = make(map[cell]bool)
	}
	s.facultyBusy[facultyID][c] = true
	s.sectionBusy[sectionID][c] = true
	s.load[facultyID]++
	s.courseDays[courseDay{courseID, facultyID, day}] = true

	pair := CourseSection{CourseID: courseID, SectionID: sectionID}
	s.placed[pair]++
	if _, ok := s.teachers[pair]; !ok {
		s.teachers[pair] = facultyID
	}
}

// Load 教师已排课次
func (s *State) Load(facultyID int64) int {
	return s.load[facultyID]
}

// TeachesOn 该教师当天是否已上过这门课（跨班级）
func (s *State) TeachesOn(courseID, facultyID int64, day int) bool {
	return s.courseDays[courseDay{courseID, facultyID, day}]
}

// Placed 课程-班级已排课次
func (s *State) Placed(courseID, sectionID int64) int {
	return s.placed[CourseSection{CourseID: courseID, SectionID: sectionID}]
}

// Teacher 课程-班级已排课次所用的教师
func (s *State) Teacher(courseID, sectionID int64) (int64, bool) {
	id, ok := s.teachers[CourseSection{CourseID: courseID, SectionID: sectionID}]
	return id, ok
}

func (s *State) sectionBusyCount(sectionID int64) int {
	return len(s.sectionBusy[sectionID])
}
