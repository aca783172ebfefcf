package service

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
)

var errMockStorage = errors.New("mock storage failure")

// ── Mock DepartmentRepository ──

type mockDeptRepo struct {
	depts map[int64]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[int64]*model.Department)}
}

func (m *mockDeptRepo) GetByID(_ context.Context, id int64) (*model.Department, error) {
	if d, ok := m.depts[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) ListAll(_ context.Context) ([]model.Department, error) {
	var out []model.Department
	for _, d := range m.depts {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Mock ClassRepository ──

type mockClassRepo struct {
	classes []model.Class
}

func (m *mockClassRepo) ListAll(_ context.Context) ([]model.Class, error) {
	return m.classes, nil
}

// ── Mock SectionRepository ──

type mockSectionRepo struct {
	sections []model.Section
}

func (m *mockSectionRepo) GetByID(_ context.Context, id int64) (*model.Section, error) {
	for i := range m.sections {
		if m.sections[i].ID == id {
			s := m.sections[i]
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSectionRepo) ListAll(_ context.Context) ([]model.Section, error) {
	return m.sections, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses []model.Course
	err     error
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	return m.courses, m.err
}

// ── Mock CourseSectionRepository ──

type mockCourseSectionRepo struct {
	rows []model.CourseSection
}

func (m *mockCourseSectionRepo) ListAll(_ context.Context) ([]model.CourseSection, error) {
	return m.rows, nil
}

// ── Mock FacultyRepository ──

type mockFacultyRepo struct {
	faculty []model.Faculty
}

func (m *mockFacultyRepo) GetByID(_ context.Context, id int64) (*model.Faculty, error) {
	for i := range m.faculty {
		if m.faculty[i].ID == id {
			f := m.faculty[i]
			return &f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) ListAll(_ context.Context) ([]model.Faculty, error) {
	return m.faculty, nil
}

// ── Mock FacultyCourseRepository ──

type mockFacultyCourseRepo struct {
	rows []model.FacultyCourseAssignment
}

func (m *mockFacultyCourseRepo) ListAll(_ context.Context) ([]model.FacultyCourseAssignment, error) {
	return m.rows, nil
}

func (m *mockFacultyCourseRepo) BatchCreate(_ context.Context, rows []model.FacultyCourseAssignment, _ int) (int64, error) {
	var n int64
	for _, r := range rows {
		dup := false
		for _, e := range m.rows {
			if e.FacultyID == r.FacultyID && e.CourseID == r.CourseID {
				dup = true
				break
			}
		}
		if !dup {
			r.ID = int64(len(m.rows) + 1)
			m.rows = append(m.rows, r)
			n++
		}
	}
	return n, nil
}

// ── Mock ScheduleSlotRepository ──

type mockSlotRepo struct {
	slots     []model.ScheduleSlot
	failBatch int // 第 n 批（从 1 开始）写入失败，0 表示不失败
	batches   int
	courses   map[int64]*model.Course
	faculty   map[int64]*model.Faculty
	sections  map[int64]*model.Section
}

func newMockSlotRepo() *mockSlotRepo {
	return &mockSlotRepo{
		courses:  make(map[int64]*model.Course),
		faculty:  make(map[int64]*model.Faculty),
		sections: make(map[int64]*model.Section),
	}
}

func (m *mockSlotRepo) conflicts(s model.ScheduleSlot) bool {
	for _, e := range m.slots {
		if e.DayOfWeek != s.DayOfWeek || e.StartTime != s.StartTime {
			continue
		}
		if e.SectionID == s.SectionID || e.FacultyID == s.FacultyID {
			return true
		}
	}
	return false
}

func (m *mockSlotRepo) BulkInsert(_ context.Context, slots []model.ScheduleSlot, batchSize int) (int64, error) {
	var inserted int64
	for start := 0; start < len(slots); start += batchSize {
		end := min(start+batchSize, len(slots))
		m.batches++
		if m.failBatch > 0 && m.batches == m.failBatch {
			return inserted, errMockStorage
		}
		for _, s := range slots[start:end] {
			if m.conflicts(s) {
				continue
			}
			s.ID = int64(len(m.slots) + 1)
			m.slots = append(m.slots, s)
			inserted++
		}
	}
	return inserted, nil
}

func (m *mockSlotRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(m.slots))
	m.slots = nil
	return n, nil
}

func (m *mockSlotRepo) hydrate(s model.ScheduleSlot) model.ScheduleSlot {
	s.Course = m.courses[s.CourseID]
	s.Faculty = m.faculty[s.FacultyID]
	s.Section = m.sections[s.SectionID]
	return s
}

func (m *mockSlotRepo) filter(keep func(model.ScheduleSlot) bool) []model.ScheduleSlot {
	var out []model.ScheduleSlot
	for _, s := range m.slots {
		if keep(s) {
			out = append(out, m.hydrate(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].SlotIndex < out[j].SlotIndex
	})
	return out
}

func (m *mockSlotRepo) ListBySection(_ context.Context, sectionID int64) ([]model.ScheduleSlot, error) {
	return m.filter(func(s model.ScheduleSlot) bool { return s.SectionID == sectionID }), nil
}

func (m *mockSlotRepo) ListByFaculty(_ context.Context, facultyID int64) ([]model.ScheduleSlot, error) {
	return m.filter(func(s model.ScheduleSlot) bool { return s.FacultyID == facultyID }), nil
}

func (m *mockSlotRepo) List(_ context.Context, f repository.SlotFilter) ([]model.ScheduleSlot, int64, error) {
	all := m.filter(func(s model.ScheduleSlot) bool {
		return (f.SectionID == 0 || s.SectionID == f.SectionID) &&
			(f.FacultyID == 0 || s.FacultyID == f.FacultyID) &&
			(f.CourseID == 0 || s.CourseID == f.CourseID) &&
			(f.Day == 0 || s.DayOfWeek == f.Day)
	})
	total := int64(len(all))
	start := (f.Page - 1) * f.PageSize
	if start >= len(all) {
		return []model.ScheduleSlot{}, total, nil
	}
	end := min(start+f.PageSize, len(all))
	return all[start:end], total, nil
}

func (m *mockSlotRepo) ListAll(_ context.Context) ([]model.ScheduleSlot, error) {
	return m.filter(func(model.ScheduleSlot) bool { return true }), nil
}

func (m *mockSlotRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.slots)), nil
}

// ── Mock ScheduleRunRepository ──

type mockRunRepo struct {
	runs  map[string]*model.ScheduleRun
	order []string
}

func newMockRunRepo() *mockRunRepo {
	return &mockRunRepo{runs: make(map[string]*model.ScheduleRun)}
}

func (m *mockRunRepo) Create(_ context.Context, run *model.ScheduleRun) error {
	cp := *run
	m.runs[run.RunID] = &cp
	m.order = append(m.order, run.RunID)
	return nil
}

func (m *mockRunRepo) Update(_ context.Context, run *model.ScheduleRun) error {
	if _, ok := m.runs[run.RunID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *run
	m.runs[run.RunID] = &cp
	return nil
}

func (m *mockRunRepo) GetByID(_ context.Context, runID string) (*model.ScheduleRun, error) {
	if r, ok := m.runs[runID]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRunRepo) GetLatest(_ context.Context) (*model.ScheduleRun, error) {
	if len(m.order) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return m.runs[m.order[len(m.order)-1]], nil
}

// ── 测试数据集 ──

type mockStore struct {
	repo     *repository.Repository
	depts    *mockDeptRepo
	courses  *mockCourseRepo
	sections *mockSectionRepo
	faculty  *mockFacultyRepo
	pairs    *mockCourseSectionRepo
	assign   *mockFacultyCourseRepo
	slots    *mockSlotRepo
	runs     *mockRunRepo
}

// newMockStore 1 个院系、1 个行政班、2 个教学班；
// 课程：Algorithms、Algorithms Lab、Capstone Project（无任课教师，需补充）
func newMockStore() *mockStore {
	st := &mockStore{
		depts: newMockDeptRepo(),
		courses: &mockCourseRepo{courses: []model.Course{
			{ID: 1, Name: "Algorithms", DepartmentID: 1},
			{ID: 2, Name: "Algorithms Lab", DepartmentID: 1},
			{ID: 3, Name: "Capstone Project", DepartmentID: 1},
		}},
		sections: &mockSectionRepo{sections: []model.Section{
			{ID: 1, Name: "A", ClassID: 1},
			{ID: 2, Name: "B", ClassID: 1},
		}},
		faculty: &mockFacultyRepo{faculty: []model.Faculty{
			{ID: 1, Name: "Ada", DepartmentID: 1},
			{ID: 2, Name: "Alan", DepartmentID: 1},
		}},
		pairs: &mockCourseSectionRepo{rows: []model.CourseSection{
			{CourseID: 1, SectionID: 1}, {CourseID: 2, SectionID: 1}, {CourseID: 3, SectionID: 1},
			{CourseID: 1, SectionID: 2}, {CourseID: 2, SectionID: 2},
		}},
		assign: &mockFacultyCourseRepo{rows: []model.FacultyCourseAssignment{
			{ID: 1, FacultyID: 1, CourseID: 1}, {ID: 2, FacultyID: 2, CourseID: 1},
			{ID: 3, FacultyID: 1, CourseID: 2}, {ID: 4, FacultyID: 2, CourseID: 2},
		}},
		slots: newMockSlotRepo(),
		runs:  newMockRunRepo(),
	}
	st.depts.depts[1] = &model.Department{ID: 1, Name: "计算机学院"}

	for i := range st.courses.courses {
		st.slots.courses[st.courses.courses[i].ID] = &st.courses.courses[i]
	}
	for i := range st.faculty.faculty {
		st.slots.faculty[st.faculty.faculty[i].ID] = &st.faculty.faculty[i]
	}
	for i := range st.sections.sections {
		st.slots.sections[st.sections.sections[i].ID] = &st.sections.sections[i]
	}

	st.repo = &repository.Repository{
		Department:    st.depts,
		Class:         &mockClassRepo{classes: []model.Class{{ID: 1, Name: "CS-2025", DepartmentID: 1}}},
		Section:       st.sections,
		Course:        st.courses,
		CourseSection: st.pairs,
		Faculty:       st.faculty,
		FacultyCourse: st.assign,
		ScheduleSlot:  st.slots,
		ScheduleRun:   st.runs,
	}
	return st
}
