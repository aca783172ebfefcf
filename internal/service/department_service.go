package service

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edusync/backend/internal/dto"
	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
)

// ── 院系模块业务错误 ──

var ErrDepartmentNotFound = errors.New("院系不存在")

// DepartmentService 院系目录（只读）
type DepartmentService interface {
	List(ctx context.Context) ([]dto.DepartmentResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.DepartmentDetailResponse, error)
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService 创建 DepartmentService 实例
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// catalog 一次加载院系统计所需的数据
type catalog struct {
	faculty   []model.Faculty
	sections  []model.Section
	courses   []model.Course
	classDept map[int64]int64
}

func (s *departmentService) loadCatalog(ctx context.Context) (*catalog, error) {
	faculty, err := s.repo.Faculty.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	classes, err := s.repo.Class.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sections, err := s.repo.Section.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &catalog{
		faculty:   faculty,
		sections:  sections,
		courses:   courses,
		classDept: lo.SliceToMap(classes, func(c model.Class) (int64, int64) { return c.ID, c.DepartmentID }),
	}, nil
}

// ────────────────────── List ──────────────────────

func (s *departmentService) List(ctx context.Context) ([]dto.DepartmentResponse, error) {
	depts, err := s.repo.Department.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询院系列表失败", zap.Error(err))
		return nil, err
	}
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("加载院系统计失败", zap.Error(err))
		return nil, err
	}

	facultyBy := lo.CountValuesBy(cat.faculty, func(f model.Faculty) int64 { return f.DepartmentID })
	sectionBy := lo.CountValuesBy(cat.sections, func(sec model.Section) int64 { return cat.classDept[sec.ClassID] })
	courseBy := lo.CountValuesBy(cat.courses, func(c model.Course) int64 { return c.DepartmentID })

	return lo.Map(depts, func(d model.Department, _ int) dto.DepartmentResponse {
		return dto.DepartmentResponse{
			ID:           d.ID,
			Name:         d.Name,
			Code:         d.Code,
			FacultyCount: facultyBy[d.ID],
			SectionCount: sectionBy[d.ID],
			CourseCount:  courseBy[d.ID],
		}
	}), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id int64) (*dto.DepartmentDetailResponse, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, err
	}
	cat, err := s.loadCatalog(ctx)
	if err != nil {
		s.logger.Error("加载院系统计失败", zap.Error(err))
		return nil, err
	}

	faculty := lo.Filter(cat.faculty, func(f model.Faculty, _ int) bool { return f.DepartmentID == id })
	sections := lo.Filter(cat.sections, func(sec model.Section, _ int) bool { return cat.classDept[sec.ClassID] == id })

	return &dto.DepartmentDetailResponse{
		DepartmentResponse: dto.DepartmentResponse{
			ID:           dept.ID,
			Name:         dept.Name,
			Code:         dept.Code,
			FacultyCount: len(faculty),
			SectionCount: len(sections),
			CourseCount:  lo.CountBy(cat.courses, func(c model.Course) bool { return c.DepartmentID == id }),
		},
		Faculty: lo.Map(faculty, func(f model.Faculty, _ int) dto.FacultyBrief {
			return dto.FacultyBrief{ID: f.ID, Name: f.Name}
		}),
		Sections: lo.Map(sections, func(sec model.Section, _ int) dto.SectionBrief {
			return dto.SectionBrief{ID: sec.ID, Name: sec.Name, ClassID: sec.ClassID}
		}),
	}, nil
}
