package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"edusync/backend/internal/model"
)

// FacultyRepository 教师数据访问接口
type FacultyRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Faculty, error)
	// ListAll 按 ID 升序，即教师名册顺序
	ListAll(ctx context.Context) ([]model.Faculty, error)
}

type facultyRepo struct {
	db *gorm.DB
}

// NewFacultyRepo 创建 FacultyRepository 实例
func NewFacultyRepo(db *gorm.DB) FacultyRepository {
	return &facultyRepo{db: db}
}

func (r *facultyRepo) GetByID(ctx context.Context, id int64) (*model.Faculty, error) {
	var f model.Faculty
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facultyRepo) ListAll(ctx context.Context) ([]model.Faculty, error) {
	var list []model.Faculty
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// FacultyCourseRepository 任课关系数据访问接口
type FacultyCourseRepository interface {
	ListAll(ctx context.Context) ([]model.FacultyCourseAssignment, error)
	// BatchCreate 批量写入，(faculty_id, course_id) 冲突时跳过；返回实际写入条数
	BatchCreate(ctx context.Context, rows []model.FacultyCourseAssignment, batchSize int) (int64, error)
}

type facultyCourseRepo struct {
	db *gorm.DB
}

// NewFacultyCourseRepo 创建 FacultyCourseRepository 实例
func NewFacultyCourseRepo(db *gorm.DB) FacultyCourseRepository {
	return &facultyCourseRepo{db: db}
}

func (r *facultyCourseRepo) ListAll(ctx context.Context) ([]model.FacultyCourseAssignment, error) {
	var rows []model.FacultyCourseAssignment
	err := r.db.WithContext(ctx).
		Order("course_id ASC, faculty_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *facultyCourseRepo) BatchCreate(ctx context.Context, rows []model.FacultyCourseAssignment, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "faculty_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, batchSize)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return tx.RowsAffected, nil
}
