package repository

import (
	"context"

	"gorm.io/gorm"

	"edusync/backend/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	ListAll(ctx context.Context) ([]model.Course, error)
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&courses).Error
	return courses, err
}

// CourseSectionRepository 课程-教学班（待排课单元）数据访问接口
type CourseSectionRepository interface {
	ListAll(ctx context.Context) ([]model.CourseSection, error)
}

type courseSectionRepo struct {
	db *gorm.DB
}

// NewCourseSectionRepo 创建 CourseSectionRepository 实例
func NewCourseSectionRepo(db *gorm.DB) CourseSectionRepository {
	return &courseSectionRepo{db: db}
}

func (r *courseSectionRepo) ListAll(ctx context.Context) ([]model.CourseSection, error) {
	var rows []model.CourseSection
	err := r.db.WithContext(ctx).
		Order("section_id ASC, course_id ASC").
		Find(&rows).Error
	return rows, err
}
