package repository

import (
	"context"

	"gorm.io/gorm"

	"edusync/backend/internal/model"
)

// ClassRepository 行政班数据访问接口
type ClassRepository interface {
	ListAll(ctx context.Context) ([]model.Class, error)
}

type classRepo struct {
	db *gorm.DB
}

// NewClassRepo 创建 ClassRepository 实例
func NewClassRepo(db *gorm.DB) ClassRepository {
	return &classRepo{db: db}
}

func (r *classRepo) ListAll(ctx context.Context) ([]model.Class, error) {
	var classes []model.Class
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&classes).Error
	return classes, err
}

// SectionRepository 教学班数据访问接口
type SectionRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Section, error)
	ListAll(ctx context.Context) ([]model.Section, error)
}

type sectionRepo struct {
	db *gorm.DB
}

// NewSectionRepo 创建 SectionRepository 实例
func NewSectionRepo(db *gorm.DB) SectionRepository {
	return &sectionRepo{db: db}
}

func (r *sectionRepo) GetByID(ctx context.Context, id int64) (*model.Section, error) {
	var section model.Section
	err := r.db.WithContext(ctx).
		Preload("Class").
		Where("id = ?", id).
		First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepo) ListAll(ctx context.Context) ([]model.Section, error) {
	var sections []model.Section
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&sections).Error
	return sections, err
}
