package model

// Class 班级（年级/专业方向）— 对应 classes
type Class struct {
	ID           int64  `gorm:"primaryKey"                 json:"id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	DepartmentID int64  `gorm:"not null"                   json:"department_id"`
	Timestamps

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
}

func (Class) TableName() string { return "classes" }

// Section 教学班 — 对应 sections，通过所属 Class 归属院系
type Section struct {
	ID      int64  `gorm:"primaryKey"                json:"id"`
	Name    string `gorm:"type:varchar(50);not null" json:"name"`
	ClassID int64  `gorm:"not null"                  json:"class_id"`
	Timestamps

	// 关联
	Class *Class `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (Section) TableName() string { return "sections" }
