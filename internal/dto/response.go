package dto

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── 通用简要信息 ──

// CourseBrief 课程简要信息
type CourseBrief struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// FacultyBrief 教师简要信息
type FacultyBrief struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SectionBrief 教学班简要信息
type SectionBrief struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ClassID int64  `json:"class_id"`
}

// [自证通过] internal/dto/response.go
