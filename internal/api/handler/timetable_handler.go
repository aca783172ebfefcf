package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"edusync/backend/internal/dto"
	"edusync/backend/internal/service"
	"edusync/backend/pkg/response"
)

// TimetableHandler 课表生成与查询 HTTP 处理器
type TimetableHandler struct {
	svc      service.TimetableService
	querySvc service.TimetableQueryService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService, querySvc service.TimetableQueryService) *TimetableHandler {
	return &TimetableHandler{svc: svc, querySvc: querySvc}
}

// Generate 生成课表
// POST /api/v1/timetable/generate
//
// body 可为空；{"dry_run": true} 只计算不写库
func (h *TimetableHandler) Generate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.GenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 13001, "参数校验失败")
			return
		}
	}

	summary, err := h.svc.Generate(c.Request.Context(), &req, userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, summary)
}

// GetLatestRun 最近一次运行
// GET /api/v1/timetable/runs/latest
func (h *TimetableHandler) GetLatestRun(c *gin.Context) {
	run, err := h.svc.GetLatestRun(c.Request.Context())
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, run)
}

// GetRun 查询运行记录
// GET /api/v1/timetable/runs/:id
func (h *TimetableHandler) GetRun(c *gin.Context) {
	run, err := h.svc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, run)
}

// ListSlots 排课结果列表
// GET /api/v1/timetable/slots?section_id=&faculty_id=&course_id=&day=&page=&page_size=
func (h *TimetableHandler) ListSlots(c *gin.Context) {
	var req dto.SlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
		return
	}

	items, total, err := h.querySvc.ListSlots(c.Request.Context(), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// GetSectionTimetable 教学班周课表
// GET /api/v1/timetable/sections/:id
func (h *TimetableHandler) GetSectionTimetable(c *gin.Context) {
	id, ok := MustParseID(c, "id", 13001)
	if !ok {
		return
	}
	grid, err := h.querySvc.GetSectionTimetable(c.Request.Context(), id)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, grid)
}

// GetFacultyTimetable 教师周课表
// GET /api/v1/timetable/faculty/:id
func (h *TimetableHandler) GetFacultyTimetable(c *gin.Context) {
	id, ok := MustParseID(c, "id", 13001)
	if !ok {
		return
	}
	grid, err := h.querySvc.GetFacultyTimetable(c.Request.Context(), id)
	if err != nil {
		handleTimetableError(c, err)
		return
	}
	response.OK(c, grid)
}

// handleTimetableError 统一课表模块错误映射
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		response.Conflict(c, 13002, "已有排课任务正在运行，请稍后再试")
	case errors.Is(err, service.ErrNoCourseSections):
		response.Error(c, http.StatusUnprocessableEntity, 13003, "没有需要排课的课程-教学班")
	case errors.Is(err, service.ErrRunNotFound):
		response.NotFound(c, 13004, "排课运行记录不存在")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 13005, "教学班不存在")
	case errors.Is(err, service.ErrFacultyNotFound):
		response.NotFound(c, 13006, "教师不存在")
	case errors.Is(err, service.ErrConflictDetected):
		response.ErrorWithDetails(c, http.StatusInternalServerError, 13007, "排课结果存在时间冲突", err.Error())
	default:
		response.InternalError(c)
	}
}
