package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"edusync/backend/internal/service"
	"edusync/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器（xlsx + ics）
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc}
}

// ExportTimetable 导出全校课表
// GET /api/v1/timetable/export
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportTimetable(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	attachment(c, filename)
	c.Header("Content-Description", "File Transfer")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// FacultyCalendar 教师课表日历
// GET /api/v1/timetable/faculty/:id/calendar.ics
func (h *ExportHandler) FacultyCalendar(c *gin.Context) {
	id, ok := MustParseID(c, "id", 16001)
	if !ok {
		return
	}
	body, filename, err := h.calendarSvc.FacultyCalendar(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// SectionCalendar 教学班课表日历
// GET /api/v1/timetable/sections/:id/calendar.ics
func (h *ExportHandler) SectionCalendar(c *gin.Context) {
	id, ok := MustParseID(c, "id", 16001)
	if !ok {
		return
	}
	body, filename, err := h.calendarSvc.SectionCalendar(c.Request.Context(), id)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	attachment(c, filename)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSlots):
		response.NotFound(c, 16101, "暂无排课结果，请先生成课表")
	case errors.Is(err, service.ErrFacultyNotFound):
		response.NotFound(c, 16102, "教师不存在")
	case errors.Is(err, service.ErrSectionNotFound):
		response.NotFound(c, 16103, "教学班不存在")
	default:
		response.InternalError(c)
	}
}
