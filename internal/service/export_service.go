package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edusync/backend/config"
	"edusync/backend/internal/model"
	"edusync/backend/internal/repository"
	"edusync/backend/internal/scheduler"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSlots      = errors.New("暂无排课结果")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// Excel 格式：
//   - Sheet "汇总"：最近一次运行的统计、按院系/星期/时段的课次分布
//   - 每个教学班一个 Sheet：时段为行、工作日为列，单元格为 "课程\n教师"
type ExportService interface {
	// ExportTimetable 导出全部课表为 Excel
	ExportTimetable(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	grid   scheduler.Grid
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.SchedulerConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{grid: scheduler.GridFromConfig(cfg), repo: repo, logger: logger}
}

const summarySheet = "汇总"

// ═══════════════════════════════════════════════════════════
// ExportTimetable
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTimetable(ctx context.Context) (*bytes.Buffer, string, error) {
	// 1. 查询排课结果
	slots, err := s.repo.ScheduleSlot.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询排课结果失败", zap.Error(err))
		return nil, "", err
	}
	if len(slots) == 0 {
		return nil, "", ErrExportNoSlots
	}

	// 2. 最近一次运行（可缺省）
	run, err := s.repo.ScheduleRun.GetLatest(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询最近排课运行失败", zap.Error(err))
		return nil, "", err
	}

	depts, err := s.repo.Department.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询院系失败", zap.Error(err))
		return nil, "", err
	}

	// 3. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newSheetStyles(f)
	if err != nil {
		s.logger.Error("创建 Excel 样式失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	idx, _ := f.NewSheet(summarySheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	s.writeSummary(f, styles, run, slots, depts)

	bySection := lo.GroupBy(slots, func(sl model.ScheduleSlot) int64 { return sl.SectionID })
	sectionIDs := lo.Keys(bySection)
	sort.Slice(sectionIDs, func(i, j int) bool { return sectionIDs[i] < sectionIDs[j] })

	used := map[string]bool{summarySheet: true}
	for _, id := range sectionIDs {
		group := bySection[id]
		name := uniqueSheetName(sectionTitle(id, group[0].Section), used)
		if _, err := f.NewSheet(name); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", name), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		s.writeSectionSheet(f, styles, name, group)
	}

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

type sheetStyles struct {
	header int
	cell   int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, err
	}
	return &sheetStyles{header: header, cell: body}, nil
}

// writeSummary 汇总 Sheet
func (s *exportService) writeSummary(f *excelize.File, st *sheetStyles, run *model.ScheduleRun, slots []model.ScheduleSlot, depts []model.Department) {
	f.SetColWidth(summarySheet, "A", "A", 22)
	f.SetColWidth(summarySheet, "B", "B", 40)

	row := 1
	put := func(k string, v interface{}) {
		f.SetCellValue(summarySheet, cell("A", row), k)
		f.SetCellValue(summarySheet, cell("B", row), v)
		row++
	}
	header := func(title string) {
		f.SetCellValue(summarySheet, cell("A", row), title)
		f.MergeCell(summarySheet, cell("A", row), cell("B", row))
		f.SetCellStyle(summarySheet, cell("A", row), cell("B", row), st.header)
		row++
	}

	header("排课运行")
	if run != nil {
		put("运行 ID", run.RunID)
		put("状态", run.Status)
		put("开始时间", run.StartedAt.Format("2006-01-02 15:04:05"))
		put("课程-教学班", run.CourseSections)
		put("应排课次", run.Required)
		put("已排课次", run.Scheduled)
		put("补充任课", run.Backfilled)
		put("缺口", run.ShortfallCount)
	} else {
		put("运行 ID", "-")
	}
	put("当前课次总数", len(slots))
	row++

	header("按院系")
	deptNames := lo.SliceToMap(depts, func(d model.Department) (int64, string) { return d.ID, d.Name })
	byDept := lo.CountValuesBy(slots, func(sl model.ScheduleSlot) int64 {
		if sl.Course == nil {
			return 0
		}
		return sl.Course.DepartmentID
	})
	deptIDs := lo.Keys(byDept)
	sort.Slice(deptIDs, func(i, j int) bool { return deptIDs[i] < deptIDs[j] })
	for _, id := range deptIDs {
		name, ok := deptNames[id]
		if !ok {
			name = fmt.Sprintf("院系 %d", id)
		}
		put(name, byDept[id])
	}
	row++

	header("按星期")
	byDay := lo.CountValuesBy(slots, func(sl model.ScheduleSlot) int { return sl.DayOfWeek })
	for _, day := range s.grid.Weekdays {
		put(dayName(day), byDay[day])
	}
	row++

	header("按时段")
	bySlot := lo.CountValuesBy(slots, func(sl model.ScheduleSlot) int { return sl.SlotIndex })
	for _, ts := range s.grid.Slots {
		put(fmt.Sprintf("%s-%s", ts.Start, ts.End), bySlot[ts.Index])
	}
}

// writeSectionSheet 教学班课表：行 = 时段，列 = 工作日
func (s *exportService) writeSectionSheet(f *excelize.File, st *sheetStyles, sheet string, slots []model.ScheduleSlot) {
	f.SetColWidth(sheet, "A", "A", 14)
	lastCol := colName(len(s.grid.Weekdays))
	f.SetColWidth(sheet, "B", lastCol, 22)

	// 表头
	f.SetCellValue(sheet, "A1", "时间")
	for i, day := range s.grid.Weekdays {
		f.SetCellValue(sheet, cell(colName(1+i), 1), dayName(day))
	}
	f.SetCellStyle(sheet, "A1", cell(lastCol, 1), st.header)

	index := make(map[[2]int]string, len(slots))
	for _, sl := range slots {
		text := fmt.Sprintf("课程 %d", sl.CourseID)
		if sl.Course != nil {
			text = sl.Course.Name
		}
		if sl.Faculty != nil {
			text += "\n" + sl.Faculty.Name
		}
		index[[2]int{sl.DayOfWeek, sl.SlotIndex}] = text
	}

	for r, ts := range s.grid.Slots {
		row := r + 2
		f.SetCellValue(sheet, cell("A", row), fmt.Sprintf("%s-%s", ts.Start, ts.End))
		for i, day := range s.grid.Weekdays {
			text, ok := index[[2]int{day, ts.Index}]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheet, cell(colName(1+i), row), text)
		}
		f.SetRowHeight(sheet, row, 36)
	}
	f.SetCellStyle(sheet, "B2", cell(lastCol, len(s.grid.Slots)+1), st.cell)
}

// ── 辅助函数 ──

func sectionTitle(id int64, section *model.Section) string {
	if section == nil || section.Name == "" {
		return fmt.Sprintf("教学班 %d", id)
	}
	return fmt.Sprintf("%d %s", id, section.Name)
}

// uniqueSheetName Sheet 名不超过 31 字符、不含 []:*?/\ 且不重复
func uniqueSheetName(name string, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	base := truncateRunes(name, 31)
	candidate := base
	for i := 2; used[candidate]; i++ {
		suffix := fmt.Sprintf("~%d", i)
		candidate = truncateRunes(base, 31-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
