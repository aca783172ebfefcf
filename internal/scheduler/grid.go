// Package scheduler 课表生成核心算法
//
// 纯内存、无存储依赖：输入一次性加载的数据快照，输出排课结果、缺口与统计。
// 同一输入、同一网格配置下结果完全确定。
package scheduler

import (
	"edusync/backend/config"
)

// TimeSlot 每日固定上课时段
type TimeSlot struct {
	Index int    `json:"index"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`
}

// Grid 排课网格：工作日 × 时段
// Weekdays 与 Slots 的顺序即扫描顺序
type Grid struct {
	Weekdays []int      `json:"weekdays"`
	LabDays  []int      `json:"lab_days"`
	Slots    []TimeSlot `json:"slots"`
}

// DefaultGrid 周一至周五 × 5 个 90 分钟时段，实验课优先周四、周五
func DefaultGrid() Grid {
	return Grid{
		Weekdays: []int{1, 2, 3, 4, 5},
		LabDays:  []int{4, 5},
		Slots: []TimeSlot{
			{Index: 0, Start: "08:00", End: "09:30"},
			{Index: 1, Start: "09:45", End: "11:15"},
			{Index: 2, Start: "11:30", End: "13:00"},
			{Index: 3, Start: "14:00", End: "15:30"},
			{Index: 4, Start: "15:45", End: "17:15"},
		},
	}
}

// GridFromConfig 由 scheduler 配置构造网格（配置已通过 Validate）
func GridFromConfig(cfg *config.SchedulerConfig) Grid {
	g := Grid{
		Weekdays: append([]int(nil), cfg.Weekdays...),
		LabDays:  append([]int(nil), cfg.LabDays...),
		Slots:    make([]TimeSlot, 0, len(cfg.TimeSlots)),
	}
	for i, ts := range cfg.TimeSlots {
		g.Slots = append(g.Slots, TimeSlot{Index: i, Start: ts.Start, End: ts.End})
	}
	return g
}

// Cells 每个班级每周可用的 (day, slot) 单元数
func (g Grid) Cells() int {
	return len(g.Weekdays) * len(g.Slots)
}

// IsLabDay 判断某天是否为实验日
func (g Grid) IsLabDay(day int) bool {
	for _, d := range g.LabDays {
		if d == day {
			return true
		}
	}
	return false
}

// Slot 按序号取时段
func (g Grid) Slot(index int) (TimeSlot, bool) {
	if index < 0 || index >= len(g.Slots) {
		return TimeSlot{}, false
	}
	return g.Slots[index], true
}
