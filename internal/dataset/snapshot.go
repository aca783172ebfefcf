// Package dataset 离线数据快照，供命令行 -snapshot 试运行使用
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"edusync/backend/internal/scheduler"
)

var ErrInvalidSnapshot = errors.New("数据快照无效")

// Load 读取 JSON 快照文件
func Load(path string) (scheduler.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scheduler.Input{}, fmt.Errorf("读取快照文件失败: %w", err)
	}
	return Parse(data)
}

// Parse 解析快照：JSON → map → mapstructure 解码
//
//	{
//	  "courses":         [{"id": 1, "name": "Algorithms", "department_id": 1}],
//	  "sections":        [{"id": 1, "name": "CS-A", "class_id": 1, "department_id": 1}],
//	  "faculty":         [{"id": 1, "name": "Ada", "department_id": 1}],
//	  "course_sections": [{"course_id": 1, "section_id": 1}],
//	  "assignments":     [{"faculty_id": 1, "course_id": 1}]
//	}
func Parse(data []byte) (scheduler.Input, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	var in scheduler.Input
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &in,
	})
	if err != nil {
		return scheduler.Input{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return scheduler.Input{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if err := validate(in); err != nil {
		return scheduler.Input{}, err
	}
	return in, nil
}

func validate(in scheduler.Input) error {
	if dup := lo.FindDuplicates(lo.Map(in.Courses, func(c scheduler.Course, _ int) int64 { return c.ID })); len(dup) > 0 {
		return fmt.Errorf("%w: 课程 ID 重复 %v", ErrInvalidSnapshot, dup)
	}
	if dup := lo.FindDuplicates(lo.Map(in.Sections, func(s scheduler.Section, _ int) int64 { return s.ID })); len(dup) > 0 {
		return fmt.Errorf("%w: 班级 ID 重复 %v", ErrInvalidSnapshot, dup)
	}
	if dup := lo.FindDuplicates(lo.Map(in.Faculty, func(f scheduler.Faculty, _ int) int64 { return f.ID })); len(dup) > 0 {
		return fmt.Errorf("%w: 教师 ID 重复 %v", ErrInvalidSnapshot, dup)
	}
	return nil
}
