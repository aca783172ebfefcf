package scheduler

import (
	"fmt"
	"sort"
)

// Conflict 同一教师或同一班级在同一单元出现多次
type Conflict struct {
	Kind  string `json:"kind"` // faculty | section
	ID    int64  `json:"id"`
	Day   int    `json:"day_of_week"`
	Slot  int    `json:"slot_index"`
	Count int    `json:"count"`
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s %d 在 day=%d slot=%d 重复 %d 次", c.Kind, c.ID, c.Day, c.Slot, c.Count)
}

type occupancy struct {
	id   int64
	day  int
	slot int
}

// Verify 事后校验排课结果的教师/班级冲突，结果按 kind、id、day、slot 排序
func Verify(slots []Slot) []Conflict {
	faculty := make(map[occupancy]int)
	section := make(map[occupancy]int)
	for _, s := range slots {
		faculty[occupancy{s.FacultyID, s.Day, s.SlotIndex}]++
		section[occupancy{s.SectionID, s.Day, s.SlotIndex}]++
	}

	var out []Conflict
	collect := func(kind string, m map[occupancy]int) {
		for k, n := range m {
			if n > 1 {
				out = append(out, Conflict{Kind: kind, ID: k.id, Day: k.day, Slot: k.slot, Count: n})
			}
		}
	}
	collect("faculty", faculty)
	collect("section", section)

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		return a.Slot < b.Slot
	})
	return out
}
