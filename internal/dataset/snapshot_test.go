package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edusync/backend/internal/scheduler"
)

const sample = `{
  "courses": [
    {"id": 1, "name": "Algorithms", "department_id": 1, "credit_hours": 3},
    {"id": 2, "name": "Algorithms Lab", "department_id": 1}
  ],
  "sections": [{"id": 10, "name": "CS-A", "class_id": 3, "department_id": 1}],
  "faculty": [{"id": 5, "name": "Ada", "department_id": 1}],
  "course_sections": [{"course_id": 1, "section_id": 10}, {"course_id": 2, "section_id": 10}],
  "assignments": [{"faculty_id": 5, "course_id": 1}]
}`

func TestParse(t *testing.T) {
	in, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, scheduler.Course{ID: 1, Name: "Algorithms", DepartmentID: 1, CreditHours: 3}, in.Courses[0])
	assert.Equal(t, scheduler.Section{ID: 10, Name: "CS-A", ClassID: 3, DepartmentID: 1}, in.Sections[0])
	assert.Len(t, in.CourseSections, 2)
	assert.Equal(t, []scheduler.Assignment{{FacultyID: 5, CourseID: 1}}, in.Assignments)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"非 JSON", `not json`},
		{"未知字段", `{"courses": [{"id": 1, "title": "x"}]}`},
		{"类型错误", `{"faculty": [{"id": "abc"}]}`},
		{"课程 ID 重复", `{"courses": [{"id": 1}, {"id": 1}]}`},
		{"教师 ID 重复", `{"faculty": [{"id": 2}, {"id": 2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSnapshot))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	in, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, in.Courses, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
