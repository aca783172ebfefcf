package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		name     string
		kind     CourseKind
		sessions int
	}{
		{"Algorithms Lab", KindLab, 1},
		{"Lab Safety", KindLab, 1},
		{"Capstone Project", KindProject, 1},
		{"Project Lab", KindLab, 1}, // Lab 优先
		{"Algorithms", KindRegular, 2},
		{"Syllabus Design", KindRegular, 2}, // 小写 lab 不匹配
		{"project management", KindRegular, 2},
		{"", KindRegular, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PolicyFor(tt.name)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.sessions, p.Sessions)
		})
	}
}

func TestPolicy_PreferredDays(t *testing.T) {
	g := DefaultGrid()
	assert.Equal(t, []int{4, 5}, PolicyFor("Physics Lab").PreferredDays(g))
	assert.Nil(t, PolicyFor("Final Project").PreferredDays(g))
	assert.Nil(t, PolicyFor("Physics").PreferredDays(g))
}
