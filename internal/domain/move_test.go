package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoveItem(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward to end", 0, 2, []string{"b", "c", "a", "d"}},
		{"backward to start", 3, 0, []string{"d", "a", "b", "c"}},
		{"adjacent forward", 1, 2, []string{"a", "c", "b", "d"}},
		{"adjacent backward", 2, 1, []string{"a", "c", "b", "d"}},
		{"same index", 2, 2, []string{"a", "b", "c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"a", "b", "c", "d"}
			got := MoveItem(in, tt.from, tt.to)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"a", "b", "c", "d"}, in, "input must not be modified")
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "senior-frontend-developer", Slugify("Senior Frontend Developer"))
	assert.Equal(t, "qa-engineer", Slugify("  QA \t  Engineer "))
	assert.Equal(t, "", Slugify("   "))
}
