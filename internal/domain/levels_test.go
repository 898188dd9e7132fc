package domain

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelLessOrdering(t *testing.T) {
	levels := []string{"10", "?", "2", "1", "EX", "11"}
	sort.SliceStable(levels, func(i, j int) bool {
		return LevelLess(levels[i], levels[j])
	})
	assert.Equal(t, []string{"1", "2", "10", "11", "?", "EX"}, levels)
}

func TestLampNamesAndValidity(t *testing.T) {
	assert.Equal(t, "Hard", LampHard.Name())
	assert.Equal(t, "NoChart", LampNoChart.Name())
	assert.Equal(t, "Unknown", Lamp(42).Name())
	assert.True(t, LampMax.Valid())
	assert.False(t, Lamp(42).Valid())
}
