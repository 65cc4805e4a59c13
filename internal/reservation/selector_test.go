package reservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelector(t *testing.T) {
	s, err := NewSelector(PolicyRandom)
	require.NoError(t, err)
	assert.IsType(t, &RandomSelector{}, s)

	s, err = NewSelector("")
	require.NoError(t, err)
	assert.IsType(t, &RandomSelector{}, s)

	s, err = NewSelector(PolicyRoundRobin)
	require.NoError(t, err)
	assert.IsType(t, &RoundRobinSelector{}, s)

	_, err = NewSelector("least_recently_used")
	assert.Error(t, err)
}

func TestRandomSelector_StaysInFreeSet(t *testing.T) {
	free := []string{"a", "b", "c"}
	s := NewRandomSelector()

	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		id := s.Pick(free)
		assert.Contains(t, free, id)
		seen[id] = true
	}
	assert.Len(t, seen, len(free))
}

func TestRandomSelector_Injectable(t *testing.T) {
	s := &RandomSelector{intN: func(n int) int { return n - 1 }}
	assert.Equal(t, "c", s.Pick([]string{"a", "b", "c"}))
}

func TestRoundRobinSelector(t *testing.T) {
	s := &RoundRobinSelector{}
	free := []string{"a", "b", "c"}

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, s.Pick(free))
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)

	// A shrinking free set still yields a member.
	assert.Equal(t, "b", s.Pick([]string{"b"}))
}

func TestFirstAndFuncSelectors(t *testing.T) {
	assert.Equal(t, "x", FirstSelector{}.Pick([]string{"x", "y"}))

	last := SelectorFunc(func(free []string) string { return free[len(free)-1] })
	assert.Equal(t, "y", last.Pick([]string{"x", "y"}))
}
