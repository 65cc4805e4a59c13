package reservation

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Selector chooses one resource from a non-empty free set.
type Selector interface {
	Pick(free []string) string
}

// SelectorFunc adapts a function to the Selector interface.
type SelectorFunc func(free []string) string

func (f SelectorFunc) Pick(free []string) string {
	return f(free)
}

const (
	PolicyRandom     = "random"
	PolicyRoundRobin = "round_robin"
)

// NewSelector returns the selector for a configured policy name.
func NewSelector(policy string) (Selector, error) {
	switch policy {
	case "", PolicyRandom:
		return NewRandomSelector(), nil
	case PolicyRoundRobin:
		return &RoundRobinSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selection policy %q", policy)
	}
}

// RandomSelector picks uniformly at random.
type RandomSelector struct {
	intN func(n int) int
}

func NewRandomSelector() *RandomSelector {
	return &RandomSelector{intN: rand.IntN}
}

func (s *RandomSelector) Pick(free []string) string {
	return free[s.intN(len(free))]
}

// RoundRobinSelector cycles through positions of the free set.
// The counter is process-local, so spreading is best effort across replicas.
type RoundRobinSelector struct {
	mu   sync.Mutex
	next int
}

func (s *RoundRobinSelector) Pick(free []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := free[s.next%len(free)]
	s.next++
	return id
}

// FirstSelector always takes the first free resource in pool order.
type FirstSelector struct{}

func (FirstSelector) Pick(free []string) string {
	return free[0]
}
