package generation

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// selector picks the backend endpoint for the next call.
type selector interface {
	Next() string
}

type roundRobin struct {
	mu      sync.Mutex
	targets []string
	current int
}

func (r *roundRobin) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	target := r.targets[r.current%len(r.targets)]
	r.current++
	return target
}

type random struct {
	targets []string
}

func (r *random) Next() string {
	return r.targets[rand.IntN(len(r.targets))]
}

func newSelector(name string, targets []string) (selector, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("at least one backend url is required")
	}

	switch name {
	case "round-robin", "round_robin", "":
		return &roundRobin{targets: targets}, nil
	case "random":
		return &random{targets: targets}, nil
	default:
		return nil, fmt.Errorf("unknown backend selector: %s", name)
	}
}
