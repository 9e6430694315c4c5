// Package profiling accumulates wall-clock time per named build stage.
package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stage is the accumulated time and call count of one named stage.
type Stage struct {
	Name  string
	Total time.Duration
	Calls int
}

// Profile collects stage timings. The zero value is ready to use and safe
// for concurrent Track calls.
type Profile struct {
	mu     sync.Mutex
	stages map[string]*Stage
}

// Track returns a stop function that adds the elapsed time to name.
// Usage: defer p.Track("surface.Displace")()
func (p *Profile) Track(name string) func() {
	start := time.Now()
	return func() {
		p.add(name, time.Since(start))
	}
}

func (p *Profile) add(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stages == nil {
		p.stages = make(map[string]*Stage)
	}
	s, ok := p.stages[name]
	if !ok {
		s = &Stage{Name: name}
		p.stages[name] = s
	}
	s.Total += d
	s.Calls++
}

// Reset drops all stages. Call before each rebuild to time it alone.
func (p *Profile) Reset() {
	p.mu.Lock()
	p.stages = nil
	p.mu.Unlock()
}

// Stages returns the stages sorted by descending total time.
func (p *Profile) Stages() []Stage {
	p.mu.Lock()
	out := make([]Stage, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, *s)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total sums every stage whose name starts with prefix.
func (p *Profile) Total(prefix string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	var d time.Duration
	for name, s := range p.stages {
		if strings.HasPrefix(name, prefix) {
			d += s.Total
		}
	}
	return d
}

// TopN formats the n slowest stages, e.g.
// "surface.Displace:41.2ms, crater.Apply:3.1ms".
func (p *Profile) TopN(n int) string {
	stages := p.Stages()
	if n > len(stages) {
		n = len(stages)
	}
	parts := make([]string, 0, n)
	for _, s := range stages[:n] {
		parts = append(parts, fmt.Sprintf("%s:%.1fms", s.Name, float64(s.Total.Microseconds())/1000))
	}
	return strings.Join(parts, ", ")
}
