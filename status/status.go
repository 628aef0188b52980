// Package status tracks named counters and ratios for pipeline components.
// Sections are cheap to create and safe for concurrent use; the dataset
// adapter uses them to report skipped-record counts by reason.
package status

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
)

var (
	mu       sync.Mutex
	sections = make(map[string]*Section)
)

// NewSection returns the section registered under name, creating it if needed.
func NewSection(name string) *Section {
	mu.Lock()
	defer mu.Unlock()

	section, exists := sections[name]
	if !exists {
		section = &Section{
			Name:     name,
			Counters: make(map[string]*Counter),
			Ratios:   make(map[string]*Ratio),
		}
		sections[name] = section
	}
	return section
}

// Snapshot returns all registered sections, sorted by name.
func Snapshot() []*Section {
	mu.Lock()
	defer mu.Unlock()

	var all []*Section
	for _, s := range sections {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

// Section represents a grouping of Counters and Ratios.
type Section struct {
	Name string

	Counters map[string]*Counter
	Ratios   map[string]*Ratio

	m sync.Mutex
}

// MarshalJSON is implemented to avoid concurrent map access. It holds the
// section lock, and avoids recursive calls into MarshalJSON.
func (s *Section) MarshalJSON() ([]byte, error) {
	s.m.Lock()
	defer s.m.Unlock()

	type tmp Section
	return json.Marshal((*tmp)(s))
}

// Counter returns the counter with the provided name, creating it if needed.
func (s *Section) Counter(name string) *Counter {
	s.m.Lock()
	defer s.m.Unlock()

	counter, exists := s.Counters[name]
	if !exists {
		counter = &Counter{}
		s.Counters[name] = counter
	}
	return counter
}

// Ratio returns the ratio metric with the provided name, creating it if needed.
func (s *Section) Ratio(name string) *Ratio {
	s.m.Lock()
	defer s.m.Unlock()

	ratio, exists := s.Ratios[name]
	if !exists {
		ratio = &Ratio{}
		s.Ratios[name] = ratio
	}
	return ratio
}

// Counter is a monotonically increasing count.
type Counter struct {
	Value int64
}

// Add increments the counter by n.
func (c *Counter) Add(n int64) {
	atomic.AddInt64(&c.Value, n)
}

// Get returns the current count.
func (c *Counter) Get() int64 {
	return atomic.LoadInt64(&c.Value)
}

// Ratio tracks hits out of a total.
type Ratio struct {
	Hits  int64
	Total int64
}

// Hit records a hit.
func (r *Ratio) Hit() {
	atomic.AddInt64(&r.Hits, 1)
	atomic.AddInt64(&r.Total, 1)
}

// Miss records a miss.
func (r *Ratio) Miss() {
	atomic.AddInt64(&r.Total, 1)
}

// Value returns hits/total, or 0 if nothing has been recorded.
func (r *Ratio) Value() float64 {
	total := atomic.LoadInt64(&r.Total)
	if total == 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&r.Hits)) / float64(total)
}
