package health

import (
	"sort"
	"sync"
	"time"
)

// State is the coarse health of one module.
type State string

const (
	StateOK    State = "ok"
	StateError State = "error"
)

// Status is the recorded health of a module.
type Status struct {
	State     State     `json:"state"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Register is the process-wide record of per-module health, last-cycle
// timings and error counts. Each module writes only under its own key;
// recovery policy belongs to the health loop, not to the modules themselves.
type Register struct {
	mu       sync.RWMutex
	statuses map[string]Status
	timings  map[string]float64
	errors   map[string]int
}

func NewRegister() *Register {
	return &Register{
		statuses: make(map[string]Status),
		timings:  make(map[string]float64),
		errors:   make(map[string]int),
	}
}

// Set records the status for a module.
func (r *Register) Set(module string, state State, message string) {
	r.mu.Lock()
	r.statuses[module] = Status{State: state, Message: message, UpdatedAt: time.Now()}
	r.mu.Unlock()
}

// Get returns the status for a module.
func (r *Register) Get(module string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[module]
	return s, ok
}

// RecordTiming stores the duration in seconds of the module's last run.
func (r *Register) RecordTiming(module string, seconds float64) {
	r.mu.Lock()
	r.timings[module] = seconds
	r.mu.Unlock()
}

// Timing returns the last recorded duration in seconds for a module.
func (r *Register) Timing(module string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.timings[module]
	return t, ok
}

// RecordErrors stores the error count of the module's last run.
func (r *Register) RecordErrors(module string, count int) {
	r.mu.Lock()
	r.errors[module] = count
	r.mu.Unlock()
}

// Errors returns the last recorded error count for a module.
func (r *Register) Errors(module string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.errors[module]
	return n, ok
}

// Modules returns the sorted list of modules with a recorded status.
func (r *Register) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.statuses))
	for m := range r.statuses {
		res = append(res, m)
	}
	sort.Strings(res)
	return res
}

// Snapshot returns a copy of all recorded statuses.
func (r *Register) Snapshot() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make(map[string]Status, len(r.statuses))
	for m, s := range r.statuses {
		res[m] = s
	}
	return res
}
