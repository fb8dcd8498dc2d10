// Package syncer provides the named sync capabilities that copy documents
// from the document store into the knowledge graph.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the version of the capability set reported by the CLI.
const Version = "0.9.0"

// Prefix marks capabilities that are eligible for a blanket run.
const Prefix = "sync_"

// BootstrapName is the capability that has to run before all others.
const BootstrapName = "sync_solver_documents"

var ErrDuplicateCapability = errors.New("capability already registered")

// Stats are the per-invocation document counts, in log order.
type Stats struct {
	Processed int
	Synced    int
	Skipped   int
	Failed    int
}

// Graph is the knowledge graph handle shared by all capabilities of a run.
type Graph interface {
	IsDocumentSynced(ctx context.Context, class, documentID string) (bool, error)
	SyncDocument(ctx context.Context, class, documentID string, content []byte) error
}

// SyncFunc is the uniform invocation contract of a capability.
type SyncFunc func(ctx context.Context, force, graceful bool, graph Graph) (Stats, error)

type Capability struct {
	Name string
	Func SyncFunc
}

// Eligible reports whether the capability takes part in a run without filter.
func (c Capability) Eligible() bool {
	return strings.HasPrefix(c.Name, Prefix)
}

// Report is one completed capability invocation.
type Report struct {
	RunID       string    `json:"run_id"`
	Capability  string    `json:"capability"`
	Processed   int       `json:"processed"`
	Synced      int       `json:"synced"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

func NewReport(runID, capability string, stats Stats, at time.Time) Report {
	return Report{
		RunID:       runID,
		Capability:  capability,
		Processed:   stats.Processed,
		Synced:      stats.Synced,
		Skipped:     stats.Skipped,
		Failed:      stats.Failed,
		CompletedAt: at,
	}
}

// Registry keeps capabilities in registration order.
type Registry struct {
	order []Capability
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Register(name string, fn SyncFunc) error {
	if name == "" || fn == nil {
		return fmt.Errorf("register %q: missing name or function", name)
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("register %q: %w", name, ErrDuplicateCapability)
	}
	r.index[name] = len(r.order)
	r.order = append(r.order, Capability{Name: name, Func: fn})
	return nil
}

// Capabilities returns a copy of the registered capabilities in order.
func (r *Registry) Capabilities() []Capability {
	if r == nil {
		return nil
	}
	out := make([]Capability, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Lookup(name string) (Capability, bool) {
	if r == nil {
		return Capability{}, false
	}
	i, ok := r.index[name]
	if !ok {
		return Capability{}, false
	}
	return r.order[i], true
}
