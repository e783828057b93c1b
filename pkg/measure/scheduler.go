// Package measure measures rendered rows after they have been committed to
// the screen and reports height changes back to the layout.
//
// A row gets a Controller when it enters the rendered window. Every frame
// that draws the row commits the row's declared inputs; a change of inputs
// (or an explicit Remeasure) marks the controller pending, and the next Flush
// reads the committed block from a Surface and reports its height. Flush is
// driven by a message scheduled from Update, so it always runs after the
// View that produced the block.
package measure

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/metrics"
)

// Inputs is the declared-input identity of a rendered row. A row is measured
// at most once per distinct value committed for it.
type Inputs struct {
	ID    string
	Rev   uint64 // bumped by the owner when the node itself is replaced
	Open  bool
	Depth int
	Width int
	Style uint64
}

// Surface exposes the blocks committed by the last frame.
type Surface interface {
	// Block returns the committed content of row id, or false when the row
	// was not part of the frame.
	Block(id string) (string, bool)
}

// Owner receives measured heights. ReportHeight returns true when the
// recorded height changed.
type Owner interface {
	ReportHeight(id string, height int) bool
}

// OwnerFunc adapts a function to Owner.
type OwnerFunc func(id string, height int) bool

// ReportHeight calls f.
func (f OwnerFunc) ReportHeight(id string, height int) bool { return f(id, height) }

// Controller tracks the measurement state of one attached row.
type Controller struct {
	id        string
	committed Inputs
	measured  Inputs
	hasInputs bool
	done      bool // measured is valid
	pending   bool
	height    int
}

// ID returns the row id.
func (c *Controller) ID() string { return c.id }

// Pending reports whether a measurement is waiting for the next flush.
func (c *Controller) Pending() bool { return c.pending }

// Height returns the last measured height, or -1 before the first measurement.
func (c *Controller) Height() int {
	if !c.done {
		return -1
	}
	return c.height
}

// Result summarizes one Flush.
type Result struct {
	Measured int // blocks read from the surface
	Changed  int // reports that changed the recorded height
	Missing  int // pending rows absent from the surface, kept for retry
}

// Scheduler owns the controllers of all attached rows.
type Scheduler struct {
	owner     Owner
	enabled   bool
	ctrls     map[string]*Controller
	scheduled bool
}

// NewScheduler returns a scheduler reporting to owner. With shouldMeasure
// false nothing is ever measured and the owner's heights stay authoritative.
func NewScheduler(owner Owner, shouldMeasure bool) *Scheduler {
	return &Scheduler{
		owner:   owner,
		enabled: shouldMeasure,
		ctrls:   make(map[string]*Controller),
	}
}

// Enabled reports whether rows are measured at all.
func (s *Scheduler) Enabled() bool { return s.enabled }

// Attach starts tracking id. Attaching an already attached id is a no-op.
func (s *Scheduler) Attach(id string) *Controller {
	if c, ok := s.ctrls[id]; ok {
		return c
	}
	c := &Controller{id: id}
	s.ctrls[id] = c
	return c
}

// Detach stops tracking id. A measurement still pending for it is dropped.
func (s *Scheduler) Detach(id string) {
	delete(s.ctrls, id)
}

// Attached reports whether id is tracked.
func (s *Scheduler) Attached(id string) bool {
	_, ok := s.ctrls[id]
	return ok
}

// Len returns the number of attached rows.
func (s *Scheduler) Len() int { return len(s.ctrls) }

// Commit records that row id was drawn with inputs. The row becomes pending
// if it was never measured or was last measured with different inputs.
func (s *Scheduler) Commit(id string, in Inputs) {
	if !s.enabled {
		return
	}
	c, ok := s.ctrls[id]
	if !ok {
		return
	}
	c.committed = in
	c.hasInputs = true
	if !c.done || c.measured != in {
		c.pending = true
	}
}

// Remeasure marks id pending regardless of its inputs. Requests made before
// the next flush collapse into one measurement. It returns false for rows
// that are not attached.
func (s *Scheduler) Remeasure(id string) bool {
	if !s.enabled {
		return false
	}
	c, ok := s.ctrls[id]
	if !ok {
		return false
	}
	c.pending = true
	return true
}

// Pending returns the number of rows waiting for a measurement.
func (s *Scheduler) Pending() int {
	n := 0
	for _, c := range s.ctrls {
		if c.pending {
			n++
		}
	}
	return n
}

// Request marks a flush as scheduled. It returns false when one is already
// outstanding, so callers emit at most one flush message at a time.
func (s *Scheduler) Request() bool {
	if !s.enabled || s.scheduled {
		return false
	}
	s.scheduled = true
	return true
}

// Flush measures every pending row against the committed surface.
func (s *Scheduler) Flush(surface Surface) Result {
	s.scheduled = false
	var res Result
	if !s.enabled || surface == nil {
		return res
	}
	defer metrics.Timer(metrics.Measure)()

	for id, c := range s.ctrls {
		if !c.pending {
			continue
		}
		block, ok := surface.Block(id)
		if !ok || !c.hasInputs {
			// Not drawn yet; keep the previous height and try again later.
			res.Missing++
			continue
		}
		res.Measured++
		h := lipgloss.Height(block)
		if block == "" {
			h = 0
		}
		c.height = h
		c.measured = c.committed
		c.done = true
		c.pending = false
		if s.owner != nil && s.owner.ReportHeight(id, h) {
			res.Changed++
		}
	}
	if res.Changed > 0 || res.Missing > 0 {
		debug.Log("measure: %d measured, %d changed, %d missing", res.Measured, res.Changed, res.Missing)
	}
	return res
}
