// Package layout maps a flattened row sequence onto vertical positions.
//
// The Positioner owns the height of every row (measured or estimated) and the
// cumulative offset table derived from those heights. Offsets are recomputed
// lazily: a height report only lowers a watermark, and the next read rebuilds
// the table from that watermark onward. Rows above the watermark are never
// touched, so a measurement near the bottom of a long list is cheap and
// several reports in one tick cost a single pass.
package layout

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/vtree/pkg/metrics"
)

// DefaultEstimatedHeight is the provisional height of a row that has never
// been measured, in lines.
const DefaultEstimatedHeight = 1

// HeightEntry is the recorded height of one row.
type HeightEntry struct {
	Height   int
	Measured bool // false while Height is still an estimate
}

// Options configures a Positioner.
type Options struct {
	// EstimatedHeight is used for rows that have not been measured yet.
	EstimatedHeight int
	// AdaptiveEstimate makes new entries start at the mean measured height
	// instead of EstimatedHeight once anything has been measured. Existing
	// entries keep the estimate they were created with.
	AdaptiveEstimate bool
}

// Positioner computes row offsets and the visible window.
type Positioner struct {
	opts Options

	ids     []string
	index   map[string]int
	heights map[string]*HeightEntry

	// offsets[i] is the top of row i; offsets[len(ids)] is the total height.
	// Entries at or below valid are up to date.
	offsets []int
	valid   int

	version    uint64
	recomputes int
}

// New returns an empty Positioner.
func New(opts Options) *Positioner {
	if opts.EstimatedHeight <= 0 {
		opts.EstimatedHeight = DefaultEstimatedHeight
	}
	return &Positioner{
		opts:    opts,
		index:   make(map[string]int),
		heights: make(map[string]*HeightEntry),
		offsets: []int{0},
	}
}

// SetRows installs a new flattened sequence. Height entries are looked up by
// id, so rows that were measured before keep their height. Offsets are
// invalidated from the first index where the sequence differs.
func (p *Positioner) SetRows(ids []string) {
	firstDiff := 0
	for firstDiff < len(ids) && firstDiff < len(p.ids) && ids[firstDiff] == p.ids[firstDiff] {
		firstDiff++
	}

	estimate := p.estimate()
	for _, id := range ids {
		if _, ok := p.heights[id]; !ok {
			p.heights[id] = &HeightEntry{Height: estimate}
		}
	}

	unchanged := firstDiff == len(ids) && len(ids) == len(p.ids)
	if !unchanged {
		clear(p.index)
		for i, id := range ids {
			p.index[id] = i
		}
	}
	p.ids = append(p.ids[:0], ids...)
	if cap(p.offsets) < len(ids)+1 {
		grown := make([]int, len(ids)+1)
		copy(grown, p.offsets)
		p.offsets = grown
	} else {
		p.offsets = p.offsets[:len(ids)+1]
	}
	if !unchanged {
		p.invalidate(firstDiff)
	}
}

// Len returns the number of rows.
func (p *Positioner) Len() int {
	return len(p.ids)
}

// ID returns the id of row i.
func (p *Positioner) ID(i int) string {
	return p.ids[i]
}

// IndexOf returns the row index of id in the current sequence, or -1.
func (p *Positioner) IndexOf(id string) int {
	if i, ok := p.index[id]; ok {
		return i
	}
	return -1
}

// ReportHeight is ReportHeightChange addressed by id. Rows that are not in
// the current sequence are ignored.
func (p *Positioner) ReportHeight(id string, height int) bool {
	i := p.IndexOf(id)
	if i < 0 {
		return false
	}
	return p.ReportHeightChange(i, height)
}

// Height returns the height entry of row i.
func (p *Positioner) Height(i int) HeightEntry {
	return *p.heights[p.ids[i]]
}

// HeightOf returns the entry recorded for id, if any.
func (p *Positioner) HeightOf(id string) (HeightEntry, bool) {
	e, ok := p.heights[id]
	if !ok {
		return HeightEntry{}, false
	}
	return *e, true
}

// ReportHeightChange records a measured height for row index. It returns
// false, and invalidates nothing, when the row is already measured at that
// height. Offsets of rows at or before index are never affected.
func (p *Positioner) ReportHeightChange(index, height int) bool {
	if index < 0 || index >= len(p.ids) {
		return false
	}
	if height < 0 {
		height = 0
	}
	e := p.heights[p.ids[index]]
	if e.Measured && e.Height == height {
		return false
	}
	changed := e.Height != height
	e.Height = height
	e.Measured = true
	if changed {
		p.invalidate(index + 1)
	}
	return changed
}

// Offset returns the top of row i. i may equal Len(), in which case the
// total height is returned.
func (p *Positioner) Offset(i int) int {
	if i < 0 {
		return 0
	}
	if i > len(p.ids) {
		i = len(p.ids)
	}
	p.ensure(i)
	return p.offsets[i]
}

// TotalHeight returns the height of all rows together.
func (p *Positioner) TotalHeight() int {
	return p.Offset(len(p.ids))
}

// IndexAt returns the row covering line y, clamped to the valid range.
// It returns -1 for an empty sequence.
func (p *Positioner) IndexAt(y int) int {
	n := len(p.ids)
	if n == 0 {
		return -1
	}
	p.ensure(n)
	// first row whose bottom is below y
	i := sort.Search(n, func(i int) bool { return p.offsets[i+1] > y })
	if i >= n {
		i = n - 1
	}
	return i
}

// ComputeVisible returns the contiguous index range [lo, hi) of rows whose
// extent intersects [scrollTop-overscan, scrollTop+viewportHeight+overscan).
// Scroll positions outside the content are clamped instead of rejected.
func (p *Positioner) ComputeVisible(scrollTop, viewportHeight, overscan int) (lo, hi int) {
	n := len(p.ids)
	if n == 0 || viewportHeight <= 0 {
		return 0, 0
	}
	if overscan < 0 {
		overscan = 0
	}
	scrollTop = p.ClampScroll(scrollTop, viewportHeight)

	p.ensure(n)
	top := scrollTop - overscan
	bottom := scrollTop + viewportHeight + overscan

	// first row ending after top; zero-height rows at the edge are excluded
	lo = sort.Search(n, func(i int) bool { return p.offsets[i+1] > top })
	// first row starting at or after bottom
	hi = sort.Search(n, func(i int) bool { return p.offsets[i] >= bottom })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// ClampScroll limits scrollTop to [0, max(0, TotalHeight()-viewportHeight)].
func (p *Positioner) ClampScroll(scrollTop, viewportHeight int) int {
	maxTop := p.TotalHeight() - viewportHeight
	if maxTop < 0 {
		maxTop = 0
	}
	if scrollTop > maxTop {
		scrollTop = maxTop
	}
	if scrollTop < 0 {
		scrollTop = 0
	}
	return scrollTop
}

// Version increases every time offsets are invalidated.
func (p *Positioner) Version() uint64 {
	return p.version
}

// Recomputes returns how many lazy recompute passes have run.
func (p *Positioner) Recomputes() int {
	return p.recomputes
}

// MeasuredCount returns how many rows of the current sequence are measured.
func (p *Positioner) MeasuredCount() int {
	n := 0
	for _, id := range p.ids {
		if p.heights[id].Measured {
			n++
		}
	}
	return n
}

func (p *Positioner) invalidate(from int) {
	if from < p.valid {
		p.valid = from
	}
	if p.valid > len(p.ids) {
		p.valid = len(p.ids)
	}
	p.version++
}

// ensure recomputes offsets up to and including index i.
func (p *Positioner) ensure(i int) {
	if i <= p.valid {
		return
	}
	defer metrics.Timer(metrics.OffsetRecompute)()
	p.recomputes++
	// Recompute to the end in one pass so later reads in the same tick are free.
	n := len(p.ids)
	for j := p.valid; j < n; j++ {
		p.offsets[j+1] = p.offsets[j] + p.heights[p.ids[j]].Height
	}
	p.valid = n
}

// estimate returns the height given to newly created entries.
func (p *Positioner) estimate() int {
	if !p.opts.AdaptiveEstimate {
		return p.opts.EstimatedHeight
	}
	var measured []float64
	for _, e := range p.heights {
		if e.Measured {
			measured = append(measured, float64(e.Height))
		}
	}
	if len(measured) == 0 {
		return p.opts.EstimatedHeight
	}
	mean := stat.Mean(measured, nil)
	est := int(mean + 0.5)
	if est < 1 {
		est = 1
	}
	return est
}
