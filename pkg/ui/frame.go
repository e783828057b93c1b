package ui

// Frame records the row blocks drawn by the last View. It is the surface
// measurement reads from: a block is only visible to a flush after the View
// that produced it has returned.
type Frame struct {
	blocks map[string]string
	order  []string
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{blocks: make(map[string]string)}
}

// Reset starts a new frame.
func (f *Frame) Reset() {
	clear(f.blocks)
	f.order = f.order[:0]
}

// Put records the full, uncropped block of row id.
func (f *Frame) Put(id, block string) {
	if _, ok := f.blocks[id]; !ok {
		f.order = append(f.order, id)
	}
	f.blocks[id] = block
}

// Block implements measure.Surface.
func (f *Frame) Block(id string) (string, bool) {
	b, ok := f.blocks[id]
	return b, ok
}

// IDs returns the ids drawn by the frame, top to bottom.
func (f *Frame) IDs() []string {
	return append([]string(nil), f.order...)
}
