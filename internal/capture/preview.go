package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// PreviewQuality is the JPEG quality of preview frames.
const PreviewQuality = 70

// Preview holds the most recent camera frame as JPEG for the MJPEG stream.
// Encoding only happens while at least one viewer is attached.
type Preview struct {
	viewers atomic.Int32

	mu      sync.Mutex
	jpeg    []byte
	seq     uint64
	updated chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{updated: make(chan struct{})}
}

// Attach registers a viewer and returns the function that detaches it.
func (p *Preview) Attach() (detach func()) {
	p.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { p.viewers.Add(-1) })
	}
}

// Viewers returns the number of attached viewers.
func (p *Preview) Viewers() int {
	return int(p.viewers.Load())
}

// Offer encodes frame if anyone is watching. The frame is not retained.
func (p *Preview) Offer(frame *gocv.Mat) error {
	if p.Viewers() == 0 || frame == nil || frame.Empty() {
		return nil
	}
	buf, err := gocv.IMEncodeWithParams(".jpg", *frame, []int{gocv.IMWriteJpegQuality, PreviewQuality})
	if err != nil {
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	defer buf.Close()
	p.Put(append([]byte(nil), buf.GetBytes()...))
	return nil
}

// Put publishes an already encoded JPEG.
func (p *Preview) Put(jpeg []byte) {
	p.mu.Lock()
	p.jpeg = jpeg
	p.seq++
	close(p.updated)
	p.updated = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the newest JPEG, its sequence number and a channel closed
// when a newer one arrives.
func (p *Preview) Latest() ([]byte, uint64, <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jpeg, p.seq, p.updated
}
