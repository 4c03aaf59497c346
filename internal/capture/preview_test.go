package capture

import (
	"bytes"
	"testing"
	"time"
)

func TestPreview_SkipsEncodingWithoutViewers(t *testing.T) {
	p := NewPreview()
	frames := SyntheticFrames(1, 64, 48)
	defer closeAll(frames)

	if err := p.Offer(frames[0]); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if jpeg, seq, _ := p.Latest(); jpeg != nil || seq != 0 {
		t.Error("frame encoded with nobody watching")
	}
}

func TestPreview_EncodesForViewers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV encoding")
	}

	p := NewPreview()
	detach := p.Attach()
	defer detach()

	frames := SyntheticFrames(1, 64, 48)
	defer closeAll(frames)

	if err := p.Offer(frames[0]); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	jpeg, seq, _ := p.Latest()
	if seq != 1 || !bytes.HasPrefix(jpeg, []byte{0xFF, 0xD8}) {
		t.Errorf("seq=%d, jpeg prefix %x", seq, jpeg[:min(2, len(jpeg))])
	}
}

func TestPreview_AttachDetach(t *testing.T) {
	p := NewPreview()
	d1 := p.Attach()
	d2 := p.Attach()
	if p.Viewers() != 2 {
		t.Fatalf("Viewers() = %d, want 2", p.Viewers())
	}
	d1()
	d1()
	d2()
	if p.Viewers() != 0 {
		t.Errorf("Viewers() = %d after detaching, want 0", p.Viewers())
	}
}

func TestPreview_PutWakesWaiters(t *testing.T) {
	p := NewPreview()
	_, _, updated := p.Latest()

	go p.Put([]byte("frame"))

	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}
	if jpeg, seq, _ := p.Latest(); string(jpeg) != "frame" || seq != 1 {
		t.Errorf("Latest = %q, %d", jpeg, seq)
	}
}
