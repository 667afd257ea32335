package live

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// blockingSink parks every Write until released, and signals when a write has
// started so tests can synchronize with the drain loop.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	writes [][]byte
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (b *blockingSink) Write(p []byte) (int, error) {
	b.entered <- struct{}{}
	<-b.release
	b.mu.Lock()
	b.writes = append(b.writes, append([]byte(nil), p...))
	b.mu.Unlock()
	return len(p), nil
}

func (b *blockingSink) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

func pcmOfDuration(d time.Duration, rateHz int) []byte {
	samples := int(d.Seconds() * float64(rateHz))
	return make([]byte, samples*2)
}

func TestScheduler_BackToBackChunksAreGapless(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewScheduler(io.Discard, 24000, WithClock(clock), WithSleep(func(time.Duration) {}))
	defer s.Close()

	chunks := []time.Duration{
		250 * time.Millisecond,
		100 * time.Millisecond,
		400 * time.Millisecond,
	}

	var prevEnd time.Time
	for i, d := range chunks {
		start := s.Schedule(pcmOfDuration(d, 24000))
		if i == 0 {
			if !start.Equal(clock.Now()) {
				t.Fatalf("first chunk starts at %v, want now %v", start, clock.Now())
			}
		} else if !start.Equal(prevEnd) {
			t.Fatalf("chunk %d starts at %v, want end of previous chunk %v", i, start, prevEnd)
		}
		prevEnd = start.Add(d)
	}

	if got := s.Cursor(); !got.Equal(prevEnd) {
		t.Fatalf("cursor = %v, want %v", got, prevEnd)
	}
}

func TestScheduler_IdleGapStartsAtNow(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewScheduler(io.Discard, 24000, WithClock(clock), WithSleep(func(time.Duration) {}))
	defer s.Close()

	first := s.Schedule(pcmOfDuration(100*time.Millisecond, 24000))
	end := first.Add(100 * time.Millisecond)

	// Let real time move well past the cursor before the next chunk arrives.
	clock.advance(5 * time.Second)

	second := s.Schedule(pcmOfDuration(100*time.Millisecond, 24000))
	if !second.Equal(clock.Now()) {
		t.Fatalf("post-gap chunk starts at %v, want now %v", second, clock.Now())
	}
	if second.Before(end) {
		t.Fatalf("cursor moved backward: %v before %v", second, end)
	}
}

func TestScheduler_FlushKeepsCursor(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	sink := newBlockingSink()
	s := NewScheduler(sink, 24000, WithClock(clock), WithSleep(func(time.Duration) {}))
	defer s.Close()

	for i := 0; i < 3; i++ {
		s.Schedule(pcmOfDuration(100*time.Millisecond, 24000))
	}
	watermark := s.Cursor()

	// Wait for the drain loop to park in the sink, then drop the queue.
	<-sink.entered
	s.Flush()

	if got := s.Cursor(); !got.Equal(watermark) {
		t.Fatalf("cursor = %v after flush, want %v", got, watermark)
	}

	// The next chunk schedules from the kept watermark, not from scratch.
	start := s.Schedule(pcmOfDuration(100*time.Millisecond, 24000))
	if !start.Equal(watermark) {
		t.Fatalf("post-flush chunk starts at %v, want watermark %v", start, watermark)
	}

	// Exactly two frames may reach the sink: the one already mid-write when
	// Flush ran, and the post-flush frame.
	close(sink.release)
	deadline := time.Now().Add(2 * time.Second)
	for sink.writeCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sink received %d frames, want 2", sink.writeCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	if got := sink.writeCount(); got != 2 {
		t.Fatalf("%d frames reached the sink, flushed frames should be dropped", got)
	}
}

type countingSink struct {
	mu     sync.Mutex
	writes [][]byte
}

func (c *countingSink) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (c *countingSink) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.writes))
	copy(out, c.writes)
	return out
}

func TestScheduler_FlushDropsDequeuedFrame(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	sink := &countingSink{}
	sleeping := make(chan struct{}, 4)
	release := make(chan struct{})
	s := NewScheduler(sink, 24000, WithClock(clock), WithSleep(func(time.Duration) {
		sleeping <- struct{}{}
		<-release
	}))
	defer s.Close()

	// The first frame starts at now and is written without waiting; the
	// second is dequeued and parked in the wait before its future start.
	s.Schedule(bytes.Repeat([]byte{1}, 480))
	s.Schedule(bytes.Repeat([]byte{2}, 480))
	<-sleeping

	s.Flush()
	close(release)

	// The parked frame wakes after the flush and must be dropped.
	time.Sleep(50 * time.Millisecond)
	if writes := sink.snapshot(); len(writes) != 1 || writes[0][0] != 1 {
		t.Fatalf("sink writes = %d, want only the pre-flush frame", len(writes))
	}

	// Frames scheduled after the flush still play.
	s.Schedule(bytes.Repeat([]byte{3}, 480))
	deadline := time.Now().Add(2 * time.Second)
	for len(sink.snapshot()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("post-flush frame never reached the sink")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if writes := sink.snapshot(); writes[1][0] != 3 {
		t.Fatalf("second write starts with %d, want the post-flush frame", writes[1][0])
	}
}

func TestScheduler_EmptyFrameDoesNotAdvanceCursor(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	s := NewScheduler(io.Discard, 24000, WithClock(clock), WithSleep(func(time.Duration) {}))
	defer s.Close()

	s.Schedule(nil)
	if got := s.Cursor(); !got.IsZero() {
		t.Fatalf("cursor = %v after empty frame, want zero", got)
	}
}

func TestScheduler_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewScheduler(io.Discard, 24000, WithSleep(func(time.Duration) {}))
	s.Close()
	s.Close()

	// Scheduling after close must not block even with a full queue.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 128; i++ {
			s.Schedule(pcmOfDuration(10*time.Millisecond, 24000))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Schedule blocked after Close")
	}
}
