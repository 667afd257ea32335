package live

import (
	"io"
	"sync"
	"time"
)

// Clock abstracts the playback device clock so scheduling is testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type scheduledFrame struct {
	pcm   []byte
	start time.Time
	gen   uint64
}

// Scheduler orders decoded audio frames for gapless playback. Each frame
// starts at max(clock now, cursor) and the cursor advances by the frame's
// duration, so back-to-back chunks neither gap nor overlap. The cursor never
// moves backward within a session.
type Scheduler struct {
	clock        Clock
	sampleRateHz int
	sink         io.Writer
	sleep        func(time.Duration)

	mu     sync.Mutex
	cursor time.Time
	gen    uint64

	frames chan scheduledFrame
	done   chan struct{}

	closeOnce sync.Once
}

// NewScheduler starts a scheduler draining into sink at the given rate.
func NewScheduler(sink io.Writer, sampleRateHz int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		clock:        systemClock{},
		sampleRateHz: sampleRateHz,
		sink:         sink,
		sleep:        time.Sleep,
		frames:       make(chan scheduledFrame, 64),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.drain()
	return s
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock sets the clock used for scheduling decisions.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) { s.clock = c }
}

// WithSleep sets the wait function used by the drain loop.
func WithSleep(fn func(time.Duration)) SchedulerOption {
	return func(s *Scheduler) { s.sleep = fn }
}

// Schedule queues a 16-bit mono PCM frame and returns its start time. Called
// only from the session's inbound loop (single writer).
func (s *Scheduler) Schedule(pcm []byte) time.Time {
	if len(pcm) == 0 {
		return s.clock.Now()
	}
	d := PCMDuration(len(pcm), s.sampleRateHz)

	s.mu.Lock()
	start := s.clock.Now()
	if s.cursor.After(start) {
		start = s.cursor
	}
	s.cursor = start.Add(d)
	gen := s.gen
	s.mu.Unlock()

	select {
	case s.frames <- scheduledFrame{pcm: pcm, start: start, gen: gen}:
	case <-s.done:
	}
	return start
}

// Cursor returns the current scheduling watermark.
func (s *Scheduler) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Flush discards frames that have not reached the sink yet, including a frame
// the drain loop has already dequeued but not written. The cursor keeps its
// watermark so later frames still schedule monotonically.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	s.gen++
	s.mu.Unlock()
	for {
		select {
		case <-s.frames:
		default:
			return
		}
	}
}

// Close stops the drain loop. Safe to call more than once.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Scheduler) drain() {
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.frames:
			if wait := frame.start.Sub(s.clock.Now()); wait > 0 {
				s.sleep(wait)
			}
			select {
			case <-s.done:
				return
			default:
			}
			s.mu.Lock()
			stale := frame.gen != s.gen
			s.mu.Unlock()
			if stale {
				continue
			}
			_, _ = s.sink.Write(frame.pcm)
		}
	}
}
