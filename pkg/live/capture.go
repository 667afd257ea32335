package live

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
)

// DefaultCaptureBlockSamples is the fixed number of samples read per capture
// block before conversion and submission.
const DefaultCaptureBlockSamples = 4096

// capturePipeline slices the microphone's float32 little-endian stream into
// fixed-size blocks, converts each block to 16-bit PCM, and hands it to the
// session sender. It owns the source and stops when the source is closed.
type capturePipeline struct {
	src          io.ReadCloser
	blockSamples int
	emit         func(pcm []byte)
	fail         func(err error)

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func newCapturePipeline(src io.ReadCloser, blockSamples int, emit func([]byte), fail func(error)) *capturePipeline {
	if blockSamples <= 0 {
		blockSamples = DefaultCaptureBlockSamples
	}
	p := &capturePipeline{
		src:          src,
		blockSamples: blockSamples,
		emit:         emit,
		fail:         fail,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *capturePipeline) run() {
	defer close(p.stopped)

	buf := make([]byte, p.blockSamples*4)
	for {
		if _, err := io.ReadFull(p.src, buf); err != nil {
			select {
			case <-p.done:
				// Torn down by stop; not a device failure.
			default:
				if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
					p.fail(err)
				}
			}
			return
		}
		p.emit(FloatToPCM16(decodeFloat32LE(buf)))
	}
}

// stop closes the source and waits for the read loop to exit, so the capture
// pipeline is fully torn down before Disconnect resolves.
func (p *capturePipeline) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		_ = p.src.Close()
	})
	<-p.stopped
}

func decodeFloat32LE(buf []byte) []float32 {
	n := len(buf) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out
}
