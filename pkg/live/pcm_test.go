package live

import (
	"math"
	"testing"
	"time"
)

func TestFloatToPCM16_ConversionLaw(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32768},
		{0.5, 16384}, // round(0.5 * 32767)
		{-0.5, -16384},
		{2, 32767},    // clamped to 1
		{-2, -32768},  // clamped to -1
		{1.0 / 32767, 1},
		{-1.0 / 32768, -1},
	}

	for _, tc := range cases {
		pcm := FloatToPCM16([]float32{tc.in})
		got := int16(pcm[0]) | int16(pcm[1])<<8
		if got != tc.want {
			t.Errorf("FloatToPCM16(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPCM16ToFloat_DividesBy32768(t *testing.T) {
	t.Parallel()

	pcm := FloatToPCM16([]float32{-1})
	got := PCM16ToFloat(pcm)
	if got[0] != -1 {
		t.Fatalf("PCM16ToFloat(min) = %v, want -1", got[0])
	}

	pcm = []byte{0xFF, 0x7F} // 32767
	got = PCM16ToFloat(pcm)
	want := float32(32767) / 32768.0
	if got[0] != want {
		t.Fatalf("PCM16ToFloat(max) = %v, want %v", got[0], want)
	}
}

func TestPCMRoundTrip_WithinQuantizationStep(t *testing.T) {
	t.Parallel()

	// The encoder scales positives by 32767 and the decoder divides by
	// 32768, so the worst case is (|x| + 0.5)/32768.
	const bound = 1.5 / 32768.0
	samples := make([]float32, 0, 2001)
	for i := -1000; i <= 1000; i++ {
		samples = append(samples, float32(i)/1000.0)
	}

	back := PCM16ToFloat(FloatToPCM16(samples))
	if len(back) != len(samples) {
		t.Fatalf("round trip length = %d, want %d", len(back), len(samples))
	}
	for i, orig := range samples {
		if diff := math.Abs(float64(back[i] - orig)); diff > bound {
			t.Fatalf("sample %v round-tripped to %v, diff %v exceeds quantization bound", orig, back[i], diff)
		}
	}
}

func TestPCM16ToFloat_IgnoresTrailingOddByte(t *testing.T) {
	t.Parallel()

	got := PCM16ToFloat([]byte{0, 0, 0x12})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestPCMDuration(t *testing.T) {
	t.Parallel()

	// 24000 samples at 24 kHz is exactly one second.
	if d := PCMDuration(24000*2, 24000); d != time.Second {
		t.Fatalf("PCMDuration = %v, want 1s", d)
	}
	if d := SampleDuration(12000, 24000); d != 500*time.Millisecond {
		t.Fatalf("SampleDuration = %v, want 500ms", d)
	}
	if d := PCMDuration(0, 24000); d != 0 {
		t.Fatalf("PCMDuration(0) = %v, want 0", d)
	}
}
