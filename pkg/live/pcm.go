package live

import (
	"encoding/binary"
	"math"
	"time"
)

const pcmBytesPerSample = 2

// FloatToPCM16 converts float samples in [-1, 1] to 16-bit signed
// little-endian PCM. The scale is symmetric around zero: negative values map
// onto the 32768 negative steps and positive values onto the 32767 positive
// steps. Out-of-range input is clamped before scaling.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*pcmBytesPerSample)
	for i, sample := range samples {
		s := clampSample(sample)
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}

func clampSample(x float32) int16 {
	v := float64(x)
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(math.Round(v * 32768))
	}
	return int16(math.Round(v * 32767))
}

// PCM16ToFloat converts 16-bit signed little-endian PCM to float samples by
// dividing by 32768. A trailing odd byte is ignored.
func PCM16ToFloat(pcm []byte) []float32 {
	n := len(pcm) / pcmBytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		out[i] = float32(sample) / 32768.0
	}
	return out
}

// PCMDuration returns the playback duration of a 16-bit mono PCM buffer at
// the given sample rate.
func PCMDuration(byteLen, sampleRateHz int) time.Duration {
	if sampleRateHz <= 0 || byteLen <= 0 {
		return 0
	}
	samples := byteLen / pcmBytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRateHz)
}

// SampleDuration returns the playback duration of a float sample buffer at
// the given sample rate.
func SampleDuration(sampleCount, sampleRateHz int) time.Duration {
	if sampleRateHz <= 0 || sampleCount <= 0 {
		return 0
	}
	return time.Duration(sampleCount) * time.Second / time.Duration(sampleRateHz)
}
