package live

import (
	"io"

	"github.com/vocalens/vocalens/internal/audiodev"
	"github.com/vocalens/vocalens/pkg/live/protocol"
)

func defaultOpenMic() (io.ReadCloser, error) {
	return audiodev.OpenMic(protocol.CaptureSampleRateHz)
}

func defaultOpenSpeaker() (PlaybackDevice, error) {
	return audiodev.OpenSpeaker(protocol.PlaybackSampleRateHz)
}
