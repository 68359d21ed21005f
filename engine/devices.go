package engine

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"gopkg.in/hraban/opus.v2"
)

// Fixed audio parameters, not configurable via the session file format.
const (
	SampleRateHz    = 48000
	Channels        = 1
	FrameDurationMs = 40
	FrameSamples    = SampleRateHz * FrameDurationMs / 1000 // 1920
	deviceBufSize   = 512                                   // device buffer request, in samples
	outputRingSize  = 20 * FrameSamples                     // 38400
)

// outputStream abstracts a bound-buffer PortAudio output stream so tests
// can drive the handler without real hardware.
type outputStream interface {
	Start() error
	Stop() error
	Close() error
	Write() error
}

// inputStream is the input-side counterpart, owned by the recorder.
type inputStream interface {
	Start() error
	Stop() error
	Close() error
	Read() error
}

// opusEncoder abstracts Opus encoding for testing.
type opusEncoder interface {
	Encode(pcm []int16, data []byte) (int, error)
}

// opusDecoder abstracts Opus decoding for testing.
type opusDecoder interface {
	Decode(data []byte, pcm []int16) (int, error)
}

// newOpusEncoder builds the session's single Opus encoder, Audio
// application profile, default bitrate.
func newOpusEncoder() (opusEncoder, error) {
	enc, err := opus.NewEncoder(SampleRateHz, Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("%w: new opus encoder: %v", ErrDevice, err)
	}
	return enc, nil
}

// newOpusDecoder builds a fresh Opus decoder. Called at handler
// construction, on Load, and after every Seek (see DESIGN.md — decoder
// reset open question).
func newOpusDecoder() (opusDecoder, error) {
	dec, err := opus.NewDecoder(SampleRateHz, Channels)
	if err != nil {
		return nil, fmt.Errorf("%w: new opus decoder: %v", ErrDevice, err)
	}
	return dec, nil
}

// openOutputStream opens the process-lifetime output device stream and
// its bound int16 write buffer: mono, 48kHz, i16, 512-sample requested
// buffer. deviceIndex < 0 selects the default output device.
func openOutputStream(deviceIndex int) (outputStream, []int16, error) {
	dev, err := resolveOutputDevice(deviceIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	buf := make([]int16, deviceBufSize)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: Channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      SampleRateHz,
		FramesPerBuffer: deviceBufSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open output stream: %v", ErrDevice, err)
	}
	return stream, buf, nil
}

// openInputStream opens an input device stream and its bound int16 read
// buffer. deviceIndex < 0 selects the default input device.
func openInputStream(deviceIndex int) (inputStream, []int16, error) {
	dev, err := resolveInputDevice(deviceIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	buf := make([]int16, deviceBufSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      SampleRateHz,
		FramesPerBuffer: deviceBufSize,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open input stream: %v", ErrDevice, err)
	}
	return stream, buf, nil
}

func resolveOutputDevice(idx int) (*portaudio.DeviceInfo, error) {
	if idx < 0 {
		return portaudio.DefaultOutputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if idx >= len(devices) {
		return nil, fmt.Errorf("output device index %d out of range", idx)
	}
	return devices[idx], nil
}

func resolveInputDevice(idx int) (*portaudio.DeviceInfo, error) {
	if idx < 0 {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if idx >= len(devices) {
		return nil, fmt.Errorf("input device index %d out of range", idx)
	}
	return devices[idx], nil
}
