package engine

import (
	"context"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

const alacFrameSize = 4096

var errM4ACodec = errors.New("m4a: unsupported codec")

// m4aStream decodes AAC or ALAC samples read from an MP4 container. Output
// is always stereo.
type m4aStream struct {
	container *m4a.Reader
	src       io.Closer
	codec     m4a.CodecType
	aac       *faad2.Decoder
	alac      *alac.Alac
	channels  int
	bits      int
	rate      beep.SampleRate
	length    int

	next   int // index of the next container sample
	frames [][2]float64
	err    error
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	rate := container.SampleRate()
	s := &m4aStream{
		container: container,
		src:       rc,
		codec:     container.Codec(),
		channels:  int(container.Channels()),
		bits:      int(container.SampleSize()),
		rate:      beep.SampleRate(rate),
		length:    int(container.Duration().Seconds() * float64(rate)),
	}

	if s.channels < 1 {
		return nil, beep.Format{}, errM4ACodec
	}

	precision := 2
	switch s.codec {
	case m4a.CodecAAC:
		dec, err := faad2.NewDecoder(context.Background())
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(context.Background(), container.CodecConfig()); err != nil {
			dec.Close(context.Background())
			return nil, beep.Format{}, err
		}
		s.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  int(rate),
			SampleSize:  s.bits,
			NumChannels: s.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		s.alac = dec
		if s.bits == 24 {
			precision = 3
		}
	default:
		return nil, beep.Format{}, errM4ACodec
	}

	format := beep.Format{SampleRate: s.rate, NumChannels: 2, Precision: precision}
	return s, format, nil
}

func (s *m4aStream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	n := 0
	for n < len(samples) {
		if len(s.frames) > 0 {
			k := copy(samples[n:], s.frames)
			s.frames = s.frames[k:]
			n += k
			continue
		}
		if s.next >= s.container.SampleCount() {
			break
		}
		data, err := s.container.ReadSample(s.next)
		if err != nil {
			s.err = err
			break
		}
		s.next++
		if s.frames, err = s.decode(data); err != nil {
			s.err = err
			break
		}
	}
	return n, n > 0
}

func (s *m4aStream) decode(data []byte) ([][2]float64, error) {
	if s.aac != nil {
		pcm, err := s.aac.Decode(context.Background(), data)
		if err != nil {
			return nil, err
		}
		return pcm16ToStereo(pcm, s.channels), nil
	}
	raw := s.alac.Decode(data)
	if s.bits == 24 {
		return pcm24ToStereo(raw, s.channels), nil
	}
	return pcm16LEToStereo(raw, s.channels), nil
}

func (s *m4aStream) Err() error { return s.err }
func (s *m4aStream) Len() int   { return s.length }

func (s *m4aStream) Position() int {
	return s.rate.N(s.container.SampleTime(s.next))
}

// Seek lands on the container sample covering p.
func (s *m4aStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	s.next = s.container.SeekToTime(s.rate.D(p))
	s.frames = nil
	s.err = nil
	return nil
}

func (s *m4aStream) Close() error {
	if s.aac != nil {
		s.aac.Close(context.Background())
	}
	return s.src.Close()
}

// pcm16ToStereo converts interleaved samples; mono is duplicated and
// channels past the second are dropped.
func pcm16ToStereo(pcm []int16, channels int) [][2]float64 {
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		l := float64(pcm[i*channels]) / 32768
		r := l
		if channels > 1 {
			r = float64(pcm[i*channels+1]) / 32768
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

func pcm16LEToStereo(data []byte, channels int) [][2]float64 {
	stride := 2 * channels
	frames := make([][2]float64, len(data)/stride)
	at := func(off int) float64 {
		return float64(int16(uint16(data[off])|uint16(data[off+1])<<8)) / 32768 //nolint:gosec // pcm sample
	}
	for i := range frames {
		off := i * stride
		l := at(off)
		r := l
		if channels > 1 {
			r = at(off + 2)
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

func pcm24ToStereo(data []byte, channels int) [][2]float64 {
	stride := 3 * channels
	frames := make([][2]float64, len(data)/stride)
	at := func(off int) float64 {
		v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / (1 << 23)
	}
	for i := range frames {
		off := i * stride
		l := at(off)
		r := l
		if channels > 1 {
			r = at(off + 3)
		}
		frames[i] = [2]float64{l, r}
	}
	return frames
}

// Verify stream adapters implement beep.StreamSeekCloser at compile time.
var (
	_ beep.StreamSeekCloser = (*m4aStream)(nil)
	_ beep.StreamSeekCloser = (*oggStream)(nil)
	_ beep.StreamSeekCloser = (*mp3Stream)(nil)
)
