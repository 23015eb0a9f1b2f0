package engine

import (
	"encoding/binary"
	"errors"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

const (
	opusSampleRate = 48000
	// Largest Opus frame per channel (120 ms at 48 kHz).
	opusMaxFrame = 5760
	// Opus needs 80 ms of decoded audio to converge after a seek.
	opusPreroll = 3840
)

var (
	errUnknownOggCodec = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errVorbisHeader    = errors.New("vorbis: invalid identification header")
	errOpusHeader      = errors.New("opus: invalid OpusHead")
)

// oggCodec decodes the packets of one logical Ogg stream.
type oggCodec interface {
	SampleRate() int
	Channels() int
	// PreSkip is the number of decoded samples to discard at stream start.
	PreSkip() int
	// Preroll is how far before a seek target decoding must restart.
	Preroll() int
	// Header consumes a header packet after the identification one and
	// reports whether audio packets may follow.
	Header(packet []byte) (done bool, err error)
	// Decode returns interleaved samples, valid until the next call.
	Decode(packet []byte) ([]float32, error)
	Reset()
}

// newOggCodec picks a codec from the identification packet.
func newOggCodec(ident []byte) (oggCodec, error) {
	switch {
	case len(ident) >= 8 && string(ident[:8]) == "OpusHead":
		return newOpusCodec(ident)
	case len(ident) >= 7 && ident[0] == 0x01 && string(ident[1:7]) == "vorbis":
		return newVorbisCodec(ident)
	default:
		return nil, errUnknownOggCodec
	}
}

type vorbisCodec struct {
	dec      vorbis.Decoder
	channels int
	rate     int
	headers  int
}

// newVorbisCodec reads the identification header: version at [7:11],
// channels at [11], sample rate at [12:16].
func newVorbisCodec(ident []byte) (*vorbisCodec, error) {
	if len(ident) < 16 || binary.LittleEndian.Uint32(ident[7:11]) != 0 || ident[11] == 0 {
		return nil, errVorbisHeader
	}
	c := &vorbisCodec{
		channels: int(ident[11]),
		rate:     int(binary.LittleEndian.Uint32(ident[12:16])),
		headers:  1,
	}
	if err := c.dec.ReadHeader(ident); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *vorbisCodec) SampleRate() int { return c.rate }
func (c *vorbisCodec) Channels() int   { return c.channels }
func (c *vorbisCodec) PreSkip() int    { return 0 }
func (c *vorbisCodec) Preroll() int    { return 0 }
func (c *vorbisCodec) Reset()          { c.dec.Clear() }

// Header takes the comment and setup headers.
func (c *vorbisCodec) Header(packet []byte) (bool, error) {
	if err := c.dec.ReadHeader(packet); err != nil {
		return false, err
	}
	c.headers++
	return c.headers >= 3, nil
}

func (c *vorbisCodec) Decode(packet []byte) ([]float32, error) {
	return c.dec.Decode(packet)
}

type opusCodec struct {
	dec      *opus.Decoder
	channels int
	preSkip  int
	buf      []float32
}

// newOpusCodec reads OpusHead: version at [8], channels at [9], pre-skip
// at [10:12].
func newOpusCodec(head []byte) (*opusCodec, error) {
	if len(head) < 19 || head[8] != 1 || head[9] == 0 {
		return nil, errOpusHeader
	}
	channels := int(head[9])
	dec, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		dec:      dec,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(head[10:12])),
		buf:      make([]float32, opusMaxFrame*channels),
	}, nil
}

func (c *opusCodec) SampleRate() int { return opusSampleRate }
func (c *opusCodec) Channels() int   { return c.channels }
func (c *opusCodec) PreSkip() int    { return c.preSkip }
func (c *opusCodec) Preroll() int    { return opusPreroll }

// Reset is a no-op: the decoder converges during preroll.
func (c *opusCodec) Reset() {}

// Header takes OpusTags, the only header after OpusHead.
func (c *opusCodec) Header([]byte) (bool, error) { return true, nil }

func (c *opusCodec) Decode(packet []byte) ([]float32, error) {
	n, err := c.dec.DecodeFloat32(packet, c.buf)
	if err != nil {
		return nil, err
	}
	return c.buf[:n*c.channels], nil
}
