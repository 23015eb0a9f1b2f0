package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
)

const (
	oggCapture   = "OggS"
	oggHeaderLen = 27

	// oggContinued marks a page whose first segment continues the previous
	// page's last packet.
	oggContinued = 0x01
)

var (
	errOggCapture = errors.New("ogg: invalid capture pattern")
	errOggVersion = errors.New("ogg: unsupported version")
)

// oggPage is one page with its packets reassembled. A packet that spans
// pages is reported on the page where it ends.
type oggPage struct {
	granule int64
	packets [][]byte
}

// oggMark records where a page ends and the granule reached by it.
type oggMark struct {
	granule int64
	end     int64
}

type oggReader struct {
	r       io.Reader
	lacing  [255]byte
	pending []byte
}

func readOggHeader(r io.Reader, lacing []byte) (hdr [oggHeaderLen]byte, segs []byte, err error) {
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return hdr, nil, err
	}
	if string(hdr[:4]) != oggCapture {
		return hdr, nil, errOggCapture
	}
	if hdr[4] != 0 {
		return hdr, nil, errOggVersion
	}
	segs = lacing[:hdr[26]]
	if _, err = io.ReadFull(r, segs); err != nil {
		return hdr, nil, err
	}
	return hdr, segs, nil
}

func oggGranule(hdr [oggHeaderLen]byte) int64 {
	return int64(binary.LittleEndian.Uint64(hdr[6:14])) //nolint:gosec // -1 means no packet ends here
}

// next reads one page. After reset, a leading continued packet is dropped.
func (o *oggReader) next() (oggPage, error) {
	hdr, segs, err := readOggHeader(o.r, o.lacing[:])
	if err != nil {
		return oggPage{}, err
	}
	size := 0
	for _, l := range segs {
		size += int(l)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(o.r, body); err != nil {
		return oggPage{}, err
	}

	page := oggPage{granule: oggGranule(hdr)}
	continued := hdr[5]&oggContinued != 0
	if !continued {
		o.pending = nil
	}
	skip := continued && o.pending == nil
	pos := 0
	for _, l := range segs {
		seg := body[pos : pos+int(l)]
		pos += int(l)
		if !skip {
			o.pending = append(o.pending, seg...)
		}
		if l < 255 {
			if !skip {
				page.packets = append(page.packets, o.pending)
			}
			o.pending = nil
			skip = false
		}
	}
	return page, nil
}

func (o *oggReader) reset() { o.pending = nil }

// scanOgg walks page headers from the current offset to the end of r.
func scanOgg(r io.ReadSeeker) ([]oggMark, error) {
	var (
		marks  []oggMark
		lacing [255]byte
	)
	for {
		hdr, segs, err := readOggHeader(r, lacing[:])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return marks, nil
		}
		if err != nil {
			return nil, err
		}
		size := 0
		for _, l := range segs {
			size += int(l)
		}
		end, err := r.Seek(int64(size), io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		if g := oggGranule(hdr); g >= 0 {
			marks = append(marks, oggMark{granule: g, end: end})
		}
	}
}

// oggStream adapts an Ogg Vorbis or Opus file to beep.StreamSeekCloser.
// Output is always stereo; mono is duplicated and extra channels dropped.
type oggStream struct {
	src    io.ReadSeekCloser
	rd     *oggReader
	codec  oggCodec
	marks  []oggMark
	start  int64
	length int

	queue [][]byte
	pcm   []float32
	pos   int
	drop  int
	err   error
}

func decodeOgg(f io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	rd := &oggReader{r: f}
	var codec oggCodec
	for done := false; !done; {
		page, err := rd.next()
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("ogg headers: %w", err)
		}
		for _, pkt := range page.packets {
			if done {
				break
			}
			if codec == nil {
				codec, err = newOggCodec(pkt)
			} else {
				done, err = codec.Header(pkt)
			}
			if err != nil {
				return nil, beep.Format{}, err
			}
		}
	}

	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, beep.Format{}, err
	}
	marks, err := scanOgg(f)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, beep.Format{}, err
	}
	rd.reset()

	s := newOggStream(f, rd, codec, marks, start)
	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.SampleRate()),
		NumChannels: 2,
		Precision:   2,
	}
	return s, format, nil
}

func newOggStream(src io.ReadSeekCloser, rd *oggReader, codec oggCodec, marks []oggMark, start int64) *oggStream {
	length := 0
	if len(marks) > 0 {
		length = max(int(marks[len(marks)-1].granule)-codec.PreSkip(), 0)
	}
	return &oggStream{
		src:    src,
		rd:     rd,
		codec:  codec,
		marks:  marks,
		start:  start,
		length: length,
		drop:   codec.PreSkip(),
	}
}

func (s *oggStream) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil {
		return 0, false
	}
	ch := s.codec.Channels()
	n := 0
	for n < len(samples) && s.pos < s.length {
		if len(s.pcm) >= ch {
			frames := len(s.pcm) / ch
			if s.drop > 0 {
				k := min(s.drop, frames)
				s.pcm = s.pcm[k*ch:]
				s.drop -= k
				continue
			}
			k := min(frames, len(samples)-n, s.length-s.pos)
			for i := range k {
				l := s.pcm[i*ch]
				r := l
				if ch > 1 {
					r = s.pcm[i*ch+1]
				}
				samples[n+i] = [2]float64{float64(l), float64(r)}
			}
			s.pcm = s.pcm[k*ch:]
			n += k
			s.pos += k
			continue
		}
		if len(s.queue) == 0 {
			page, err := s.rd.next()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return n, n > 0
			}
			if err != nil {
				s.err = err
				return n, n > 0
			}
			s.queue = page.packets
			continue
		}
		pkt := s.queue[0]
		s.queue = s.queue[1:]
		pcm, err := s.codec.Decode(pkt)
		if err != nil {
			// corrupt packets are skipped
			continue
		}
		s.pcm = pcm
	}
	return n, n > 0
}

func (s *oggStream) Err() error    { return s.err }
func (s *oggStream) Len() int      { return s.length }
func (s *oggStream) Position() int { return s.pos }
func (s *oggStream) Close() error  { return s.src.Close() }

// Seek restarts decoding from the last page that ends before the target
// (less the codec's preroll) and discards samples up to it.
func (s *oggStream) Seek(p int) error {
	p = min(max(p, 0), s.length)
	target := int64(max(p-s.codec.Preroll(), 0) + s.codec.PreSkip())
	offset, granule := s.start, int64(0)
	for _, m := range s.marks {
		if m.granule >= target {
			break
		}
		offset, granule = m.end, m.granule
	}
	if _, err := s.src.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	s.rd.reset()
	s.codec.Reset()
	s.queue = nil
	s.pcm = nil
	s.err = nil
	s.drop = p - (int(granule) - s.codec.PreSkip())
	s.pos = p
	return nil
}
