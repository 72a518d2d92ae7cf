package zmtp

import (
	"io"

	"github.com/zmtpfix/zmtpfix/frame"
)

// Decoder turns a byte stream into a sequence of Frames, buffering partial
// reads the way bgpfix's pipe.Input.WriteFunc buffers a partial BGP message:
// Write copies src, appends any previously buffered remainder, decodes as
// many whole frames as are available and carries the rest over.
type Decoder struct {
	Pool *frame.Pool // optional; nil falls back to frame.New per call

	ibuf []byte
	out  []*frame.Frame
}

// Write consumes src, appending any complete frames decoded to the
// internal out queue (drain with Next). Always returns len(src), nil on a
// clean parse; a malformed frame is reported without losing what could be
// recovered, mirroring Input.WriteFunc's contract.
func (d *Decoder) Write(src []byte) (int, error) {
	raw := src
	if len(d.ibuf) > 0 {
		d.ibuf = append(d.ibuf, raw...)
		raw = d.ibuf
	}

	defer func() {
		if len(raw) == 0 {
			d.ibuf = d.ibuf[:0]
		} else if len(d.ibuf) == 0 || &raw[0] != &d.ibuf[0] {
			d.ibuf = append(d.ibuf[:0], raw...)
		}
	}()

	for len(raw) > 0 {
		f := d.get()
		off, err := f.FromBytes(raw)
		switch err {
		case nil:
			raw = raw[off:]
		case io.ErrUnexpectedEOF:
			d.put(f)
			return len(src), nil // defer buffers the remainder
		default:
			d.put(f)
			if off > 0 {
				raw = raw[off:]
			} else {
				raw = nil
			}
			return len(src), err
		}
		d.out = append(d.out, f)
	}

	return len(src), nil
}

func (d *Decoder) get() *frame.Frame {
	if d.Pool != nil {
		return d.Pool.Get()
	}
	return frame.New()
}

func (d *Decoder) put(f *frame.Frame) {
	if d.Pool != nil {
		d.Pool.Put(f)
	}
}

// Next pops the next decoded frame, or returns nil, false if none is ready.
func (d *Decoder) Next() (*frame.Frame, bool) {
	if len(d.out) == 0 {
		return nil, false
	}
	f := d.out[0]
	d.out[0] = nil
	d.out = d.out[1:]
	return f, true
}

// Pending reports how many decoded frames are waiting to be drained.
func (d *Decoder) Pending() int {
	return len(d.out)
}
