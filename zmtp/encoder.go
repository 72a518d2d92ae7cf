package zmtp

import (
	"io"

	"github.com/zmtpfix/zmtpfix/frame"
)

// Encoder writes Frames to the wire as ZMTP short/long frames. It has no
// state of its own today (frame.Frame.WriteTo does the marshalling) but
// exists as the symmetric counterpart to Decoder and the hook point for a
// future batched-write optimisation.
type Encoder struct{}

// WriteFrame marshals f to w.
func (Encoder) WriteFrame(w io.Writer, f *frame.Frame) (int64, error) {
	return f.WriteTo(w)
}

// WriteMessage marshals a complete multipart message (all frames but the
// last carrying FlagMore) to w, stopping at the first write error.
func (e Encoder) WriteMessage(w io.Writer, parts []*frame.Frame) (n int64, err error) {
	for i, f := range parts {
		if i < len(parts)-1 {
			f.Flags |= frame.FlagMore
		} else {
			f.Flags &^= frame.FlagMore
		}
		m, err := e.WriteFrame(w, f)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
