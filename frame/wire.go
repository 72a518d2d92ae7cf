package frame

import (
	"io"

	"github.com/zmtpfix/zmtpfix/wire"
)

// wire-level flag bits (§6), distinct from the app-level Flags above: LARGE
// is a size hint that never survives past decode, and COMMAND/MORE are the
// only bits shared between the two namespaces.
const (
	wireMore    = 0x01
	wireLarge   = 0x02
	wireCommand = 0x04
)

var msb = wire.Msb

// FromBytes reads one ZMTP frame from buf, copying its body into f (via
// SetBytes), so f stays valid after buf is reused. Returns the number of
// bytes consumed.
func (f *Frame) FromBytes(buf []byte) (off int, err error) {
	if len(buf) < 2 {
		return 0, io.ErrUnexpectedEOF
	}

	wflags := buf[0]
	off = 1

	var size uint64
	if wflags&wireLarge != 0 {
		if len(buf) < 9 {
			return 0, io.ErrUnexpectedEOF
		}
		size = msb.Uint64(buf[1:9])
		off = 9
	} else {
		size = uint64(buf[1])
		off = 2
	}

	if uint64(len(buf)-off) < size {
		return 0, io.ErrUnexpectedEOF
	}
	body := buf[off : off+int(size)]
	off += int(size)

	f.Flags = 0
	if wflags&wireMore != 0 {
		f.Flags |= FlagMore
	}

	if wflags&wireCommand != 0 {
		f.Flags |= FlagCommand
		if len(body) < 1 {
			return off, ErrCmdLen
		}
		nlen := int(body[0])
		if len(body) < 1+nlen {
			return off, ErrCmdLen
		}
		f.Command = string(body[1 : 1+nlen])
		f.SetBytes(body[1+nlen:])
	} else {
		f.Command = ""
		f.SetBytes(body)
	}

	return off, nil
}

// WriteTo marshals f to the ZMTP wire format, implementing io.WriterTo.
// A COMMAND frame's body is reconstructed as [namelen][name][payload].
func (f *Frame) WriteTo(w io.Writer) (n int64, err error) {
	body := f.Bytes()
	isCommand := f.Flags.Has(FlagCommand)

	size := len(body)
	if isCommand {
		size += 1 + len(f.Command)
	}

	wflags := byte(0)
	if f.Flags.Has(FlagMore) {
		wflags |= wireMore
	}
	if isCommand {
		wflags |= wireCommand
	}

	var m int
	if size > 255 {
		wflags |= wireLarge
		m, err = w.Write([]byte{wflags})
		if err != nil {
			return
		}
		n += int64(m)
		m, err = msb.WriteUint64(w, uint64(size))
		if err != nil {
			return
		}
		n += int64(m)
	} else {
		m, err = w.Write([]byte{wflags, byte(size)})
		if err != nil {
			return
		}
		n += int64(m)
	}

	if isCommand {
		m, err = w.Write([]byte{byte(len(f.Command))})
		if err != nil {
			return
		}
		n += int64(m)
		m, err = io.WriteString(w, f.Command)
		if err != nil {
			return
		}
		n += int64(m)
	}

	if len(body) > 0 {
		m, err = w.Write(body)
		if err != nil {
			return
		}
		n += int64(m)
	}

	return n, nil
}

// WireLen returns the number of bytes WriteTo would write.
func (f *Frame) WireLen() int {
	size := f.Len()
	isCommand := f.Flags.Has(FlagCommand)
	if isCommand {
		size += 1 + len(f.Command)
	}
	if size > 255 {
		return 9 + size
	}
	return 2 + size
}
