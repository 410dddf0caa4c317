package resp

import (
	"io"
	"strconv"
)

const (
	initialBufferSize = 4 << 10
	// pending output beyond this is written through without waiting for Flush
	flushThreshold = 64 << 10
)

// AppendValue appends the wire form of v to dst. The zero Value appends nothing
func AppendValue(dst []byte, v Value) []byte {
	switch v.Type {
	case TypeInteger:
		dst = strconv.AppendInt(append(dst, TypeInteger), v.Integer, 10)
		return append(dst, '\r', '\n')

	case TypeSimpleString, TypeError:
		dst = append(append(dst, v.Type), v.String...)
		return append(dst, '\r', '\n')

	case TypeBulkString:
		if v.IsNull {
			return append(dst, "$-1\r\n"...)
		}
		dst = appendHeader(dst, TypeBulkString, len(v.String))
		dst = append(dst, v.String...)
		return append(dst, '\r', '\n')

	case TypeArray:
		if v.IsNull {
			return append(dst, "*-1\r\n"...)
		}
		dst = appendHeader(dst, TypeArray, len(v.Array))
		for _, el := range v.Array {
			dst = AppendValue(dst, el)
		}
		return dst
	}

	return dst
}

func appendHeader(dst []byte, prefix byte, n int) []byte {
	dst = strconv.AppendInt(append(dst, prefix), int64(n), 10)
	return append(dst, '\r', '\n')
}

// Encoder collects replies and writes them to the underlying stream on Flush,
// so pipelined replies share a single write. It is not safe for concurrent use
type Encoder struct {
	w   io.Writer
	buf []byte
	err error // first write error, returned from then on
}

// NewEncoder initializes an Encoder writing to w
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 0, initialBufferSize),
	}
}

// Write serializes a RESP Value into the pending output
func (e *Encoder) Write(v Value) error {
	if e.err != nil {
		return e.err
	}

	e.buf = AppendValue(e.buf, v)
	if len(e.buf) >= flushThreshold {
		return e.Flush()
	}
	return nil
}

// Buffered returns the number of bytes waiting for Flush
func (e *Encoder) Buffered() int {
	return len(e.buf)
}

// Flush sends all pending output to the underlying writer
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if len(e.buf) == 0 {
		return nil
	}

	_, e.err = e.w.Write(e.buf)

	// a burst may have grown the buffer far beyond the usual reply size
	if cap(e.buf) > 4*flushThreshold {
		e.buf = make([]byte, 0, initialBufferSize)
	} else {
		e.buf = e.buf[:0]
	}
	return e.err
}
