package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	maxBulkLength  = 512 * 1024 * 1024
	maxArrayLength = 1024 * 1024
)

var (
	ErrInvalidEnding  = errors.New("invalid line ending")
	ErrInvalidLength  = errors.New("invalid length")
	ErrUnexpectedType = errors.New("unexpected type")
)

// Decoder reads RESP values from a buffered stream
type Decoder struct {
	rd *bufio.Reader
}

// NewDecoder wraps rd into a buffered Decoder
func NewDecoder(rd io.Reader) *Decoder {
	return &Decoder{rd: bufio.NewReader(rd)}
}

// Buffered returns the number of bytes that can be read from the current buffer
func (d *Decoder) Buffered() int {
	return d.rd.Buffered()
}

// Peek blocks until at least one byte is buffered or the underlying reader fails
func (d *Decoder) Peek() error {
	_, err := d.rd.Peek(1)
	return err
}

// Read decodes the next value. A line that does not start with a RESP type
// byte is parsed as an inline command and returned as an array of bulk strings
func (d *Decoder) Read() (Value, error) {
	_type, err := d.rd.ReadByte()
	if err != nil {
		return Value{}, err
	}

	val := Value{
		Type: _type,
	}

	switch val.Type {
	case TypeSimpleString, TypeError:
		str, err := d.readLine()
		if err != nil {
			return Value{}, err
		}

		val.String = str
		return val, nil

	case TypeInteger:
		num, err := d.readInteger()
		if err != nil {
			return Value{}, err
		}

		val.Integer = num
		return val, nil

	case TypeBulkString:
		return d.readBulkString()

	case TypeArray:
		return d.readArray()
	}

	if err := d.rd.UnreadByte(); err != nil {
		return Value{}, err
	}
	return d.readInline()
}

// readLine reads bytes up to CRLF and strips the terminator
func (d *Decoder) readLine() ([]byte, error) {
	line, err := d.rd.ReadBytes('\n')
	if err != nil {
		return nil, err
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, ErrInvalidEnding
	}

	return line[:len(line)-2], nil
}

func (d *Decoder) readInteger() (int64, error) {
	line, err := d.readLine()
	if err != nil {
		return 0, err
	}

	// Command with integer cant be empty
	if len(line) == 0 {
		return 0, ErrInvalidEnding
	}

	return strconv.ParseInt(string(line), 10, 64)
}

func (d *Decoder) readBulkString() (Value, error) {
	n, err := d.readInteger()
	if err != nil {
		return Value{}, err
	}

	if n == -1 {
		return MakeNilBulkString(), nil
	}
	if n < 0 || n > maxBulkLength {
		return Value{}, fmt.Errorf("bulk string: %w %d", ErrInvalidLength, n)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(d.rd, buf); err != nil {
		return Value{}, err
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return Value{}, ErrInvalidEnding
	}

	return MakeBulkBytes(buf[:n]), nil
}

func (d *Decoder) readArray() (Value, error) {
	n, err := d.readInteger()
	if err != nil {
		return Value{}, err
	}

	if n == -1 {
		return MakeNilArray(), nil
	}
	if n < 0 || n > maxArrayLength {
		return Value{}, fmt.Errorf("array: %w %d", ErrInvalidLength, n)
	}

	items := make([]Value, n)
	for i := range items {
		if items[i], err = d.Read(); err != nil {
			return Value{}, err
		}
	}

	return MakeArray(items), nil
}

// readInline parses a telnet-style command line
func (d *Decoder) readInline() (Value, error) {
	line, err := d.rd.ReadBytes('\n')
	if err != nil {
		return Value{}, err
	}
	line = bytes.TrimRight(line, "\r\n")

	fields := bytes.Fields(line)
	items := make([]Value, len(fields))
	for i, f := range fields {
		items[i] = MakeBulkBytes(f)
	}

	return MakeArray(items), nil
}
