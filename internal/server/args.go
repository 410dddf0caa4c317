package server

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/eternalApril/umbra/internal/resp"
	"github.com/eternalApril/umbra/internal/storage"
	"github.com/eternalApril/umbra/internal/zset"
)

var (
	errNotInteger    = errors.New("value is not an integer or out of range")
	errNotFloat      = errors.New("value is not a valid float")
	errSyntax        = errors.New("syntax error")
	errTimeout       = errors.New("timeout is not a float or out of range")
	errNegativeCount = errors.New("value is out of range, must be positive")
	errOutOfRange    = errors.New("value is out of range")
)

// errorReply translates a storage or parse error into a RESP error. Errors
// that already carry a Redis prefix are passed through
func errorReply(err error) resp.Value {
	msg := err.Error()
	if errors.Is(err, storage.ErrWrongType) || strings.HasPrefix(msg, "EXECABORT") {
		return resp.MakeError(msg)
	}
	return resp.MakeError("ERR " + msg)
}

func argString(v resp.Value) string {
	return string(v.String)
}

func argStrings(args []resp.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a.String)
	}
	return out
}

func argBytes(args []resp.Value) [][]byte {
	out := make([][]byte, len(args))
	for i, a := range args {
		out[i] = a.String
	}
	return out
}

func argUpper(v resp.Value) string {
	return strings.ToUpper(string(v.String))
}

func parseInt(v resp.Value) (int64, error) {
	n, err := strconv.ParseInt(string(v.String), 10, 64)
	if err != nil {
		return 0, errNotInteger
	}
	return n, nil
}

func parseFloat(v resp.Value) (float64, error) {
	f, err := zset.ParseScore(string(v.String))
	if err != nil {
		return 0, errNotFloat
	}
	return f, nil
}

// deadlineAfter returns now plus n units. It fails when the deadline does not
// fit the nanosecond clock
func deadlineAfter(now time.Time, n int64, unit time.Duration) (time.Time, bool) {
	if n > (math.MaxInt64-now.UnixNano())/int64(unit) || n < math.MinInt64/int64(unit) {
		return time.Time{}, false
	}
	return now.Add(time.Duration(n) * unit), true
}

// parseTimeout reads a blocking timeout in seconds; 0 means forever
func parseTimeout(v resp.Value) (float64, error) {
	f, err := strconv.ParseFloat(string(v.String), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errTimeout
	}
	if f < 0 {
		return 0, errors.New("timeout is negative")
	}
	return f, nil
}

// parseCount reads an optional positive count argument
func parseCount(v resp.Value) (int, error) {
	n, err := parseInt(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegativeCount
	}
	return int(min(n, math.MaxInt32)), nil
}
