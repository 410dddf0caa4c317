package resp

const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

// Value is a single RESP2 frame. The zero Value (Type == 0) carries no reply
// and is skipped by the connection writer.
type Value struct {
	String  []byte // SimpleString, Error, BulkString
	Array   []Value
	Integer int64 // Integer
	Type    byte
	IsNull  bool // For nil BulkString and nil Array
}

// IsEmpty reports whether v is the zero Value, used by handlers that reply out of band
func (v Value) IsEmpty() bool {
	return v.Type == 0
}

// IsError reports whether v is an error reply
func (v Value) IsError() bool {
	return v.Type == TypeError
}

// Text returns the string payload of v
func (v Value) Text() string {
	return string(v.String)
}
