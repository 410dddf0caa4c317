// Package storage is the keyspace: the single owner of all key/value state.
//
// Keys live in power-of-two shards, each guarded by its own mutex. Callers
// never touch a shard directly; they Acquire a Scope over the keys a command
// declares, which locks the owning shards in ascending order, run any number
// of operations, and Release it. Everything done inside one Scope is atomic
// with respect to every other Scope that shares a shard.
//
// Every mutation stamps the entity with a fresh value of a keyspace-wide
// monotonic clock, so an optimistic transaction can detect any change of a
// key (including deletion, expiry and re-creation) by comparing versions.
package storage

import (
	"errors"
	"time"
)

var (
	ErrWrongType       = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrNoSuchKey       = errors.New("no such key")
	ErrNotInteger      = errors.New("value is not an integer or out of range")
	ErrNotFloat        = errors.New("value is not a valid float")
	ErrOverflow        = errors.New("increment or decrement would overflow")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrSyntax          = errors.New("syntax error")
	ErrNaN             = errors.New("increment would produce NaN or Infinity")
	ErrStringTooLong   = errors.New("string exceeds maximum allowed size (512MB)")
)

type ExpiryStatus int

const (
	// ExpNotFound means that the key does not exist
	ExpNotFound ExpiryStatus = -2
	// ExpNoTimeout means that the key exists, but it does not have a TTL
	ExpNoTimeout ExpiryStatus = -1
	// ExpActive means that the key has an active lifetime
	ExpActive ExpiryStatus = 1
)

type SetOptions struct {
	TTL      time.Duration // key lifetime
	ExpireAt time.Time     // absolute deadline, used when TTL is zero
	KeepTTL  bool          // if true, retain the existing TTL (ignore TTL field)
	NX       bool          // only set if the key does not exist
	XX       bool          // only set if the key already exists
	Get      bool          // return the previous value, failing if it is not a string
}

// SetResult describes the outcome of Set
type SetResult struct {
	Old     []byte
	HadOld  bool
	Written bool
}
