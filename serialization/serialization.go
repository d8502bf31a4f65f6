package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"time"

	"github.com/davidvella/barrace/recordio"
	"github.com/davidvella/barrace/types"
)

// ErrMalformedKey is returned when a key was not produced by KeySerializer.
var ErrMalformedKey = errors.New("malformed key")

const (
	separator = 0x00
	// signBit flips the sign of the Unix seconds so that dates before the
	// epoch sort ahead of later ones under bytewise comparison.
	signBit = uint64(1) << 63
	// TimeSize is the length of an encoded time: seconds then nanoseconds.
	TimeSize = 12
)

// TypeSerializer defines how to serialize/deserialize specific types
type TypeSerializer[T any] interface {
	SerializeValue(value T) ([]byte, error)
	DeserializeValue(data []byte) (T, error)
}

// KeySerializer builds ordered composite keys.
//
// A name key is namespace 0x00 name 0x00 date and sorts by name then date.
// A date key is namespace 0x00 date name and sorts by date then name.
type KeySerializer struct{}

// NamespacePrefix returns the prefix shared by every key in namespace.
func (ks *KeySerializer) NamespacePrefix(namespace string) []byte {
	return append([]byte(namespace), separator)
}

// NamespaceEnd returns the smallest key greater than every key in namespace.
func (ks *KeySerializer) NamespaceEnd(namespace string) []byte {
	return append([]byte(namespace), separator+1)
}

// NameEnd returns the smallest key greater than every name key of name.
func (ks *KeySerializer) NameEnd(namespace, name string) []byte {
	key := ks.NamePrefix(namespace, name)
	key[len(key)-1] = separator + 1
	return key
}

// NamePrefix returns the prefix shared by every name key of name.
func (ks *KeySerializer) NamePrefix(namespace, name string) []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(namespace)
	buf.WriteByte(separator)
	buf.WriteString(name)
	buf.WriteByte(separator)
	return buf.Bytes()
}

// NameKey returns the key for name at date.
func (ks *KeySerializer) NameKey(namespace, name string, date time.Time) []byte {
	return append(ks.NamePrefix(namespace, name), EncodeTime(date)...)
}

// DecodeNameKey splits a key produced by NameKey.
func (ks *KeySerializer) DecodeNameKey(key []byte) (string, string, time.Time, error) {
	parts := bytes.SplitN(key, []byte{separator}, 2)
	if len(parts) != 2 {
		return "", "", time.Time{}, ErrMalformedKey
	}
	rest := parts[1]
	if len(rest) < TimeSize+1 || rest[len(rest)-TimeSize-1] != separator {
		return "", "", time.Time{}, ErrMalformedKey
	}
	name := string(rest[:len(rest)-TimeSize-1])
	return string(parts[0]), name, DecodeTime(rest[len(rest)-TimeSize:]), nil
}

// DateKey returns the key for date and name.
func (ks *KeySerializer) DateKey(namespace string, date time.Time, name string) []byte {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(namespace)
	buf.WriteByte(separator)
	buf.Write(EncodeTime(date))
	buf.WriteString(name)
	return buf.Bytes()
}

// DateBound returns the smallest date key at date, usable as an iterator
// bound.
func (ks *KeySerializer) DateBound(namespace string, date time.Time) []byte {
	return ks.DateKey(namespace, date, "")
}

// DecodeDateKey splits a key produced by DateKey.
func (ks *KeySerializer) DecodeDateKey(key []byte) (string, time.Time, string, error) {
	parts := bytes.SplitN(key, []byte{separator}, 2)
	if len(parts) != 2 || len(parts[1]) < TimeSize {
		return "", time.Time{}, "", ErrMalformedKey
	}
	rest := parts[1]
	return string(parts[0]), DecodeTime(rest[:TimeSize]), string(rest[TimeSize:]), nil
}

// EncodeTime encodes t as TimeSize bytes that sort in time order.
func EncodeTime(t time.Time) []byte {
	b := make([]byte, TimeSize)
	binary.BigEndian.PutUint64(b, uint64(t.Unix())^signBit)
	binary.BigEndian.PutUint32(b[8:], uint32(t.Nanosecond()))
	return b
}

// DecodeTime reverses EncodeTime. The result is in UTC.
func DecodeTime(b []byte) time.Time {
	sec := int64(binary.BigEndian.Uint64(b) ^ signBit)
	nsec := int64(binary.BigEndian.Uint32(b[8:]))
	return time.Unix(sec, nsec).UTC()
}

// RecordSerializer implements TypeSerializer using the recordio format.
type RecordSerializer struct{}

func NewRecordSerializer() *RecordSerializer {
	return &RecordSerializer{}
}

func (s *RecordSerializer) SerializeValue(value types.Record) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, recordio.Size(value)))
	if _, err := recordio.Write(buf, value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *RecordSerializer) DeserializeValue(data []byte) (types.Record, error) {
	return recordio.ReadRecord(bytes.NewReader(data))
}

// GobSerializer implements TypeSerializer using Gob encoding
type GobSerializer[T any] struct{}

func NewGobSerializer[T any]() *GobSerializer[T] {
	return &GobSerializer[T]{}
}

func (s *GobSerializer[T]) SerializeValue(value T) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *GobSerializer[T]) DeserializeValue(data []byte) (T, error) {
	var value T
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&value); err != nil {
		return value, err
	}
	return value, nil
}
