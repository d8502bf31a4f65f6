package recordio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/davidvella/barrace/types"
)

var (
	Uint64Size  = int64(binary.Size(uint64(0)))
	Int64Size   = int64(binary.Size(int64(0)))
	Float64Size = int64(binary.Size(float64(0)))
	BoolSize    = int64(binary.Size(uint8(0)))
	// MagicBytes identify a Record entry (REC).
	MagicBytes = []byte{0x52, 0x45, 0x43}
	// KeyframeMagicBytes identify a KeyframeRecord entry (RKF).
	KeyframeMagicBytes = []byte{0x52, 0x4b, 0x46}
	// FrameMagicBytes identify a frame header (RFR).
	FrameMagicBytes      = []byte{0x52, 0x46, 0x52}
	ErrInvalidMagicBytes = errors.New("invalid magic bytes - not a valid recordio file")
	// ErrCorrupt is returned when an entry holds an impossible field.
	ErrCorrupt = errors.New("corrupt recordio entry")
)

const (
	// MaxStringSize bounds the length of any string field read from input.
	MaxStringSize = 1 << 20
	// MaxFrameRecords bounds the record count read from a frame header.
	MaxFrameRecords = 1 << 20
)

// BinaryWriter handles writing binary data with error handling.
type BinaryWriter struct {
	w io.Writer
}

func NewBinaryWriter(w io.Writer) BinaryWriter {
	return BinaryWriter{w: w}
}

func (bw BinaryWriter) WriteString(s string) (int64, error) {
	if err := binary.Write(bw.w, binary.LittleEndian, uint64(len(s))); err != nil {
		return 0, fmt.Errorf("error writing string length: %w", err)
	}

	n, err := bw.w.Write([]byte(s))
	if err != nil {
		return Uint64Size, fmt.Errorf("error writing string content: %w", err)
	}

	return Uint64Size + int64(n), nil
}

func (bw BinaryWriter) WriteUint64(i uint64) (int64, error) {
	if err := binary.Write(bw.w, binary.LittleEndian, i); err != nil {
		return 0, err
	}
	return Uint64Size, nil
}

func (bw BinaryWriter) WriteInt64(i int64) (int64, error) {
	if err := binary.Write(bw.w, binary.LittleEndian, i); err != nil {
		return 0, err
	}
	return Int64Size, nil
}

func (bw BinaryWriter) WriteFloat64(f float64) (int64, error) {
	if err := binary.Write(bw.w, binary.LittleEndian, f); err != nil {
		return 0, err
	}
	return Float64Size, nil
}

func (bw BinaryWriter) WriteBool(b bool) (int64, error) {
	var v uint8
	if b {
		v = 1
	}
	if err := binary.Write(bw.w, binary.LittleEndian, v); err != nil {
		return 0, err
	}
	return BoolSize, nil
}

// BinaryReader handles reading binary data with error handling.
type BinaryReader struct {
	r io.Reader
}

func NewBinaryReader(r io.Reader) BinaryReader {
	return BinaryReader{r: r}
}

// A BinaryReader is only used after an entry's magic bytes, so running out
// of input is always a truncation.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (br BinaryReader) ReadString() (string, error) {
	var length uint64
	if err := binary.Read(br.r, binary.LittleEndian, &length); err != nil {
		return "", fmt.Errorf("error reading string length: %w", unexpected(err))
	}

	if length > MaxStringSize {
		return "", fmt.Errorf("%w: string length %d exceeds %d", ErrCorrupt, length, MaxStringSize)
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(br.r, b); err != nil {
		return "", fmt.Errorf("error reading string content: %w", unexpected(err))
	}
	return string(b), nil
}

func (br BinaryReader) ReadUint64() (uint64, error) {
	var value uint64
	err := binary.Read(br.r, binary.LittleEndian, &value)
	return value, unexpected(err)
}

func (br BinaryReader) ReadInt64() (int64, error) {
	var value int64
	err := binary.Read(br.r, binary.LittleEndian, &value)
	return value, unexpected(err)
}

func (br BinaryReader) ReadFloat64() (float64, error) {
	var value float64
	err := binary.Read(br.r, binary.LittleEndian, &value)
	return value, unexpected(err)
}

func (br BinaryReader) ReadBool() (bool, error) {
	var value uint8
	if err := binary.Read(br.r, binary.LittleEndian, &value); err != nil {
		return false, unexpected(err)
	}
	return value != 0, nil
}

func writeMagic(w io.Writer, magic []byte) (int64, error) {
	n, err := w.Write(magic)
	if err != nil {
		return int64(n), fmt.Errorf("failed to write magic bytes: %w", err)
	}
	return int64(n), nil
}

func readMagic(r io.Reader, magic []byte) error {
	got := make([]byte, len(magic))
	if _, err := io.ReadFull(r, got); err != nil {
		return fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if !bytes.Equal(got, magic) {
		return ErrInvalidMagicBytes
	}
	return nil
}

// Write writes a single Record to the writer.
func Write(w io.Writer, record types.Record) (int64, error) {
	totalBytes, err := writeMagic(w, MagicBytes)
	if err != nil {
		return totalBytes, err
	}

	bw := NewBinaryWriter(w)

	n, err := bw.WriteString(record.Name)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing name: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteInt64(record.Date.Unix())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing date: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteInt64(int64(record.Date.Nanosecond()))
	if err != nil {
		return totalBytes, fmt.Errorf("error writing date: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteString(record.Date.Location().String())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing timezone: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteFloat64(record.Value)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing value: %w", err)
	}
	totalBytes += n

	return totalBytes, nil
}

// ReadRecord reads a single Record from the reader.
func ReadRecord(r io.Reader) (types.Record, error) {
	if err := readMagic(r, MagicBytes); err != nil {
		return types.Record{}, err
	}

	br := NewBinaryReader(r)

	name, err := br.ReadString()
	if err != nil {
		return types.Record{}, fmt.Errorf("error reading name: %w", err)
	}

	sec, err := br.ReadInt64()
	if err != nil {
		return types.Record{}, fmt.Errorf("error reading date: %w", err)
	}

	nsec, err := br.ReadInt64()
	if err != nil {
		return types.Record{}, fmt.Errorf("error reading date: %w", err)
	}
	if nsec < 0 || nsec >= int64(time.Second) {
		return types.Record{}, fmt.Errorf("%w: nanoseconds %d out of range", ErrCorrupt, nsec)
	}

	timezone, err := br.ReadString()
	if err != nil {
		return types.Record{}, fmt.Errorf("error reading timezone: %w", err)
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	value, err := br.ReadFloat64()
	if err != nil {
		return types.Record{}, fmt.Errorf("error reading value: %w", err)
	}

	return types.Record{
		Date:  time.Unix(sec, nsec).In(loc),
		Name:  name,
		Value: value,
	}, nil
}

// WriteKeyframe writes a single KeyframeRecord to the writer. The rank is
// stored as a presence flag followed by the rank when present.
func WriteKeyframe(w io.Writer, record types.KeyframeRecord) (int64, error) {
	totalBytes, err := writeMagic(w, KeyframeMagicBytes)
	if err != nil {
		return totalBytes, err
	}

	bw := NewBinaryWriter(w)

	n, err := bw.WriteString(record.Name)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing name: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteBool(record.HasRank())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing rank flag: %w", err)
	}
	totalBytes += n

	if record.HasRank() {
		n, err = bw.WriteInt64(int64(*record.Rank))
		if err != nil {
			return totalBytes, fmt.Errorf("error writing rank: %w", err)
		}
		totalBytes += n
	}

	n, err = bw.WriteFloat64(record.Value)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing value: %w", err)
	}
	totalBytes += n

	return totalBytes, nil
}

// ReadKeyframe reads a single KeyframeRecord from the reader.
func ReadKeyframe(r io.Reader) (types.KeyframeRecord, error) {
	if err := readMagic(r, KeyframeMagicBytes); err != nil {
		return types.KeyframeRecord{}, err
	}

	br := NewBinaryReader(r)

	name, err := br.ReadString()
	if err != nil {
		return types.KeyframeRecord{}, fmt.Errorf("error reading name: %w", err)
	}

	ranked, err := br.ReadBool()
	if err != nil {
		return types.KeyframeRecord{}, fmt.Errorf("error reading rank flag: %w", err)
	}

	record := types.KeyframeRecord{Name: name}
	if ranked {
		rank, err := br.ReadInt64()
		if err != nil {
			return types.KeyframeRecord{}, fmt.Errorf("error reading rank: %w", err)
		}
		record = record.WithRank(int(rank))
	}

	record.Value, err = br.ReadFloat64()
	if err != nil {
		return types.KeyframeRecord{}, fmt.Errorf("error reading value: %w", err)
	}

	return record, nil
}

// Frame is a dated group of keyframe records.
type Frame struct {
	Date    time.Time
	Records []types.KeyframeRecord
}

// WriteFrame writes a header carrying the frame date and record count,
// followed by each record as written by WriteKeyframe.
func WriteFrame(w io.Writer, frame Frame) (int64, error) {
	totalBytes, err := writeMagic(w, FrameMagicBytes)
	if err != nil {
		return totalBytes, err
	}

	bw := NewBinaryWriter(w)

	n, err := bw.WriteInt64(frame.Date.Unix())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing frame date: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteInt64(int64(frame.Date.Nanosecond()))
	if err != nil {
		return totalBytes, fmt.Errorf("error writing frame date: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteUint64(uint64(len(frame.Records)))
	if err != nil {
		return totalBytes, fmt.Errorf("error writing frame size: %w", err)
	}
	totalBytes += n

	for i, record := range frame.Records {
		n, err = WriteKeyframe(w, record)
		totalBytes += n
		if err != nil {
			return totalBytes, fmt.Errorf("error writing frame record %d: %w", i, err)
		}
	}

	return totalBytes, nil
}

// ReadFrame reads a single Frame from the reader. The date is in UTC.
func ReadFrame(r io.Reader) (Frame, error) {
	if err := readMagic(r, FrameMagicBytes); err != nil {
		return Frame{}, err
	}

	br := NewBinaryReader(r)

	sec, err := br.ReadInt64()
	if err != nil {
		return Frame{}, fmt.Errorf("error reading frame date: %w", err)
	}

	nsec, err := br.ReadInt64()
	if err != nil {
		return Frame{}, fmt.Errorf("error reading frame date: %w", err)
	}
	if nsec < 0 || nsec >= int64(time.Second) {
		return Frame{}, fmt.Errorf("%w: nanoseconds %d out of range", ErrCorrupt, nsec)
	}

	count, err := br.ReadUint64()
	if err != nil {
		return Frame{}, fmt.Errorf("error reading frame size: %w", err)
	}
	if count > MaxFrameRecords {
		return Frame{}, fmt.Errorf("%w: frame size %d exceeds %d", ErrCorrupt, count, MaxFrameRecords)
	}

	frame := Frame{Date: time.Unix(sec, nsec).UTC()}
	for i := uint64(0); i < count; i++ {
		record, err := ReadKeyframe(r)
		if err != nil {
			return Frame{}, fmt.Errorf("error reading frame record %d: %w", i, unexpected(err))
		}
		frame.Records = append(frame.Records, record)
	}

	return frame, nil
}

// Seq creates an iterator over records. Iteration stops at the end of the
// input or at the first malformed entry.
func Seq(r io.Reader) iter.Seq[types.Record] {
	return seq(r, ReadRecord)
}

// SeqKeyframes creates an iterator over keyframe records.
func SeqKeyframes(r io.Reader) iter.Seq[types.KeyframeRecord] {
	return seq(r, ReadKeyframe)
}

func seq[T any](r io.Reader, read func(io.Reader) (T, error)) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			record, err := read(r)
			if err != nil {
				return
			}
			if !yield(record) {
				return
			}
		}
	}
}

// ReadRecords reads all records into a slice. A clean end of input is not
// an error; a truncated or corrupt entry is.
func ReadRecords(r io.Reader) ([]types.Record, error) {
	return readAll(r, ReadRecord)
}

// ReadKeyframes reads all keyframe records into a slice.
func ReadKeyframes(r io.Reader) ([]types.KeyframeRecord, error) {
	return readAll(r, ReadKeyframe)
}

// ReadFrames reads all frames into a slice.
func ReadFrames(r io.Reader) ([]Frame, error) {
	return readAll(r, ReadFrame)
}

func readAll[T any](r io.Reader, read func(io.Reader) (T, error)) ([]T, error) {
	records := make([]T, 0, 1)
	for {
		record, err := read(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, err
		}
		records = append(records, record)
	}
}

// Size calculates the total size in bytes that a record will occupy when written.
func Size(record types.Record) int64 {
	var totalSize int64

	totalSize += int64(len(MagicBytes))
	totalSize += Uint64Size + int64(len(record.Name))
	totalSize += 2 * Int64Size
	totalSize += Uint64Size + int64(len(record.Date.Location().String()))
	totalSize += Float64Size

	return totalSize
}

// SizeKeyframe calculates the total size in bytes that a keyframe record
// will occupy when written.
func SizeKeyframe(record types.KeyframeRecord) int64 {
	var totalSize int64

	totalSize += int64(len(KeyframeMagicBytes))
	totalSize += Uint64Size + int64(len(record.Name))
	totalSize += BoolSize
	if record.HasRank() {
		totalSize += Int64Size
	}
	totalSize += Float64Size

	return totalSize
}
