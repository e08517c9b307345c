// Package trace records allocation decisions to an append-only,
// zstd-compressed JSONL file for debugging and reproducibility.
//
// The trace is a diagnostic artifact, not state: replaying it reconstructs
// what the gate decided and in what order, never the ledger itself, which
// lives only in memory.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrClosed is returned by Record after Close.
var ErrClosed = errors.New("trace recorder is closed")

// Entry is one recorded decision.
type Entry struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"time"`
	Client    int       `json:"client"`
	Class     int       `json:"class"`
	Op        string    `json:"op"`      // acquire, try-acquire, release, reap
	Outcome   string    `json:"outcome"` // granted, denied, failed, released
	Detail    string    `json:"detail,omitempty"`
	Available []int     `json:"available"`
}

// Recorder appends entries to a compressed trace file. Safe for concurrent
// use; entries get strictly increasing sequence numbers in write order.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
	jenc   *json.Encoder
	seq    uint64
	closed bool
}

// NewRecorder creates (truncating) the trace file at path.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create compressor: %w", err)
	}

	buf := bufio.NewWriter(enc)
	return &Recorder{
		file: f,
		enc:  enc,
		buf:  buf,
		jenc: json.NewEncoder(buf),
	}, nil
}

// Record appends the entry, assigning its sequence number and, if unset, its
// timestamp.
func (r *Recorder) Record(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	r.seq++
	e.Seq = r.seq
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	return r.jenc.Encode(e)
}

// Close flushes buffered entries, finishes the compressed stream, and closes
// the file. Further Record calls return ErrClosed; Close is idempotent.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var firstErr error
	if err := r.buf.Flush(); err != nil {
		firstErr = err
	}
	if err := r.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := r.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Replay decodes the trace at path in order, calling fn per entry. fn
// returning an error stops the replay and surfaces that error.
func Replay(path string, fn func(Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("create decompressor: %w", err)
	}
	defer dec.Close()

	jdec := json.NewDecoder(dec)
	for {
		var e Entry
		if err := jdec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode trace entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
