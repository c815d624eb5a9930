// Package meshdump records applied chunk surfaces to a zstd-compressed gob
// stream and reads them back.
package meshdump

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"lod-terrain/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/klauspost/compress/zstd"
)

// Version is the current stream format.
const Version = 1

// Header is written once, as a JSON line, ahead of the records.
type Header struct {
	Version     int     `json:"version"`
	OctreeDepth int     `json:"octree_depth"`
	VoxelSize   float32 `json:"voxel_size"`
}

// Record is one applied section.
type Record struct {
	Seq       uint64
	Chunk     string
	Transform mgl32.Mat4
	Section   *meshing.Section
}

// Writer appends records to a stream. It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	f    io.Closer
	enc  *zstd.Encoder
	bw   *bufio.Writer
	gob  *gob.Encoder
	seq  uint64
	done bool
}

// Create opens path for writing, creating parent directories.
func Create(path string, h Header) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, h)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewWriter starts a stream on out. Closing the Writer does not close out.
func NewWriter(out io.Writer, h Header) (*Writer, error) {
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(enc, 128*1024)
	if h.Version == 0 {
		h.Version = Version
	}
	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return nil, err
	}
	return &Writer{enc: enc, bw: bw, gob: gob.NewEncoder(bw)}, nil
}

// Write appends r, assigning its sequence number.
func (w *Writer) Write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return errors.New("meshdump: write after close")
	}
	w.seq++
	r.Seq = w.seq
	if err := w.gob.Encode(&r); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seq
}

// Close flushes the stream and closes the file opened by Create.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	w.done = true
	err := w.bw.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Reader decodes a stream written by Writer.
type Reader struct {
	Header Header

	f   io.Closer
	dec *zstd.Decoder
	gob *gob.Decoder
}

// Open opens a dump file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

// NewReader reads the header from in.
func NewReader(in io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(dec, 128*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		dec.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	r := &Reader{dec: dec, gob: gob.NewDecoder(br)}
	if err := json.Unmarshal(line, &r.Header); err != nil {
		dec.Close()
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if r.Header.Version != Version {
		dec.Close()
		return nil, fmt.Errorf("meshdump: unsupported version %d", r.Header.Version)
	}
	return r, nil
}

// Next returns the next record, or io.EOF after the last one.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.gob.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, fmt.Errorf("gob decode: %w", err)
	}
	if rec.Section == nil {
		rec.Section = meshing.EmptySection()
	}
	return rec, nil
}

// Close releases the decoder and the file opened by Open.
func (r *Reader) Close() error {
	r.dec.Close()
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

// ReadAll returns every record in the file at path.
func ReadAll(path string) (Header, []Record, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer r.Close()
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return r.Header, out, nil
		}
		if err != nil {
			return r.Header, out, err
		}
		out = append(out, rec)
	}
}
