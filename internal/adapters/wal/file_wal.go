package wal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/ghalamif/AegisPilot/internal/domain"
	"github.com/ghalamif/AegisPilot/internal/ports"
)

const frameHeaderLen = 12

// FileWAL persists telemetry records as length-prefixed frames. The committed
// watermark lives in a sidecar meta file.
type FileWAL struct {
	mu        sync.Mutex
	path      string
	metaPath  string
	file      *os.File
	writer    *bufio.Writer
	nextID    ports.WALEntryID
	committed ports.WALEntryID
	sizeBytes int64
}

var _ ports.WAL = (*FileWAL)(nil)

func NewFileWAL(dir string) (*FileWAL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "telemetry.wal")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	w := &FileWAL{
		path:     path,
		metaPath: filepath.Join(dir, "telemetry.meta"),
		file:     f,
		writer:   bufio.NewWriterSize(f, 64<<10),
	}
	if err := w.bootstrap(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func (w *FileWAL) bootstrap() error {
	if err := w.scanExisting(); err != nil {
		return err
	}
	if err := w.loadCommitted(); err != nil {
		return err
	}
	if w.nextID < w.committed {
		w.nextID = w.committed
	}
	_, err := w.file.Seek(0, io.SeekEnd)
	return err
}

// scanExisting finds the last complete frame and cuts off any torn tail.
func (w *FileWAL) scanExisting() error {
	rf, err := os.Open(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer rf.Close()

	br := bufio.NewReader(rf)
	var end int64
	for {
		fr, err := readFrame(br)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, errTornFrame) {
				break
			}
			return fmt.Errorf("wal scan: %w", err)
		}
		end += fr.size()
		w.nextID = fr.id
	}

	if err := w.file.Truncate(end); err != nil {
		return err
	}
	w.sizeBytes = end
	return nil
}

func (w *FileWAL) loadCommitted() error {
	data, err := os.ReadFile(w.metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	val := strings.TrimSpace(string(data))
	if val == "" {
		return nil
	}
	u, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return fmt.Errorf("wal meta parse: %w", err)
	}
	w.committed = ports.WALEntryID(u)
	return nil
}

func (w *FileWAL) Append(r *domain.Record) (ports.WALEntryID, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	fr := frame{id: w.nextID + 1, body: body}
	// flushed lazily by Iterate, Commit and Close
	if err := fr.writeTo(w.writer); err != nil {
		return 0, err
	}
	w.nextID = fr.id
	w.sizeBytes += fr.size()
	return fr.id, nil
}

func (w *FileWAL) Iterate(from ports.WALEntryID, fn func(id ports.WALEntryID, r *domain.Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.framesLocked(from, func(fr frame) error {
		var r domain.Record
		if err := json.Unmarshal(fr.body, &r); err != nil {
			return fmt.Errorf("corrupt WAL entry %d: %w", fr.id, err)
		}
		return fn(fr.id, &r)
	})
}

// framesLocked visits every complete frame with id >= from. A torn tail is an
// error here because scanExisting already trimmed the file at open.
func (w *FileWAL) framesLocked(from ports.WALEntryID, fn func(frame) error) error {
	f, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for {
		fr, err := readFrame(br)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt WAL: %w", err)
		}
		if fr.id < from {
			continue
		}
		if err := fn(fr); err != nil {
			return err
		}
	}
}

func (w *FileWAL) Commit(upto ports.WALEntryID) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if upto > w.committed {
		w.committed = upto
	}
	return w.persistMetaLocked()
}

// TruncateCommitted rewrites the log keeping only uncommitted frames.
func (w *FileWAL) TruncateCommitted() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}

	tmpPath := w.path + ".compact"
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(tmp)
	var kept int64
	err = w.framesLocked(w.committed+1, func(fr frame) error {
		kept += fr.size()
		return fr.writeTo(bw)
	})
	if err == nil {
		err = bw.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("wal compact: %w", err)
	}

	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.writer.Reset(f)
	w.sizeBytes = kept
	return nil
}

func (w *FileWAL) Stats() ports.WALStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ports.WALStats{
		OldestUncommitted: w.committed + 1,
		LatestAppended:    w.nextID,
		SizeBytes:         w.sizeBytes,
	}
}

func (w *FileWAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.writer.Flush(), w.file.Close())
}

// persistMetaLocked replaces the watermark file via rename so a crash leaves
// either the old or the new value.
func (w *FileWAL) persistMetaLocked() error {
	tmp := w.metaPath + ".tmp"
	data := strconv.AppendUint(nil, uint64(w.committed), 10)
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, w.metaPath)
}

var errTornFrame = errors.New("torn wal frame")

// frame is one log entry: [8 bytes id][4 bytes len][len bytes json].
type frame struct {
	id   ports.WALEntryID
	body []byte
}

func (f frame) size() int64 { return frameHeaderLen + int64(len(f.body)) }

func (f frame) writeTo(w io.Writer) error {
	var hdr [frameHeaderLen]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(f.id))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(f.body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(f.body)
	return err
}

// readFrame returns io.EOF on a clean end and errTornFrame when the stream
// stops inside a frame.
func readFrame(r io.Reader) (frame, error) {
	var hdr [frameHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return frame{}, errTornFrame
		}
		return frame{}, err
	}
	fr := frame{
		id:   ports.WALEntryID(binary.BigEndian.Uint64(hdr[0:8])),
		body: make([]byte, binary.BigEndian.Uint32(hdr[8:12])),
	}
	if _, err := io.ReadFull(r, fr.body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return frame{}, errTornFrame
		}
		return frame{}, err
	}
	return fr, nil
}
