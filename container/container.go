// Package container implements the outer sequential-file archive that holds
// a vaultbak backup: the archive-level info record and, per version, a
// manifest and a compressed data bundle. It is a thin, append-only wrapper
// over archive/tar — the outer container never needs random access, only
// the nested per-version data bundle does.
package container

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// copyBufferSize is the buffer used for streaming copies into and out of
// the container. The source implementation monkey-patched the standard
// library's tar copy routine to enlarge its buffer; here the buffer is
// just a local constant passed to io.CopyBuffer, with no shared state
// involved.
const copyBufferSize = 4 * 1024 * 1024

// blockSize is the tar record size; member data is padded to a multiple
// of it.
const blockSize = 512

// Reader lists and extracts members of an archive.
type Reader struct {
	file *os.File
}

// OpenRead opens an existing archive for reading.
func OpenRead(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Reader{file: f}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Names lists every member name present in the archive, in storage order.
func (r *Reader) Names() ([]string, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	tr := tar.NewReader(r.file)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive header: %w", err)
		}
		names = append(names, hdr.Name)
	}
	return names, nil
}

// Extract reads a single member fully into memory.
func (r *Reader) Extract(name string) ([]byte, error) {
	hdr, tr, err := r.seekTo(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(hdr.Size))
	if _, err := io.CopyBuffer(&buf, tr, make([]byte, copyBufferSize)); err != nil {
		return nil, fmt.Errorf("reading member %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// ExtractSeekable extracts a single member to a spooled temporary file and
// returns it positioned at the start. The data bundle nested inside a
// version is itself a random-access archive, so callers need a seekable,
// ReaderAt-capable stream rather than the sequential tar.Reader. The
// returned file is the caller's to close, which also removes it.
func (r *Reader) ExtractSeekable(name string) (*os.File, error) {
	hdr, tr, err := r.seekTo(name)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "vaultbak-member-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("staging member %s: %w", name, err)
	}
	if err := os.Remove(tmp.Name()); err != nil {
		_ = tmp.Close()
		return nil, err
	}

	written, err := io.CopyBuffer(tmp, tr, make([]byte, copyBufferSize))
	if err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("reading member %s: %w", name, err)
	}
	if written != hdr.Size {
		_ = tmp.Close()
		return nil, fmt.Errorf("short read extracting %s: got %d bytes, want %d", name, written, hdr.Size)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	return tmp, nil
}

func (r *Reader) seekTo(name string) (*tar.Header, *tar.Reader, error) {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}
	tr := tar.NewReader(r.file)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("member %s not found in archive", name)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading archive header: %w", err)
		}
		if hdr.Name == name {
			return hdr, tr, nil
		}
	}
}

// Writer appends members to an archive.
type Writer struct {
	file *os.File
	tw   *tar.Writer
}

// OpenAppend opens path for appending new members, tolerating both an
// existing archive (whose trailing end-of-archive padding is discarded)
// and an absent one (which starts fresh).
func OpenAppend(path string) (*Writer, error) {
	offset, err := validLength(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open archive for append: %w", err)
	}
	if err := f.Truncate(offset); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Writer{file: f, tw: tar.NewWriter(f)}, nil
}

// validLength returns the byte offset of the end of the last complete
// member in the tar file at path, i.e. the offset new members should be
// written at. Returns 0 if the file does not exist.
func validLength(path string) (int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	tr := tar.NewReader(f)
	var offset int64
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("reading archive header: %w", err)
		}
		if _, err := io.Copy(io.Discard, tr); err != nil {
			return 0, fmt.Errorf("reading archive member %s: %w", hdr.Name, err)
		}
		pos, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		if rem := pos % blockSize; rem != 0 {
			pos += blockSize - rem
		}
		offset = pos
	}
	return offset, nil
}

// WriteBytes appends an in-memory member.
func (w *Writer) WriteBytes(name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", name, err)
	}
	if _, err := w.tw.Write(data); err != nil {
		return fmt.Errorf("writing member %s: %w", name, err)
	}
	return nil
}

// WriteStream appends a member whose content is read from r, given its
// exact size in advance (required by the tar header).
func (w *Writer) WriteStream(name string, r io.Reader, size int64, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    size,
		ModTime: modTime,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", name, err)
	}
	written, err := io.CopyBuffer(w.tw, r, make([]byte, copyBufferSize))
	if err != nil {
		return fmt.Errorf("writing member %s: %w", name, err)
	}
	if written != size {
		return fmt.Errorf("short write for member %s: wrote %d bytes, want %d", name, written, size)
	}
	return nil
}

// Close finalizes the archive's footer and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return w.file.Close()
}

// ReplaceAtomically renames src onto dst, removing any prior dst first so
// the rename is the single visible commit point.
func ReplaceAtomically(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("removing previous archive: %w", err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}

// Exists reports whether path already contains an archive.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
