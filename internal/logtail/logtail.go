package logtail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// DefaultLines is how many trailing lines status reports dump.
const DefaultLines = 20

// readChunk is the step size used when scanning backwards for newlines.
const readChunk = 8 * 1024

// Tail writes the last n lines of the file at path to w. A missing file
// is not an error: there is simply nothing to show.
func Tail(path string, n int, w io.Writer) error {
	if n <= 0 {
		n = DefaultLines
	}
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return err
	}
	size := fi.Size()
	if size == 0 {
		return nil
	}

	// Scan backwards in chunks counting newlines until we have n lines
	// or hit the start of the file.
	var buf []byte
	off := size
	newlines := 0
	for off > 0 && newlines <= n {
		step := int64(readChunk)
		if off < step {
			step = off
		}
		off -= step
		chunk := make([]byte, step)
		if _, err := f.ReadAt(chunk, off); err != nil && err != io.EOF {
			return err
		}
		buf = append(chunk, buf...)
		newlines = bytes.Count(buf, []byte{'\n'})
	}

	lines := bytes.Split(bytes.TrimRight(buf, "\n"), []byte{'\n'})
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// Follow streams appended data from path to w until ctx is canceled.
// It seeks to the current end first, then relays writes as fsnotify
// reports them. The watch is on the containing directory, not the file:
// rotation renames the file away and recreates the path, and a watch on
// the old inode would keep following the renamed backup. A Create event
// at the path reattaches the stream to the fresh file; truncation in
// place resets the read offset.
func Follow(ctx context.Context, path string, w io.Writer) error {
	path = filepath.Clean(path)
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				// #nosec G304
				nf, err := os.Open(path)
				if err != nil {
					return err
				}
				_ = f.Close()
				f = nf
				offset = 0
			} else if ev.Op&fsnotify.Write == 0 {
				continue
			}
			fi, err := f.Stat()
			if err != nil {
				return err
			}
			if fi.Size() < offset {
				// truncated in place
				offset = 0
			}
			if _, err := f.Seek(offset, io.SeekStart); err != nil {
				return err
			}
			n, err := io.Copy(w, f)
			if err != nil {
				return err
			}
			offset += n
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
