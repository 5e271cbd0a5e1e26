package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const (
	maxLineBytes          = 1024 * 1024
	defaultFollowInterval = 250 * time.Millisecond
)

// Last returns up to limit of the most recent entries matching filter and the
// file offset to follow from. A missing file yields no entries. Only the
// retained entries are held in memory.
func Last(path string, limit int, filter Filter) ([]Entry, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	var matched []Entry
	keep := func(entry Entry) {
		if !filter.Match(entry) {
			return
		}
		matched = append(matched, entry)
		if limit > 0 && len(matched) > limit {
			matched = matched[1:]
		}
	}

	var current Entry
	offset, err := scanLines(file, 0, func(line string) {
		if line == "" {
			return
		}
		if isContinuation(line) && len(current.Lines) > 0 {
			current.Lines = append(current.Lines, line)
			return
		}
		if len(current.Lines) > 0 {
			keep(current)
		}
		current = Entry{Lines: []string{line}}
	})
	if err != nil {
		return nil, 0, err
	}
	if len(current.Lines) > 0 {
		keep(current)
	}
	return matched, offset, nil
}

// Follow polls path from offset and calls emit for each new matching entry
// until ctx is cancelled. A file that shrinks is read again from the start.
// Entries are emitted once complete, that is when the next header arrives or
// a poll finds no further growth.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, filter Filter, emit func(Entry)) error {
	if interval <= 0 {
		interval = defaultFollowInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pending []string
	for {
		if size, err := fileSize(path); err != nil {
			return err
		} else if size < offset {
			offset = 0
			pending = nil
		}

		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		offset = next
		pending = append(pending, lines...)

		entries := group(pending)
		pending = nil
		if len(lines) > 0 && len(entries) > 0 {
			// The newest entry may still be gaining field lines.
			pending = entries[len(entries)-1].Lines
			entries = entries[:len(entries)-1]
		}
		for _, entry := range entries {
			if filter.Match(entry) {
				emit(entry)
			}
		}

		select {
		case <-ctx.Done():
			if len(pending) > 0 {
				if entry := (Entry{Lines: pending}); filter.Match(entry) {
					emit(entry)
				}
			}
			return nil
		case <-ticker.C:
		}
	}
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("log path %q is a directory", path)
	}
	return info.Size(), nil
}

// readFrom returns the complete lines after offset and the offset just past
// the last newline. A trailing partial line is left for the next read.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	next, err := scanLines(file, offset, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, offset, err
	}
	return lines, next, nil
}

// scanLines calls fn for each newline-terminated line in r and returns offset
// advanced past the last one consumed.
func scanLines(r io.Reader, offset int64, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		line = trimNewline(line)
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		fn(line)
	}
}

func trimNewline(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
