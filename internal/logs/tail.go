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
	pollInterval = 250 * time.Millisecond
	maxLineBytes = 1024 * 1024
)

// TailOptions selects which lines Tail returns.
type TailOptions struct {
	// Offset is the byte position to resume from. A negative offset returns
	// the last Limit lines instead.
	Offset int64
	Limit  int
	// Wait bounds how long Tail polls for new lines when none are available.
	Wait time.Duration
}

// TailResult holds the lines read and the offset to pass on the next call.
type TailResult struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// Tail reads lines from path. A missing file yields an empty result at
// offset zero so callers can poll a log that has not been created yet.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{Offset: opts.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated; restart from the top.
			offset = 0
		}
		result, err = readFrom(path, offset)
	}
	if err != nil || len(result.Lines) > 0 || opts.Wait <= 0 {
		return result, err
	}
	return waitForLines(ctx, path, result.Offset, opts.Wait)
}

func lastLines(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek log file: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	offset, err := scanLines(file, func(line string) {
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return TailResult{}, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := range count {
		lines = append(lines, ring[(start+i)%limit])
	}
	return TailResult{Lines: lines, Offset: offset}, nil
}

func readFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	end, err := scanLines(file, func(line string) { lines = append(lines, line) })
	if err != nil {
		return TailResult{Offset: offset}, err
	}
	return TailResult{Lines: lines, Offset: end}, nil
}

// scanLines feeds each complete line to fn and returns the file position
// after the last one.
func scanLines(file *os.File, fn func(string)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return end, nil
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return TailResult{Offset: offset}, ctx.Err()
		case <-timer.C:
			return TailResult{Offset: offset}, nil
		case <-ticker.C:
		}
		result, err := readFrom(path, offset)
		if err != nil || len(result.Lines) > 0 {
			return result, err
		}
		offset = result.Offset
	}
}
