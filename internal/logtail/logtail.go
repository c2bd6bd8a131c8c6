package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Level is the severity inferred from a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file is not an error.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Classify infers the level of a line written through the standard logger.
// Warnings are prefixed "warning:"; rejected or failed engine calls count as
// errors.
func Classify(line string) Level {
	msg := strings.ToLower(stripTimestamp(line))
	switch {
	case strings.HasPrefix(msg, "warning:"):
		return LevelWarn
	case strings.Contains(msg, " failed"), strings.Contains(msg, "error"):
		return LevelError
	default:
		return LevelInfo
	}
}

// Filter keeps the lines at or above min, preserving order.
func Filter(lines []string, min Level) []string {
	if min <= LevelInfo {
		return lines
	}
	var out []string
	for _, line := range lines {
		if Classify(line) >= min {
			out = append(out, line)
		}
	}
	return out
}

// stripTimestamp drops the "2006/01/02 15:04:05 " prefix of log.LstdFlags,
// with optional microseconds.
func stripTimestamp(line string) string {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) == 3 && len(fields[0]) == 10 && strings.Count(fields[0], "/") == 2 && strings.Count(fields[1], ":") == 2 {
		return fields[2]
	}
	return line
}
