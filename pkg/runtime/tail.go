package runtime

import (
	"bufio"
	"errors"
	"io"
	"os"
)

// MaxLineLength bounds a tailed line; longer lines are truncated
const MaxLineLength = 1024 * 1024

// TailLines returns the last n lines of r
func TailLines(r io.Reader, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	ring := make([]string, 0, n)
	start := 0
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if room := MaxLineLength - len(line); room > 0 {
			line = append(line, chunk[:min(len(chunk), room)]...)
		}
		if isPrefix {
			continue
		}
		if len(ring) < n {
			ring = append(ring, string(line))
		} else {
			ring[start] = string(line)
			start = (start + 1) % n
		}
		line = line[:0]
	}
	return append(ring[start:], ring[:start]...), nil
}

// TailFile returns the last n lines of the file at path; a missing file
// yields an empty list
func TailFile(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return TailLines(f, n)
}
