// Package toolutil provides shared helpers for go_hoover's MCP tools and CLI.
package toolutil

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// CleanInputs trims each video reference and drops blank lines and
// #-comments. Order and duplicates are preserved: a batch result has one
// item per input.
func CleanInputs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ReadInputs reads one video reference per line.
func ReadInputs(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return CleanInputs(lines), nil
}

// ClampSeconds converts a caller-supplied timeout in seconds to a duration,
// falling back to def when unset and capping at max.
func ClampSeconds(seconds int, def, max time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	d := time.Duration(seconds) * time.Second
	if max > 0 && d > max {
		return max
	}
	return d
}

// WithOptionalTimeout wraps ctx with a deadline when d > 0.
func WithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
