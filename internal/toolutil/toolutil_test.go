package toolutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanInputs(t *testing.T) {
	got := CleanInputs([]string{"  dQw4w9WgXcQ ", "", "# comment", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"})
	assert.Equal(t, []string{"dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"}, got)
	assert.Empty(t, CleanInputs(nil))
}

func TestReadInputs(t *testing.T) {
	in := "# videos to analyse\r\naaaaaaaaaaa\r\n\n  bbbbbbbbbbb\n"
	got, err := ReadInputs(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, got)
}

func TestClampSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"unset uses default", 0, 30 * time.Second},
		{"negative uses default", -5, 30 * time.Second},
		{"within range", 45, 45 * time.Second},
		{"capped", 600, 120 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampSeconds(tt.seconds, 30*time.Second, 2*time.Minute))
		})
	}
}

func TestWithOptionalTimeout(t *testing.T) {
	ctx, cancel := WithOptionalTimeout(context.Background(), 0)
	_, ok := ctx.Deadline()
	assert.False(t, ok)
	cancel()
	assert.Error(t, ctx.Err())

	ctx, cancel = WithOptionalTimeout(context.Background(), time.Minute)
	defer cancel()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}
