package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailLines(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 150; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}

	tests := []struct {
		name  string
		input string
		n     int
		first string
		size  int
	}{
		{"longer than n", b.String(), 100, "line 51", 100},
		{"shorter than n", "a\nb\nc\n", 100, "a", 3},
		{"empty", "", 100, "", 0},
		{"zero", "a\n", 0, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := TailLines(strings.NewReader(tt.input), tt.n)
			require.NoError(t, err)
			require.Len(t, lines, tt.size)
			if tt.size > 0 {
				assert.Equal(t, tt.first, lines[0])
			}
		})
	}
}

func TestTailLinesKeepsOrder(t *testing.T) {
	lines, err := TailLines(strings.NewReader("1\n2\n3\n4\n5\n"), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "4", "5"}, lines)
}

func TestTailLinesTruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", 2*MaxLineLength+17)
	lines, err := TailLines(strings.NewReader("first\n"+long+"\nlast"), 3)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "first", lines[0])
	assert.Len(t, lines[1], MaxLineLength)
	assert.Equal(t, "last", lines[2])
}

func TestTailFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manager.log")
	require.NoError(t, os.WriteFile(path, []byte("started\nlistening\n"), 0o644))

	lines, err := TailFile(path, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"started", "listening"}, lines)

	missing, err := TailFile(filepath.Join(dir, "missing.log"), 100)
	require.NoError(t, err)
	assert.NotNil(t, missing)
	assert.Empty(t, missing)
}
