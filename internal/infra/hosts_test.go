package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHosts(t *testing.T, content string) *HostsFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hosts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return NewHostsFile(path)
}

func readHosts(t *testing.T, h *HostsFile) string {
	t.Helper()
	raw, err := os.ReadFile(h.Path())
	require.NoError(t, err)
	return string(raw)
}

// TestSync_WritesFencedBlock verifies the four redirect lines per domain
func TestSync_WritesFencedBlock(t *testing.T) {
	h := writeHosts(t, "127.0.0.1 localhost\n")

	require.NoError(t, h.Sync([]string{"twitter.com"}))
	got := readHosts(t, h)

	assert.True(t, strings.HasPrefix(got, "127.0.0.1 localhost\n"))
	assert.Contains(t, got, hostsMarkerStart+"\n")
	assert.Contains(t, got, "127.0.0.1 twitter.com\n")
	assert.Contains(t, got, "127.0.0.1 www.twitter.com\n")
	assert.Contains(t, got, "::1 twitter.com\n")
	assert.Contains(t, got, "::1 www.twitter.com\n")
	assert.True(t, strings.HasSuffix(got, hostsMarkerEnd+"\n"))
}

// TestSync_Idempotent verifies repeated syncs produce identical bytes
func TestSync_Idempotent(t *testing.T) {
	h := writeHosts(t, "127.0.0.1 localhost\n\n# comment\n")

	require.NoError(t, h.Sync([]string{"twitter.com", "reddit.com"}))
	first := readHosts(t, h)

	require.NoError(t, h.Sync([]string{"twitter.com", "reddit.com"}))
	assert.Equal(t, first, readHosts(t, h))
}

// TestSync_EmptyRestoresOriginal verifies the fence round trip leaves
// the surrounding content byte-exact
func TestSync_EmptyRestoresOriginal(t *testing.T) {
	original := "127.0.0.1 localhost\n::1 localhost\n\n# user entry\n10.0.0.5 nas\n"
	h := writeHosts(t, original)

	require.NoError(t, h.Sync([]string{"twitter.com"}))
	require.NotEqual(t, original, readHosts(t, h))

	require.NoError(t, h.Sync(nil))
	assert.Equal(t, original, readHosts(t, h))
}

// TestSync_ReplacesExistingFence verifies only one fence ever exists
func TestSync_ReplacesExistingFence(t *testing.T) {
	h := writeHosts(t, "127.0.0.1 localhost\n")

	require.NoError(t, h.Sync([]string{"twitter.com"}))
	require.NoError(t, h.Sync([]string{"reddit.com"}))
	got := readHosts(t, h)

	assert.Equal(t, 1, strings.Count(got, hostsMarkerStart))
	assert.NotContains(t, got, "twitter.com")
	assert.Contains(t, got, "127.0.0.1 reddit.com\n")
}

// TestSync_NoTrailingNewline verifies content without a final newline
// survives the round trip
func TestSync_NoTrailingNewline(t *testing.T) {
	original := "127.0.0.1 localhost"
	h := writeHosts(t, original)

	require.NoError(t, h.Sync([]string{"twitter.com"}))
	require.NoError(t, h.Sync(nil))
	assert.Equal(t, original, readHosts(t, h))
}

// TestSync_MissingFile verifies a read failure is reported, not fatal
func TestSync_MissingFile(t *testing.T) {
	h := NewHostsFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, h.Sync([]string{"twitter.com"}))
}

// TestExciseFence_NoFence verifies untouched content passes through
func TestExciseFence_NoFence(t *testing.T) {
	content := "127.0.0.1 localhost\n"
	assert.Equal(t, content, exciseFence(content))
}

// TestExciseFence_DanglingStartMarker verifies an incomplete fence is
// left alone rather than truncating the file
func TestExciseFence_DanglingStartMarker(t *testing.T) {
	content := "127.0.0.1 localhost\n" + hostsMarkerStart + "\n127.0.0.1 twitter.com\n"
	assert.Equal(t, content, exciseFence(content))
}

// TestWritable verifies the probe against present and absent files
func TestWritable(t *testing.T) {
	h := writeHosts(t, "127.0.0.1 localhost\n")
	assert.True(t, h.Writable())

	missing := NewHostsFile(filepath.Join(t.TempDir(), "missing"))
	assert.False(t, missing.Writable())
}
