package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// Fence markers delimiting the region of the hosts file owned by Bastion.
// Everything between (and including) these lines is rewritten on sync;
// the rest of the file is never touched.
const (
	hostsMarkerStart = "# === BASTION BLOCK START ==="
	hostsMarkerEnd   = "# === BASTION BLOCK END ==="
)

// HostsFile implements domain.HostsSynchronizer against a hosts file at
// a fixed path. The path is injected so tests can point it at a temp file.
type HostsFile struct {
	path string
}

// NewHostsFile creates a synchronizer for the given hosts file path.
func NewHostsFile(path string) *HostsFile {
	return &HostsFile{path: path}
}

// Sync rewrites the fenced block so it contains exactly the given
// domains, four redirect lines each (IPv4/IPv6, bare and www.). An
// empty list removes the fence entirely, restoring the surrounding
// content byte-exactly. The file is replaced atomically via a temp
// file and rename, so a failed write never leaves a half-written fence.
func (h *HostsFile) Sync(domains []string) error {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return fmt.Errorf("failed to read hosts file: %w", err)
	}

	contents := exciseFence(string(raw))

	if len(domains) > 0 {
		var b strings.Builder
		b.WriteString(contents)
		b.WriteByte('\n')
		b.WriteString(hostsMarkerStart)
		b.WriteByte('\n')
		for _, d := range domains {
			fmt.Fprintf(&b, "127.0.0.1 %s\n", d)
			fmt.Fprintf(&b, "127.0.0.1 www.%s\n", d)
			fmt.Fprintf(&b, "::1 %s\n", d)
			fmt.Fprintf(&b, "::1 www.%s\n", d)
		}
		b.WriteString(hostsMarkerEnd)
		b.WriteByte('\n')
		contents = b.String()
	}

	return h.writeAtomic(contents)
}

// exciseFence removes the fenced region, including the markers, the
// newline separator inserted before the start marker, and the newline
// after the end marker. Content without a complete fence is returned
// unchanged.
func exciseFence(contents string) string {
	start := strings.Index(contents, hostsMarkerStart)
	if start < 0 {
		return contents
	}
	end := strings.Index(contents, hostsMarkerEnd)
	if end < 0 {
		return contents
	}
	end += len(hostsMarkerEnd)

	if start > 0 && contents[start-1] == '\n' {
		start--
	}
	if end < len(contents) && contents[end] == '\n' {
		end++
	}
	return contents[:start] + contents[end:]
}

// writeAtomic replaces the hosts file in one rename, preserving its
// permission bits when they can be read.
func (h *HostsFile) writeAtomic(contents string) error {
	dir := filepath.Dir(h.path)
	tmp, err := os.CreateTemp(dir, ".bastion-hosts-*")
	if err != nil {
		return fmt.Errorf("failed to create temp hosts file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.WriteString(contents); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp hosts file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp hosts file: %w", err)
	}
	tmp.Close()

	mode := os.FileMode(0644)
	if info, err := os.Stat(h.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("failed to chmod temp hosts file: %w", err)
	}

	if err := os.Rename(tmpPath, h.path); err != nil {
		return fmt.Errorf("failed to replace hosts file: %w", err)
	}

	success = true
	return nil
}

// Writable probes write access by opening the hosts file for append
// without truncating it. It never modifies the file.
func (h *HostsFile) Writable() bool {
	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Path returns the hosts file location this synchronizer targets.
func (h *HostsFile) Path() string {
	return h.path
}

// Ensure HostsFile implements domain.HostsSynchronizer.
var _ domain.HostsSynchronizer = (*HostsFile)(nil)
