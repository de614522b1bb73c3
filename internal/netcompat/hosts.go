package netcompat

import (
	"fmt"
	"os"
	"strings"
)

// Block markers let a later run locate and replace the previous block
// instead of appending a duplicate.
const (
	hostsMarkerBegin = "# --- virtadm network-compat begin ---"
	hostsMarkerEnd   = "# --- virtadm network-compat end ---"
)

// HostsBlock renders the marker-delimited alias block mapping the
// interface names for the request's index to a loopback compatibility entry.
func HostsBlock(r *Request) string {
	var b strings.Builder
	b.WriteString(hostsMarkerBegin + "\n")
	fmt.Fprintf(&b, "# alias %s -> %s (%s)\n", r.LegacyName(), r.InterfaceName(), r.Mode)
	fmt.Fprintf(&b, "127.0.1.1 %s\n", r.LegacyName())
	fmt.Fprintf(&b, "127.0.1.1 %s\n", r.InterfaceName())
	b.WriteString(hostsMarkerEnd + "\n")
	return b.String()
}

// ApplyHostsBlock returns the hosts file content with block inserted:
// an existing marker-delimited block is replaced in place, otherwise
// the block is appended.
func ApplyHostsBlock(existing, block string) string {
	begin := strings.Index(existing, hostsMarkerBegin)
	end := strings.Index(existing, hostsMarkerEnd)

	if begin >= 0 && end > begin {
		end += len(hostsMarkerEnd)
		// Swallow the trailing newline of the old block.
		if end < len(existing) && existing[end] == '\n' {
			end++
		}
		return existing[:begin] + block + existing[end:]
	}

	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	if existing != "" {
		existing += "\n"
	}
	return existing + block
}

// WriteHosts applies the request's alias block to the hosts file at path.
// Returns the path written.
func WriteHosts(path string, r *Request) (string, error) {
	existing := ""
	data, err := os.ReadFile(path)
	if err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return "", &StorageError{Path: path, Err: err}
	}

	updated := ApplyHostsBlock(existing, HostsBlock(r))
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	return path, nil
}
