// Package intercept catches connections to blocked hostnames that were
// redirected to loopback, identifies the requested host, and logs the
// attempt. No TLS handshake is ever completed; only the leading bytes
// of each connection are inspected.
package intercept

import "strings"

// ParseSNI extracts the server_name host from the leading bytes of a
// TLS ClientHello. Every offset is bounds-checked; truncated or
// malformed input yields ok=false, never a panic. A single read is
// assumed to carry the SNI, which holds for the first segment of real
// clients.
func ParseSNI(data []byte) (string, bool) {
	// Record header (5) + handshake header (4) + version (2) + random (32),
	// then the session ID length byte at offset 43.
	if len(data) < 44 {
		return "", false
	}
	if data[0] != 0x16 { // content type: handshake
		return "", false
	}
	if data[5] != 0x01 { // handshake type: ClientHello
		return "", false
	}

	// Session ID length sits right after the 32-byte random.
	sessionIDLen := int(data[43])
	pos := 44 + sessionIDLen

	// Cipher suites.
	if pos+2 > len(data) {
		return "", false
	}
	cipherSuitesLen := int(data[pos])<<8 | int(data[pos+1])
	pos += 2 + cipherSuitesLen

	// Compression methods.
	if pos+1 > len(data) {
		return "", false
	}
	compressionLen := int(data[pos])
	pos += 1 + compressionLen

	// Extensions block length (the loop below re-checks per extension).
	if pos+2 > len(data) {
		return "", false
	}
	pos += 2

	for pos+4 <= len(data) {
		extType := int(data[pos])<<8 | int(data[pos+1])
		extLen := int(data[pos+2])<<8 | int(data[pos+3])
		pos += 4

		if extType == 0x0000 { // server_name
			if pos+2 > len(data) {
				return "", false
			}
			entry := pos + 2 // skip server_name_list length
			if entry+3 > len(data) {
				return "", false
			}
			if data[entry] != 0x00 { // only host_name entries carry a DNS name
				return "", false
			}
			nameLen := int(data[entry+1])<<8 | int(data[entry+2])
			entry += 3
			if entry+nameLen > len(data) {
				return "", false
			}
			return string(data[entry : entry+nameLen]), true
		}

		pos += extLen
	}

	return "", false
}

// ParseHostHeader scans an HTTP request prefix for a Host header and
// returns its trimmed value. The buffer is treated as lossy UTF-8 text.
func ParseHostHeader(data []byte) (string, bool) {
	text := strings.ToValidUTF8(string(data), "�")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) >= 5 && strings.EqualFold(line[:5], "host:") {
			host := strings.TrimSpace(line[5:])
			if host == "" {
				return "", false
			}
			return host, true
		}
	}
	return "", false
}
