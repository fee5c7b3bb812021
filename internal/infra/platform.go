package infra

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// firefoxPolicy locks DNS-over-HTTPS off via Firefox enterprise policies.
const firefoxPolicy = `{
    "policies": {
        "DNSOverHTTPS": {
            "Enabled": false,
            "Locked": true
        }
    }
}`

// PlatformOps implements domain.Platform with per-OS command dispatch.
// Capabilities missing on a platform are no-ops, not errors, so the
// core never has to branch on the OS itself.
type PlatformOps struct {
	goos string
}

// NewPlatformOps creates platform capabilities for the current OS.
func NewPlatformOps() *PlatformOps {
	return &PlatformOps{goos: runtime.GOOS}
}

// HostsPath returns the OS hosts file location.
func (p *PlatformOps) HostsPath() string {
	if p.goos == "windows" {
		return `C:\Windows\System32\drivers\etc\hosts`
	}
	return "/etc/hosts"
}

// FlushDNSCache purges the system resolver cache so browsers pick up
// fresh hosts entries without waiting for in-flight lookups to expire.
func (p *PlatformOps) FlushDNSCache() error {
	switch p.goos {
	case "windows":
		return runQuiet("ipconfig", "/flushdns")
	case "darwin":
		if err := runQuiet("dscacheutil", "-flushcache"); err != nil {
			return err
		}
		return runQuiet("killall", "-HUP", "mDNSResponder")
	case "linux":
		// Best effort: systemd-resolved hosts only; other resolvers
		// consult /etc/hosts directly.
		return runQuiet("resolvectl", "flush-caches")
	default:
		return nil
	}
}

// DisableBrowserDoH forces browsers back onto the system resolver.
// Modern browsers bypass the hosts file via DNS-over-HTTPS; disabling
// it (and Chromium's built-in async resolver) makes the loopback
// redirects stick. Windows only; requires administrator rights.
func (p *PlatformOps) DisableBrowserDoH() error {
	if p.goos != "windows" {
		return nil
	}

	if err := p.writeFirefoxPolicy(); err != nil {
		return err
	}

	// Chrome and Thorium honor the same policy keys.
	for _, hive := range []string{
		`HKLM\SOFTWARE\Policies\Google\Chrome`,
		`HKLM\SOFTWARE\Policies\Thorium`,
	} {
		_ = runQuiet("reg", "add", hive, "/v", "DnsOverHttpsMode", "/t", "REG_SZ", "/d", "off", "/f")
		_ = runQuiet("reg", "add", hive, "/v", "BuiltInDnsClientEnabled", "/t", "REG_DWORD", "/d", "0", "/f")
	}
	return nil
}

func (p *PlatformOps) writeFirefoxPolicy() error {
	policyPath := `C:\Program Files\Mozilla Firefox\distribution\policies.json`
	if err := os.MkdirAll(filepath.Dir(policyPath), 0755); err != nil {
		return fmt.Errorf("failed to create Firefox distribution dir: %w", err)
	}
	if err := os.WriteFile(policyPath, []byte(firefoxPolicy), 0644); err != nil {
		return fmt.Errorf("failed to write Firefox policy: %w", err)
	}
	return nil
}

func runQuiet(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

// Ensure PlatformOps implements domain.Platform.
var _ domain.Platform = (*PlatformOps)(nil)
