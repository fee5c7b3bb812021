package domain

// Store provides persistent storage for settings, blocklists, schedule
// rules, block events, and daily stats.
// Implementation: SQLCipher encrypted SQLite database.
type Store interface {
	// GetSetting returns the value for key, or ok=false if unset.
	GetSetting(key string) (value string, ok bool, err error)

	// SetSetting stores or replaces a setting.
	SetSetting(key, value string) error

	// ListBlockedSites returns all blocked sites, enabled or not.
	ListBlockedSites() ([]BlockedSite, error)

	// AddBlockedSite inserts a new site and returns its ID.
	AddBlockedSite(domain, category string) (int64, error)

	// ToggleBlockedSite enables or disables a site.
	ToggleBlockedSite(id int64, enabled bool) error

	// DeleteBlockedSite removes a site.
	DeleteBlockedSite(id int64) error

	// ListBlockedApps returns all blocked apps, enabled or not.
	ListBlockedApps() ([]BlockedApp, error)

	// AddBlockedApp inserts a new app and returns its ID.
	AddBlockedApp(name, processName, category string) (int64, error)

	// ToggleBlockedApp enables or disables an app.
	ToggleBlockedApp(id int64, enabled bool) error

	// DeleteBlockedApp removes an app.
	DeleteBlockedApp(id int64) error

	// ListSchedules returns all schedule rules.
	ListSchedules() ([]ScheduleRule, error)

	// AddSchedule inserts a new rule and returns its ID.
	AddSchedule(rule ScheduleRule) (int64, error)

	// DeleteSchedule removes a rule.
	DeleteSchedule(id int64) error

	// LogBlockEvent appends an event and bumps today's block counter.
	LogBlockEvent(target, targetType string) error

	// RecentBlockEvents returns the newest events, up to limit.
	RecentBlockEvents(limit int) ([]BlockEvent, error)

	// AddProtectedMinutes adds focus minutes to today's stats row.
	AddProtectedMinutes(minutes int64) error

	// Stats returns up to days of daily summaries, newest first.
	Stats(days int) ([]FocusStats, error)

	// Close releases the database connection.
	Close() error
}

// EventLogger is the narrow slice of Store the interception listener needs.
type EventLogger interface {
	LogBlockEvent(target, targetType string) error
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// Snapshot returns a fresh view of the process table. Callers must
	// not reuse a snapshot across enforcement runs (PIDs are recycled).
	Snapshot() ([]ProcessInfo, error)

	// Terminate asks a process to exit gracefully (SIGTERM).
	Terminate(pid int32) error

	// Kill forcefully ends a process (SIGKILL).
	Kill(pid int32) error
}

// HostsSynchronizer mirrors the enabled blocklist into the OS hosts file.
type HostsSynchronizer interface {
	// Sync rewrites the fenced block to contain exactly the given
	// domains. An empty list removes the fence entirely.
	Sync(domains []string) error

	// Writable reports whether the hosts file can be written without
	// elevated privileges. Probe only; the file is not modified.
	Writable() bool
}

// Platform isolates OS-specific capabilities. Unsupported platforms
// implement these as no-ops.
type Platform interface {
	// HostsPath returns the OS hosts file location.
	HostsPath() string

	// FlushDNSCache purges the system resolver cache so fresh hosts
	// entries take effect immediately.
	FlushDNSCache() error

	// DisableBrowserDoH forces browsers back onto the system resolver
	// so hosts-file redirection cannot be bypassed via DNS-over-HTTPS.
	DisableBrowserDoH() error
}

// CredentialGate verifies the master password that authorizes forced
// termination of a hardcore session. Hashes never leave the gate.
type CredentialGate interface {
	// SetMasterPassword hashes and stores a new master password.
	SetMasterPassword(plaintext string) error

	// VerifyMasterPassword checks plaintext against the stored hash.
	VerifyMasterPassword(plaintext string) (bool, error)
}
