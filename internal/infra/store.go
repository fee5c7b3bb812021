// Package infra implements infrastructure concerns (storage, process,
// hosts file, platform capabilities).
package infra

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/bastion/internal/domain"
)

const storeDBName = "bastion.db"

// SQLStore implements domain.Store using a SQLCipher encrypted SQLite
// database. All access goes through database/sql, which serializes
// concurrent callers on the single connection.
type SQLStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLStore opens (or creates) the encrypted store.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewSQLStore(dataDir string, key []byte) (*SQLStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, storeDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &SQLStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *SQLStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS blocked_sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT NOT NULL UNIQUE,
		category TEXT DEFAULT 'other',
		enabled INTEGER DEFAULT 1,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS blocked_apps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		process_name TEXT NOT NULL UNIQUE,
		category TEXT DEFAULT 'other',
		enabled INTEGER DEFAULT 1,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		days TEXT NOT NULL,
		hardcore INTEGER DEFAULT 0,
		enabled INTEGER DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS block_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		target_type TEXT NOT NULL,
		blocked_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS focus_stats (
		date TEXT PRIMARY KEY,
		minutes_protected INTEGER DEFAULT 0,
		blocks_count INTEGER DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- settings ---

// GetSetting returns the value for key, or ok=false if unset.
func (s *SQLStore) GetSetting(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting stores or replaces a setting.
func (s *SQLStore) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	return err
}

// --- blocked sites ---

// ListBlockedSites returns all blocked sites, enabled or not.
func (s *SQLStore) ListBlockedSites() ([]domain.BlockedSite, error) {
	rows, err := s.db.Query(`SELECT id, domain, category, enabled, created_at FROM blocked_sites`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.BlockedSite
	for rows.Next() {
		var site domain.BlockedSite
		var enabled int
		if err := rows.Scan(&site.ID, &site.Domain, &site.Category, &enabled, &site.CreatedAt); err != nil {
			return nil, err
		}
		site.Enabled = enabled == 1
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// AddBlockedSite inserts a new site and returns its ID.
func (s *SQLStore) AddBlockedSite(siteDomain, category string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO blocked_sites (domain, category) VALUES (?, ?)`,
		siteDomain, category)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ToggleBlockedSite enables or disables a site.
func (s *SQLStore) ToggleBlockedSite(id int64, enabled bool) error {
	_, err := s.db.Exec(`UPDATE blocked_sites SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	return err
}

// DeleteBlockedSite removes a site.
func (s *SQLStore) DeleteBlockedSite(id int64) error {
	_, err := s.db.Exec(`DELETE FROM blocked_sites WHERE id = ?`, id)
	return err
}

// --- blocked apps ---

// ListBlockedApps returns all blocked apps, enabled or not.
func (s *SQLStore) ListBlockedApps() ([]domain.BlockedApp, error) {
	rows, err := s.db.Query(`SELECT id, name, process_name, category, enabled, created_at FROM blocked_apps`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.BlockedApp
	for rows.Next() {
		var app domain.BlockedApp
		var enabled int
		if err := rows.Scan(&app.ID, &app.Name, &app.ProcessName, &app.Category, &enabled, &app.CreatedAt); err != nil {
			return nil, err
		}
		app.Enabled = enabled == 1
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// AddBlockedApp inserts a new app and returns its ID.
func (s *SQLStore) AddBlockedApp(name, processName, category string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO blocked_apps (name, process_name, category) VALUES (?, ?, ?)`,
		name, processName, category)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ToggleBlockedApp enables or disables an app.
func (s *SQLStore) ToggleBlockedApp(id int64, enabled bool) error {
	_, err := s.db.Exec(`UPDATE blocked_apps SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	return err
}

// DeleteBlockedApp removes an app.
func (s *SQLStore) DeleteBlockedApp(id int64) error {
	_, err := s.db.Exec(`DELETE FROM blocked_apps WHERE id = ?`, id)
	return err
}

// --- schedule rules ---

// ListSchedules returns all schedule rules.
// Days are stored as a JSON array for compatibility with older data.
func (s *SQLStore) ListSchedules() ([]domain.ScheduleRule, error) {
	rows, err := s.db.Query(`SELECT id, name, start_time, end_time, days, hardcore, enabled FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.ScheduleRule
	for rows.Next() {
		var rule domain.ScheduleRule
		var days string
		var hardcore, enabled int
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.StartTime, &rule.EndTime, &days, &hardcore, &enabled); err != nil {
			return nil, err
		}
		// Malformed day lists degrade to "matches never", not an error.
		_ = json.Unmarshal([]byte(days), &rule.Days)
		rule.Hardcore = hardcore == 1
		rule.Enabled = enabled == 1
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// AddSchedule inserts a new rule and returns its ID.
func (s *SQLStore) AddSchedule(rule domain.ScheduleRule) (int64, error) {
	days, err := json.Marshal(rule.Days)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO sessions (name, start_time, end_time, days, hardcore, enabled) VALUES (?, ?, ?, ?, ?, ?)`,
		rule.Name, rule.StartTime, rule.EndTime, string(days),
		boolToInt(rule.Hardcore), boolToInt(rule.Enabled))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteSchedule removes a rule.
func (s *SQLStore) DeleteSchedule(id int64) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// --- block events and stats ---

// LogBlockEvent appends an event and bumps today's block counter.
func (s *SQLStore) LogBlockEvent(target, targetType string) error {
	_, err := s.db.Exec(`INSERT INTO block_events (target, target_type) VALUES (?, ?)`,
		target, targetType)
	if err != nil {
		return err
	}

	today := time.Now().Format("2006-01-02")
	_, err = s.db.Exec(
		`INSERT INTO focus_stats (date, blocks_count) VALUES (?, 1)
		 ON CONFLICT(date) DO UPDATE SET blocks_count = blocks_count + 1`, today)
	return err
}

// RecentBlockEvents returns the newest events, up to limit.
func (s *SQLStore) RecentBlockEvents(limit int) ([]domain.BlockEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, target, target_type, blocked_at FROM block_events
		 ORDER BY blocked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.BlockEvent
	for rows.Next() {
		var ev domain.BlockEvent
		if err := rows.Scan(&ev.ID, &ev.Target, &ev.TargetType, &ev.BlockedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// AddProtectedMinutes adds focus minutes to today's stats row.
func (s *SQLStore) AddProtectedMinutes(minutes int64) error {
	today := time.Now().Format("2006-01-02")
	_, err := s.db.Exec(
		`INSERT INTO focus_stats (date, minutes_protected) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET minutes_protected = minutes_protected + ?`,
		today, minutes, minutes)
	return err
}

// Stats returns up to days of daily summaries, newest first.
func (s *SQLStore) Stats(days int) ([]domain.FocusStats, error) {
	rows, err := s.db.Query(
		`SELECT date, minutes_protected, blocks_count FROM focus_stats
		 ORDER BY date DESC LIMIT ?`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.FocusStats
	for rows.Next() {
		var st domain.FocusStats
		if err := rows.Scan(&st.Date, &st.MinutesProtected, &st.BlocksCount); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Close releases the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path (for status output and tests).
func (s *SQLStore) Path() string {
	return s.dbPath
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLStore implements domain.Store.
var _ domain.Store = (*SQLStore)(nil)
