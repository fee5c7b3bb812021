// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

// BlockedSite is a domain on the website blocklist.
// Identity is the domain string (unique).
type BlockedSite struct {
	ID        int64
	Domain    string
	Category  string
	Enabled   bool
	CreatedAt string
}

// BlockedApp is an application on the process blocklist.
// Identity is ProcessName (case-insensitive, unique).
type BlockedApp struct {
	ID          int64
	Name        string
	ProcessName string
	Category    string
	Enabled     bool
	CreatedAt   string
}

// ScheduleRule is a recurring focus-session window.
// Times are "HH:MM" local, days are weekday tags ("Mon".."Sun").
type ScheduleRule struct {
	ID        int64
	Name      string
	StartTime string
	EndTime   string
	Days      []string
	Hardcore  bool
	Enabled   bool
}

// BlockEvent is an append-only record of an intercepted website or a
// terminated application.
type BlockEvent struct {
	ID         int64
	Target     string
	TargetType string
	BlockedAt  string
}

// Target types for BlockEvent.
const (
	TargetWebsite = "website"
	TargetApp     = "app"
)

// FocusStats is one day's protection summary.
type FocusStats struct {
	Date             string
	MinutesProtected int64
	BlocksCount      int64
}

// SessionType identifies how a focus session was started.
type SessionType string

const (
	SessionManual    SessionType = "manual"
	SessionScheduled SessionType = "scheduled"
	SessionPomodoro  SessionType = "pomodoro"
)

// ActiveSession is the single in-flight focus session.
// StartTime/EndTime are Unix timestamps. A hardcore session refuses
// termination before EndTime without a verified master password.
type ActiveSession struct {
	ID        string
	Name      string
	StartTime int64
	EndTime   int64
	Hardcore  bool
	Type      SessionType
}

// PomodoroPhase is the current countdown phase.
type PomodoroPhase string

const (
	PhaseWork      PomodoroPhase = "work"
	PhaseBreak     PomodoroPhase = "break"
	PhaseLongBreak PomodoroPhase = "long_break"
)

// PomodoroState is the pomodoro sub-state machine, mutated once per
// second while running. TimeRemaining never goes below zero; phase
// switches happen only when it reaches zero.
type PomodoroState struct {
	Phase                  PomodoroPhase
	WorkDuration           int64 // seconds
	BreakDuration          int64 // seconds
	LongBreakDuration      int64 // seconds
	SessionsUntilLongBreak int
	CompletedSessions      int
	TimeRemaining          int64 // seconds
	IsRunning              bool
}

// DefaultPomodoroState returns the 25/5/15-minute defaults.
func DefaultPomodoroState() PomodoroState {
	return PomodoroState{
		Phase:                  PhaseWork,
		WorkDuration:           25 * 60,
		BreakDuration:          5 * 60,
		LongBreakDuration:      15 * 60,
		SessionsUntilLongBreak: 4,
		TimeRemaining:          25 * 60,
	}
}

// ProcessInfo is one entry of an OS process-table snapshot.
type ProcessInfo struct {
	PID  int32
	Name string
}
