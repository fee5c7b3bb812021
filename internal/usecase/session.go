package usecase

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// State-machine refusals. These are surfaced to callers as rejected
// operations, never silently ignored.
var (
	ErrSessionActive   = errors.New("a focus session is already active")
	ErrNoActiveSession = errors.New("no active session")
	ErrHardcoreEarly   = errors.New("cannot end hardcore session before time expires")
	ErrHardcoreLocked  = errors.New("operation refused: hardcore session in progress")
)

// SessionManager owns the active-session and pomodoro singletons. It is
// safe for concurrent use; the mutex is held only for the duration of a
// single read or mutation, never across I/O.
//
// The hardcore lock is derived: it is true exactly while an active
// session with the hardcore flag exists, so it can never drift out of
// sync with the session state.
type SessionManager struct {
	mu       sync.Mutex
	active   *domain.ActiveSession
	pomodoro domain.PomodoroState

	now func() time.Time // injectable clock for tests
}

// NewSessionManager creates a manager with no active session and
// default pomodoro settings.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		pomodoro: domain.DefaultPomodoroState(),
		now:      time.Now,
	}
}

// StartSession begins a focus session. Only valid when no session is
// active; manual sessions are never pre-empted, and schedule matches
// are only attempted while idle.
func (m *SessionManager) StartSession(name string, duration time.Duration, hardcore bool, typ domain.SessionType) (domain.ActiveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return domain.ActiveSession{}, ErrSessionActive
	}

	now := m.now()
	session := domain.ActiveSession{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: now.Unix(),
		EndTime:   now.Add(duration).Unix(),
		Hardcore:  hardcore,
		Type:      typ,
	}
	m.active = &session
	return session, nil
}

// EndSession terminates the active session. A hardcore session before
// its end time is refused unless force is set; force is only legitimate
// after the caller has verified the master password.
func (m *SessionManager) EndSession(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	if m.active.Hardcore && !force && m.now().Unix() < m.active.EndTime {
		return ErrHardcoreEarly
	}

	m.active = nil
	return nil
}

// Active returns a snapshot of the current session, if any.
func (m *SessionManager) Active() (domain.ActiveSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return domain.ActiveSession{}, false
	}
	return *m.active, true
}

// TimeRemaining returns the seconds left in the active session,
// clamped at zero.
func (m *SessionManager) TimeRemaining() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return 0, false
	}
	remaining := m.active.EndTime - m.now().Unix()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Expired reports whether an active session has reached its end time.
func (m *SessionManager) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active != nil && m.now().Unix() >= m.active.EndTime
}

// HardcoreLocked is the single gate consulted before blocklist,
// schedule, and pomodoro mutations, and before session termination.
func (m *SessionManager) HardcoreLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.hardcoreLocked()
}

func (m *SessionManager) hardcoreLocked() bool {
	return m.active != nil && m.active.Hardcore
}

// ResolveSchedule returns the first enabled rule whose day set contains
// now's weekday and whose inclusive [start, end] window contains now's
// time of day. Rules with unparseable times are skipped.
func ResolveSchedule(rules []domain.ScheduleRule, now time.Time) (domain.ScheduleRule, bool) {
	day := now.Weekday().String()[:3] // "Mon".."Sun"
	minuteOfDay := now.Hour()*60 + now.Minute()

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if !containsDay(rule.Days, day) {
			continue
		}

		start, okStart := parseClock(rule.StartTime)
		end, okEnd := parseClock(rule.EndTime)
		if !okStart || !okEnd {
			continue
		}
		if minuteOfDay >= start && minuteOfDay <= end {
			return rule, true
		}
	}
	return domain.ScheduleRule{}, false
}

// ScheduleWindowEnd returns today's wall-clock end of the rule's window.
func ScheduleWindowEnd(rule domain.ScheduleRule, now time.Time) (time.Time, bool) {
	end, ok := parseClock(rule.EndTime)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location()), true
}

func containsDay(days []string, day string) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// --- pomodoro ---

// PomodoroStart resumes the countdown. Refused while hardcore-locked.
func (m *SessionManager) PomodoroStart() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hardcoreLocked() {
		return ErrHardcoreLocked
	}
	m.pomodoro.IsRunning = true
	return nil
}

// PomodoroPause suspends the countdown. Refused while hardcore-locked.
func (m *SessionManager) PomodoroPause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hardcoreLocked() {
		return ErrHardcoreLocked
	}
	m.pomodoro.IsRunning = false
	return nil
}

// PomodoroReset stops the countdown and restores the current phase's
// full duration. Refused while hardcore-locked.
func (m *SessionManager) PomodoroReset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hardcoreLocked() {
		return ErrHardcoreLocked
	}
	m.pomodoro.TimeRemaining = m.phaseDuration(m.pomodoro.Phase)
	m.pomodoro.IsRunning = false
	return nil
}

// PomodoroConfigure updates the durations (seconds) and long-break
// cadence. The countdown is reset only when currently in the Work
// phase; an in-flight break is not disrupted. Refused while
// hardcore-locked.
func (m *SessionManager) PomodoroConfigure(work, shortBreak, longBreak int64, sessionsUntilLongBreak int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hardcoreLocked() {
		return ErrHardcoreLocked
	}

	m.pomodoro.WorkDuration = work
	m.pomodoro.BreakDuration = shortBreak
	m.pomodoro.LongBreakDuration = longBreak
	m.pomodoro.SessionsUntilLongBreak = sessionsUntilLongBreak

	if m.pomodoro.Phase == domain.PhaseWork {
		m.pomodoro.TimeRemaining = work
	}
	return nil
}

// PomodoroTick advances the countdown by one second. It is the one
// pomodoro mutation that keeps running under the hardcore lock, so an
// active hardcore session never silently stalls the timer. When the
// decrement reaches zero the phase completes in that same tick: it
// returns the completed phase (for notification) and resets the
// countdown to the next phase's duration. Every Nth completed Work
// phase routes to LongBreak, otherwise Break; breaks route back to Work.
func (m *SessionManager) PomodoroTick() (domain.PomodoroPhase, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.pomodoro.IsRunning {
		return "", false
	}
	if m.pomodoro.TimeRemaining > 0 {
		m.pomodoro.TimeRemaining--
	}
	if m.pomodoro.TimeRemaining > 0 {
		return "", false
	}

	completed := m.pomodoro.Phase

	switch m.pomodoro.Phase {
	case domain.PhaseWork:
		m.pomodoro.CompletedSessions++
		if m.pomodoro.SessionsUntilLongBreak > 0 &&
			m.pomodoro.CompletedSessions%m.pomodoro.SessionsUntilLongBreak == 0 {
			m.pomodoro.Phase = domain.PhaseLongBreak
		} else {
			m.pomodoro.Phase = domain.PhaseBreak
		}
	case domain.PhaseBreak, domain.PhaseLongBreak:
		m.pomodoro.Phase = domain.PhaseWork
	}
	m.pomodoro.TimeRemaining = m.phaseDuration(m.pomodoro.Phase)

	return completed, true
}

// PomodoroState returns a snapshot of the pomodoro machine.
func (m *SessionManager) PomodoroState() domain.PomodoroState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pomodoro
}

func (m *SessionManager) phaseDuration(phase domain.PomodoroPhase) int64 {
	switch phase {
	case domain.PhaseBreak:
		return m.pomodoro.BreakDuration
	case domain.PhaseLongBreak:
		return m.pomodoro.LongBreakDuration
	default:
		return m.pomodoro.WorkDuration
	}
}
