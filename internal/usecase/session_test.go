package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// newTestManager returns a manager with a controllable clock.
func newTestManager(start time.Time) (*SessionManager, *time.Time) {
	now := start
	m := NewSessionManager()
	m.now = func() time.Time { return now }
	return m, &now
}

// TestStartSession_RefusesWhenActive verifies the single-session invariant
func TestStartSession_RefusesWhenActive(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("deep work", time.Hour, false, domain.SessionManual)
	require.NoError(t, err)

	_, err = m.StartSession("another", time.Hour, false, domain.SessionManual)
	assert.ErrorIs(t, err, ErrSessionActive)
}

// TestEndSession_NoActive verifies ending without a session is refused
func TestEndSession_NoActive(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	assert.ErrorIs(t, m.EndSession(false), ErrNoActiveSession)
}

// TestEndSession_NonHardcore verifies a normal session ends at any time
func TestEndSession_NonHardcore(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("deep work", time.Hour, false, domain.SessionManual)
	require.NoError(t, err)

	require.NoError(t, m.EndSession(false))
	_, active := m.Active()
	assert.False(t, active)
}

// TestEndSession_HardcoreEarlyRefused verifies the irrevocable lock
func TestEndSession_HardcoreEarlyRefused(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("no escape", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)

	assert.ErrorIs(t, m.EndSession(false), ErrHardcoreEarly)
	assert.True(t, m.HardcoreLocked())
}

// TestEndSession_HardcoreForced verifies force bypasses the early refusal
func TestEndSession_HardcoreForced(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("no escape", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)

	require.NoError(t, m.EndSession(true))
	assert.False(t, m.HardcoreLocked())
}

// TestEndSession_HardcoreAfterExpiry verifies natural expiry needs no force
func TestEndSession_HardcoreAfterExpiry(t *testing.T) {
	m, now := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("no escape", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)

	*now = now.Add(time.Hour + time.Second)
	assert.True(t, m.Expired())
	require.NoError(t, m.EndSession(false))
	assert.False(t, m.HardcoreLocked())
}

// TestTimeRemaining verifies the countdown and its zero clamp
func TestTimeRemaining(t *testing.T) {
	m, now := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("deep work", time.Minute, false, domain.SessionManual)
	require.NoError(t, err)

	remaining, ok := m.TimeRemaining()
	require.True(t, ok)
	assert.Equal(t, int64(60), remaining)

	*now = now.Add(2 * time.Minute)
	remaining, ok = m.TimeRemaining()
	require.True(t, ok)
	assert.Zero(t, remaining)
}

// TestHardcoreLocked verifies the lock is derived from the active session
func TestHardcoreLocked(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	assert.False(t, m.HardcoreLocked())

	_, err := m.StartSession("normal", time.Hour, false, domain.SessionManual)
	require.NoError(t, err)
	assert.False(t, m.HardcoreLocked())

	require.NoError(t, m.EndSession(false))
	_, err = m.StartSession("hardcore", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)
	assert.True(t, m.HardcoreLocked())
}

// TestPomodoroMutationsRefusedWhileLocked verifies the hardcore gate on
// every pomodoro control except the tick
func TestPomodoroMutationsRefusedWhileLocked(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	_, err := m.StartSession("hardcore", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)

	assert.ErrorIs(t, m.PomodoroStart(), ErrHardcoreLocked)
	assert.ErrorIs(t, m.PomodoroPause(), ErrHardcoreLocked)
	assert.ErrorIs(t, m.PomodoroReset(), ErrHardcoreLocked)
	assert.ErrorIs(t, m.PomodoroConfigure(100, 50, 200, 4), ErrHardcoreLocked)
}

// TestPomodoroTick_RunsUnderHardcoreLock verifies the countdown keeps
// advancing during a hardcore session
func TestPomodoroTick_RunsUnderHardcoreLock(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	require.NoError(t, m.PomodoroStart())

	_, err := m.StartSession("hardcore", time.Hour, true, domain.SessionManual)
	require.NoError(t, err)

	before := m.PomodoroState().TimeRemaining
	_, completed := m.PomodoroTick()
	assert.False(t, completed)
	assert.Equal(t, before-1, m.PomodoroState().TimeRemaining)
}

// TestPomodoroTick_Idle verifies a stopped countdown does not move
func TestPomodoroTick_Idle(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))

	before := m.PomodoroState().TimeRemaining
	_, completed := m.PomodoroTick()
	assert.False(t, completed)
	assert.Equal(t, before, m.PomodoroState().TimeRemaining)
}

// TestPomodoroTick_WorkToBreak verifies a work phase of N seconds
// completes on exactly the Nth tick, switching phase in that same tick
func TestPomodoroTick_WorkToBreak(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	require.NoError(t, m.PomodoroConfigure(2, 1, 5, 4))
	require.NoError(t, m.PomodoroStart())

	// First tick: 2 -> 1, nothing completes.
	_, completed := m.PomodoroTick()
	assert.False(t, completed)
	assert.Equal(t, int64(1), m.PomodoroState().TimeRemaining)

	// Second tick: 1 -> 0, the work phase completes now.
	phase, completed := m.PomodoroTick()
	require.True(t, completed)
	assert.Equal(t, domain.PhaseWork, phase)

	state := m.PomodoroState()
	assert.Equal(t, domain.PhaseBreak, state.Phase)
	assert.Equal(t, int64(1), state.TimeRemaining)
	assert.Equal(t, 1, state.CompletedSessions)
}

// TestPomodoroTick_LongBreakCadence verifies every Nth work phase routes
// to the long break
func TestPomodoroTick_LongBreakCadence(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	require.NoError(t, m.PomodoroConfigure(1, 1, 9, 2))
	require.NoError(t, m.PomodoroStart())

	finishPhase := func() domain.PomodoroPhase {
		for {
			if phase, completed := m.PomodoroTick(); completed {
				return phase
			}
		}
	}

	assert.Equal(t, domain.PhaseWork, finishPhase())
	assert.Equal(t, domain.PhaseBreak, m.PomodoroState().Phase)

	assert.Equal(t, domain.PhaseBreak, finishPhase())
	assert.Equal(t, domain.PhaseWork, m.PomodoroState().Phase)

	// Second completed work phase with SessionsUntilLongBreak=2.
	assert.Equal(t, domain.PhaseWork, finishPhase())
	state := m.PomodoroState()
	assert.Equal(t, domain.PhaseLongBreak, state.Phase)
	assert.Equal(t, int64(9), state.TimeRemaining)
	assert.Equal(t, 2, state.CompletedSessions)
}

// TestPomodoroConfigure_ResetsOnlyWorkPhase verifies an in-flight break
// is not disrupted by reconfiguration
func TestPomodoroConfigure_ResetsOnlyWorkPhase(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	require.NoError(t, m.PomodoroConfigure(1, 30, 9, 4))
	require.NoError(t, m.PomodoroStart())

	// Run work to completion so we sit in the break phase.
	for {
		if _, completed := m.PomodoroTick(); completed {
			break
		}
	}
	require.Equal(t, domain.PhaseBreak, m.PomodoroState().Phase)

	require.NoError(t, m.PomodoroConfigure(100, 50, 200, 4))
	state := m.PomodoroState()
	assert.Equal(t, int64(30), state.TimeRemaining)
	assert.Equal(t, int64(100), state.WorkDuration)
}

// TestPomodoroReset verifies reset restores the phase duration and stops
func TestPomodoroReset(t *testing.T) {
	m, _ := newTestManager(time.Unix(1000, 0))
	require.NoError(t, m.PomodoroConfigure(100, 50, 200, 4))
	require.NoError(t, m.PomodoroStart())

	m.PomodoroTick()
	m.PomodoroTick()
	require.NoError(t, m.PomodoroReset())

	state := m.PomodoroState()
	assert.Equal(t, int64(100), state.TimeRemaining)
	assert.False(t, state.IsRunning)
}

// TestResolveSchedule verifies rule matching by day and time window
func TestResolveSchedule(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday10 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	rules := []domain.ScheduleRule{
		{ID: 1, Name: "weekend", Days: []string{"Sat", "Sun"}, StartTime: "09:00", EndTime: "17:00", Enabled: true},
		{ID: 2, Name: "disabled", Days: []string{"Mon"}, StartTime: "09:00", EndTime: "17:00", Enabled: false},
		{ID: 3, Name: "morning", Days: []string{"Mon", "Wed"}, StartTime: "09:00", EndTime: "11:00", Enabled: true},
	}

	rule, ok := ResolveSchedule(rules, monday10)
	require.True(t, ok)
	assert.Equal(t, int64(3), rule.ID)

	// Outside the window.
	_, ok = ResolveSchedule(rules, monday10.Add(2 * time.Hour))
	assert.False(t, ok)

	// Window boundaries are inclusive.
	rule, ok = ResolveSchedule(rules, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, int64(3), rule.ID)
}

// TestResolveSchedule_MalformedTimes verifies unparseable rules are skipped
func TestResolveSchedule_MalformedTimes(t *testing.T) {
	monday10 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	rules := []domain.ScheduleRule{
		{ID: 1, Days: []string{"Mon"}, StartTime: "9am", EndTime: "5pm", Enabled: true},
	}
	_, ok := ResolveSchedule(rules, monday10)
	assert.False(t, ok)
}

// TestScheduleWindowEnd verifies the wall-clock end of a rule window
func TestScheduleWindowEnd(t *testing.T) {
	monday10 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	rule := domain.ScheduleRule{EndTime: "17:30"}

	end, ok := ScheduleWindowEnd(rule, monday10)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC), end)

	_, ok = ScheduleWindowEnd(domain.ScheduleRule{EndTime: "bad"}, monday10)
	assert.False(t, ok)
}
