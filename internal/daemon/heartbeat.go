// Package daemon implements the enforcement heartbeat loop.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/bastion/internal/domain"
	"github.com/eliteGoblin/bastion/internal/usecase"
)

// HeartbeatConfig holds heartbeat loop configuration.
type HeartbeatConfig struct {
	TickInterval time.Duration // timer resolution (default 1s)
	EnforceEvery uint64        // run enforcement + schedule check every Nth tick
}

// DefaultHeartbeatConfig returns the default configuration: a 1-second
// tick with process enforcement sub-sampled to every 3rd tick, bounding
// process-table scans.
func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		TickInterval: time.Second,
		EnforceEvery: 3,
	}
}

// Heartbeat is the periodic driver of the enforcement core. Every tick
// it advances the pomodoro, retires expired sessions, and accumulates
// protected time; every Nth tick it enforces the app blocklist and
// auto-starts scheduled sessions. Each step is wrapped so a single
// failure is logged and the loop proceeds to the next tick; only
// context cancellation stops it.
type Heartbeat struct {
	config    HeartbeatConfig
	store     domain.Store
	sessions  *usecase.SessionManager
	enforcer  *usecase.ProcessEnforcer
	blocklist *usecase.BlocklistService
	logger    *zap.Logger

	ticks          uint64
	sessionSeconds int64 // seconds counted toward the next protected minute
	lastLocked     bool  // lock state last written to the settings mirror
}

// NewHeartbeat creates a heartbeat loop.
func NewHeartbeat(
	config HeartbeatConfig,
	store domain.Store,
	sessions *usecase.SessionManager,
	enforcer *usecase.ProcessEnforcer,
	blocklist *usecase.BlocklistService,
	logger *zap.Logger,
) *Heartbeat {
	return &Heartbeat{
		config:    config,
		store:     store,
		sessions:  sessions,
		enforcer:  enforcer,
		blocklist: blocklist,
		logger:    logger,
	}
}

// Run starts the heartbeat loop. This blocks until context is canceled.
func (h *Heartbeat) Run(ctx context.Context) error {
	h.logger.Info("heartbeat started",
		zap.Duration("tick", h.config.TickInterval),
		zap.Uint64("enforce_every", h.config.EnforceEvery))

	// Mirror the blocklist once on startup so a reboot or an earlier
	// unprivileged run cannot leave the hosts file stale, and reset the
	// lock mirror in case a previous run died while locked.
	h.blocklist.SyncHosts()
	h.mirrorLock(true)

	ticker := time.NewTicker(h.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat stopping")
			return ctx.Err()
		case <-ticker.C:
			h.tick()
		}
	}
}

// tick performs one heartbeat iteration.
func (h *Heartbeat) tick() {
	h.ticks++

	if completed, ok := h.sessions.PomodoroTick(); ok {
		state := h.sessions.PomodoroState()
		h.logger.Info("pomodoro phase completed",
			zap.String("completed", string(completed)),
			zap.String("next", string(state.Phase)),
			zap.Int("completed_sessions", state.CompletedSessions))
	}

	h.retireExpiredSession()
	h.mirrorLock(false)
	h.accumulateProtectedTime()

	if h.config.EnforceEvery > 0 && h.ticks%h.config.EnforceEvery == 0 {
		h.enforceApps()
		h.checkSchedules()
	}
}

// retireExpiredSession ends a session that has reached its end time.
// Natural expiry succeeds even for hardcore sessions, which clears the
// hardcore lock.
func (h *Heartbeat) retireExpiredSession() {
	if !h.sessions.Expired() {
		return
	}
	if err := h.sessions.EndSession(false); err != nil {
		h.logger.Warn("failed to end expired session", zap.Error(err))
		return
	}
	h.logger.Info("focus session ended")
}

// mirrorLock writes the hardcore lock state to the settings table when
// it changes. The CLI runs in a separate process and consults this
// mirror before mutating the blocklist.
func (h *Heartbeat) mirrorLock(force bool) {
	locked := h.sessions.HardcoreLocked()
	if !force && locked == h.lastLocked {
		return
	}

	var until int64
	if session, ok := h.sessions.Active(); ok {
		until = session.EndTime
	}

	if err := usecase.MirrorLock(h.store, locked, until); err != nil {
		h.logger.Warn("failed to mirror lock state", zap.Error(err))
		return
	}
	h.lastLocked = locked
}

// accumulateProtectedTime records one protected minute per 60 ticks
// with an active session. Partial minutes are dropped when a session
// ends; the counter is an aggregate, not an audit log.
func (h *Heartbeat) accumulateProtectedTime() {
	if _, ok := h.sessions.Active(); !ok {
		h.sessionSeconds = 0
		return
	}

	h.sessionSeconds++
	if h.sessionSeconds < 60 {
		return
	}
	h.sessionSeconds = 0

	if err := h.store.AddProtectedMinutes(1); err != nil {
		h.logger.Warn("failed to record protected minute", zap.Error(err))
	}
}

// enforceApps terminates running processes from the enabled blocklist
// and logs a block event per terminated app.
func (h *Heartbeat) enforceApps() {
	apps, err := h.store.ListBlockedApps()
	if err != nil {
		h.logger.Warn("failed to list blocked apps", zap.Error(err))
		return
	}

	var names []string
	for _, app := range apps {
		if app.Enabled {
			names = append(names, app.ProcessName)
		}
	}

	for _, name := range h.enforcer.Enforce(names) {
		if err := h.store.LogBlockEvent(name, domain.TargetApp); err != nil {
			h.logger.Warn("failed to log block event",
				zap.String("target", name),
				zap.Error(err))
		}
	}
}

// checkSchedules auto-starts a scheduled session when idle and a rule's
// window contains the current local time. Manual and pomodoro sessions
// take precedence; an active session is never pre-empted.
func (h *Heartbeat) checkSchedules() {
	if _, ok := h.sessions.Active(); ok {
		return
	}

	rules, err := h.store.ListSchedules()
	if err != nil {
		h.logger.Warn("failed to list schedule rules", zap.Error(err))
		return
	}

	now := time.Now()
	rule, ok := usecase.ResolveSchedule(rules, now)
	if !ok {
		return
	}

	end, ok := usecase.ScheduleWindowEnd(rule, now)
	if !ok || !end.After(now) {
		return
	}

	session, err := h.sessions.StartSession(rule.Name, end.Sub(now), rule.Hardcore, domain.SessionScheduled)
	if err != nil {
		h.logger.Warn("failed to start scheduled session",
			zap.String("rule", rule.Name),
			zap.Error(err))
		return
	}

	h.logger.Info("scheduled session started",
		zap.String("name", session.Name),
		zap.Bool("hardcore", session.Hardcore),
		zap.Int64("end_time", session.EndTime))
}
