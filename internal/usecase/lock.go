package usecase

import (
	"errors"
	"strconv"
	"time"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// Settings keys mirroring the hardcore lock for processes that do not
// host the live session manager (the CLI). The daemon refreshes the
// mirror every tick; hardcore_until bounds staleness if the daemon dies
// while locked.
const (
	SettingHardcoreLocked = "hardcore_locked"
	SettingHardcoreUntil  = "hardcore_until"
)

// ErrPasswordIncorrect is returned when a forced unlock presents the
// wrong master password.
var ErrPasswordIncorrect = errors.New("master password incorrect")

// MirrorLock persists the hardcore lock state for other processes.
func MirrorLock(store domain.Store, locked bool, until int64) error {
	if err := store.SetSetting(SettingHardcoreLocked, strconv.FormatBool(locked)); err != nil {
		return err
	}
	return store.SetSetting(SettingHardcoreUntil, strconv.FormatInt(until, 10))
}

// PersistedLock returns a lock predicate backed by the settings mirror.
// The lock is honored only until its recorded end time, so a crashed
// daemon cannot leave the blocklist frozen forever.
func PersistedLock(store domain.Store) func() bool {
	return func() bool {
		locked, ok, err := store.GetSetting(SettingHardcoreLocked)
		if err != nil || !ok || locked != "true" {
			return false
		}
		raw, ok, err := store.GetSetting(SettingHardcoreUntil)
		if err != nil || !ok {
			return true
		}
		until, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return true
		}
		return time.Now().Unix() < until
	}
}

// ForceEndSession clears the active session and the hardcore lock
// regardless of remaining time, gated on master-password verification.
// This is the only path that breaks a hardcore session early.
func ForceEndSession(sessions *SessionManager, gate domain.CredentialGate, password string) error {
	ok, err := gate.VerifyMasterPassword(password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPasswordIncorrect
	}
	return sessions.EndSession(true)
}
