// Package usecase contains application business logic.
package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// systemWhitelist is the fixed set of OS-critical process names that
// must never be terminated, even when a user adds one to the blocklist.
// Matching is case-insensitive. This set is not user-editable.
var systemWhitelist = map[string]struct{}{
	"explorer.exe":                {},
	"dwm.exe":                     {},
	"taskhostw.exe":               {},
	"lsass.exe":                   {},
	"csrss.exe":                   {},
	"wininit.exe":                 {},
	"winlogon.exe":                {},
	"services.exe":                {},
	"system":                      {},
	"registry":                    {},
	"smss.exe":                    {},
	"fontdrvhost.exe":             {},
	"svchost.exe":                 {},
	"taskmgr.exe":                 {},
	"shellexperiencehost.exe":     {},
	"searchhost.exe":              {},
	"startmenuexperiencehost.exe": {},
}

// IsWhitelisted reports whether name is protected by the system whitelist.
func IsWhitelisted(name string) bool {
	_, ok := systemWhitelist[strings.ToLower(name)]
	return ok
}

// ProcessEnforcer terminates running processes whose names are on the
// blocklist, graceful signal first, forceful kill as fallback.
type ProcessEnforcer struct {
	processManager domain.ProcessManager
	logger         *zap.Logger
}

// NewProcessEnforcer creates a new process enforcer.
func NewProcessEnforcer(pm domain.ProcessManager, logger *zap.Logger) *ProcessEnforcer {
	return &ProcessEnforcer{
		processManager: pm,
		logger:         logger,
	}
}

// Enforce takes one fresh snapshot of the process table and terminates
// every process whose name matches blockedNames (case-insensitive),
// minus the system whitelist. It returns the original user-supplied
// names of processes actually terminated, deduplicated. Per-process
// failures are logged and do not stop enforcement of the rest.
func (e *ProcessEnforcer) Enforce(blockedNames []string) []string {
	if len(blockedNames) == 0 {
		return nil
	}

	// Effective kill-set: lowercase names minus the whitelist. If the
	// whole list is whitelisted there is nothing to do, so skip the
	// process-table scan entirely.
	killSet := make(map[string]string, len(blockedNames))
	for _, name := range blockedNames {
		lower := strings.ToLower(name)
		if _, ok := systemWhitelist[lower]; ok {
			continue
		}
		killSet[lower] = name
	}
	if len(killSet) == 0 {
		return nil
	}

	procs, err := e.processManager.Snapshot()
	if err != nil {
		e.logger.Warn("failed to snapshot processes", zap.Error(err))
		return nil
	}

	var killed []string
	seen := make(map[string]struct{})

	for _, proc := range procs {
		lower := strings.ToLower(proc.Name)

		// Second, independent whitelist guard. The precomputed set
		// difference above is never trusted on its own.
		if _, ok := systemWhitelist[lower]; ok {
			continue
		}

		original, ok := killSet[lower]
		if !ok {
			continue
		}

		if err := e.processManager.Terminate(proc.PID); err != nil {
			if killErr := e.processManager.Kill(proc.PID); killErr != nil {
				e.logger.Warn("failed to kill process",
					zap.Int32("pid", proc.PID),
					zap.String("name", proc.Name),
					zap.Error(killErr))
				continue
			}
		}

		e.logger.Info("terminated blocked process",
			zap.Int32("pid", proc.PID),
			zap.String("name", proc.Name))

		if _, dup := seen[lower]; !dup {
			seen[lower] = struct{}{}
			killed = append(killed, original)
		}
	}

	return killed
}
