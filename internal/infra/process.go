package infra

import (
	"sort"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// Snapshot returns a fresh view of the process table.
func (pm *ProcessManagerImpl) Snapshot() ([]domain.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	infos := make([]domain.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}
		infos = append(infos, domain.ProcessInfo{PID: p.Pid, Name: name})
	}
	return infos, nil
}

// Terminate asks a process to exit gracefully (SIGTERM).
func (pm *ProcessManagerImpl) Terminate(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Terminate()
}

// Kill forcefully ends a process (SIGKILL).
func (pm *ProcessManagerImpl) Kill(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// ListRunningProcesses returns the current process table deduplicated
// by name (case-insensitive) and sorted, for blocklist pickers.
func ListRunningProcesses(pm domain.ProcessManager) ([]domain.ProcessInfo, error) {
	infos, err := pm.Snapshot()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(infos))
	unique := make([]domain.ProcessInfo, 0, len(infos))
	for _, info := range infos {
		key := strings.ToLower(info.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, info)
	}

	sort.Slice(unique, func(i, j int) bool {
		return strings.ToLower(unique[i].Name) < strings.ToLower(unique[j].Name)
	})
	return unique, nil
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
