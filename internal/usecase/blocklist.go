package usecase

import (
	"go.uber.org/zap"

	"github.com/eliteGoblin/bastion/internal/domain"
)

// BlocklistService owns blocklist and schedule mutations. Every
// mutation is gated on the hardcore lock, and every site mutation
// re-mirrors the enabled set into the hosts file.
//
// The store is the source of truth; the hosts file is a best-effort
// mirror that may lag when the process is unprivileged.
//
// locked reports the hardcore lock: the daemon passes the session
// manager's live flag, the CLI the mirror persisted in settings.
type BlocklistService struct {
	store    domain.Store
	hosts    domain.HostsSynchronizer
	platform domain.Platform
	locked   func() bool
	logger   *zap.Logger
}

// NewBlocklistService creates a blocklist service.
func NewBlocklistService(
	store domain.Store,
	hosts domain.HostsSynchronizer,
	platform domain.Platform,
	locked func() bool,
	logger *zap.Logger,
) *BlocklistService {
	return &BlocklistService{
		store:    store,
		hosts:    hosts,
		platform: platform,
		locked:   locked,
		logger:   logger,
	}
}

// AddSite adds a domain to the blocklist and re-syncs the hosts file.
func (s *BlocklistService) AddSite(siteDomain, category string) (int64, error) {
	if s.locked() {
		return 0, ErrHardcoreLocked
	}
	id, err := s.store.AddBlockedSite(siteDomain, category)
	if err != nil {
		return 0, err
	}
	s.SyncHosts()
	return id, nil
}

// ToggleSite enables or disables a site and re-syncs the hosts file.
func (s *BlocklistService) ToggleSite(id int64, enabled bool) error {
	if s.locked() {
		return ErrHardcoreLocked
	}
	if err := s.store.ToggleBlockedSite(id, enabled); err != nil {
		return err
	}
	s.SyncHosts()
	return nil
}

// DeleteSite removes a site and re-syncs the hosts file.
func (s *BlocklistService) DeleteSite(id int64) error {
	if s.locked() {
		return ErrHardcoreLocked
	}
	if err := s.store.DeleteBlockedSite(id); err != nil {
		return err
	}
	s.SyncHosts()
	return nil
}

// AddApp adds an application to the process blocklist.
func (s *BlocklistService) AddApp(name, processName, category string) (int64, error) {
	if s.locked() {
		return 0, ErrHardcoreLocked
	}
	return s.store.AddBlockedApp(name, processName, category)
}

// ToggleApp enables or disables a blocked application.
func (s *BlocklistService) ToggleApp(id int64, enabled bool) error {
	if s.locked() {
		return ErrHardcoreLocked
	}
	return s.store.ToggleBlockedApp(id, enabled)
}

// DeleteApp removes a blocked application.
func (s *BlocklistService) DeleteApp(id int64) error {
	if s.locked() {
		return ErrHardcoreLocked
	}
	return s.store.DeleteBlockedApp(id)
}

// AddSchedule adds a scheduled-session rule.
func (s *BlocklistService) AddSchedule(rule domain.ScheduleRule) (int64, error) {
	if s.locked() {
		return 0, ErrHardcoreLocked
	}
	return s.store.AddSchedule(rule)
}

// DeleteSchedule removes a scheduled-session rule.
func (s *BlocklistService) DeleteSchedule(id int64) error {
	if s.locked() {
		return ErrHardcoreLocked
	}
	return s.store.DeleteSchedule(id)
}

// SyncHosts mirrors the enabled blocklist into the hosts file and
// flushes the DNS cache on success. Failure (typically missing
// privileges) is logged and swallowed: the store already holds the
// truth and the mirror catches up on the next privileged sync.
func (s *BlocklistService) SyncHosts() {
	sites, err := s.store.ListBlockedSites()
	if err != nil {
		s.logger.Warn("failed to list blocked sites for hosts sync", zap.Error(err))
		return
	}

	domains := make([]string, 0, len(sites))
	for _, site := range sites {
		if site.Enabled {
			domains = append(domains, site.Domain)
		}
	}

	if err := s.hosts.Sync(domains); err != nil {
		s.logger.Warn("could not update hosts file (need admin?)", zap.Error(err))
		return
	}

	s.logger.Info("hosts file updated", zap.Int("domains", len(domains)))

	if err := s.platform.FlushDNSCache(); err != nil {
		s.logger.Warn("failed to flush DNS cache", zap.Error(err))
	}
}
