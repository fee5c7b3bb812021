// Package main is the CLI entry point for bastiond.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/bastion/internal/daemon"
	"github.com/eliteGoblin/bastion/internal/domain"
	"github.com/eliteGoblin/bastion/internal/infra"
	"github.com/eliteGoblin/bastion/internal/intercept"
	"github.com/eliteGoblin/bastion/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// Block-page text shown on intercepted port-80 requests. Overridable via
// the settings table so the message survives restarts.
const (
	settingBlockPageMessage = "block_page_message"
	defaultBlockPageMessage = "Blocked by Bastion"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bastiond",
	Short: "Bastion - focus enforcement daemon",
	Long: `bastiond blocks distracting websites and applications during focus
sessions. Websites are fenced into the hosts file and intercepted on
loopback; blocked applications are terminated on sight.

A hardcore session locks the blocklist until the session expires.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enforcement daemon in the foreground",
	Long: `Runs the heartbeat loop: hosts-file sync, loopback interception,
process enforcement, scheduled sessions, and the pomodoro timer.
Needs administrator rights to write the hosts file and bind ports
80/443; without them it still enforces the app blocklist.`,
	RunE: runRun,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one enforcement pass immediately",
	Long:  `Terminates running processes from the enabled app blocklist once and exits.`,
	RunE:  runScan,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show protection status",
	RunE:  runStatus,
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage the website blocklist",
}

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage the application blocklist",
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage recurring focus-session rules",
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily protection statistics",
	RunE:  runStats,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent block events",
	RunE:  runEvents,
}

var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "List running processes (for picking blocklist entries)",
	RunE:  runProcesses,
}

var setPasswordCmd = &cobra.Command{
	Use:   "set-password <password>",
	Short: "Set the master password",
	Long: `Sets the master password that unlocks a hardcore session early.
The password is stored as an argon2id hash, never in plaintext.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetPassword,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	dataDir       string
	logFile       string
	focusName     string
	focusMinutes  int
	focusHardcore bool
	pomodoroFlag  bool

	siteCategory string
	appCategory  string

	scheduleName     string
	scheduleStart    string
	scheduleEnd      string
	scheduleDays     string
	scheduleHardcore bool

	statsDays   int
	eventsLimit int
	jsonOutput  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "Data directory (database and key file)")

	runCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (default: <data-dir>/bastiond.log)")
	runCmd.Flags().StringVar(&focusName, "focus", "", "Start a focus session with this name on launch")
	runCmd.Flags().IntVar(&focusMinutes, "minutes", 25, "Focus session length in minutes (with --focus)")
	runCmd.Flags().BoolVar(&focusHardcore, "hardcore", false, "Make the launch session hardcore (with --focus)")
	runCmd.Flags().BoolVar(&pomodoroFlag, "pomodoro", false, "Start the pomodoro countdown on launch")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Number of days to show")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events to show")

	siteAddCmd := &cobra.Command{
		Use:   "add <domain>",
		Short: "Add a domain to the blocklist",
		Args:  cobra.ExactArgs(1),
		RunE:  runSiteAdd,
	}
	siteAddCmd.Flags().StringVar(&siteCategory, "category", "other", "Category label")
	siteCmd.AddCommand(siteAddCmd)
	siteCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked sites",
		RunE:  runSiteList,
	})
	siteCmd.AddCommand(&cobra.Command{
		Use:   "toggle <id> <on|off>",
		Short: "Enable or disable a blocked site",
		Args:  cobra.ExactArgs(2),
		RunE:  runSiteToggle,
	})
	siteCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a blocked site",
		Args:  cobra.ExactArgs(1),
		RunE:  runSiteDelete,
	})

	appAddCmd := &cobra.Command{
		Use:   "add <name> <process-name>",
		Short: "Add an application to the blocklist",
		Args:  cobra.ExactArgs(2),
		RunE:  runAppAdd,
	}
	appAddCmd.Flags().StringVar(&appCategory, "category", "other", "Category label")
	appCmd.AddCommand(appAddCmd)
	appCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blocked applications",
		RunE:  runAppList,
	})
	appCmd.AddCommand(&cobra.Command{
		Use:   "toggle <id> <on|off>",
		Short: "Enable or disable a blocked application",
		Args:  cobra.ExactArgs(2),
		RunE:  runAppToggle,
	})
	appCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a blocked application",
		Args:  cobra.ExactArgs(1),
		RunE:  runAppDelete,
	})

	scheduleAddCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a recurring focus-session rule",
		RunE:  runScheduleAdd,
	}
	scheduleAddCmd.Flags().StringVar(&scheduleName, "name", "", "Rule name (required)")
	scheduleAddCmd.Flags().StringVar(&scheduleStart, "start", "", "Window start, HH:MM local (required)")
	scheduleAddCmd.Flags().StringVar(&scheduleEnd, "end", "", "Window end, HH:MM local (required)")
	scheduleAddCmd.Flags().StringVar(&scheduleDays, "days", "", "Comma-separated weekdays, e.g. Mon,Tue,Wed (required)")
	scheduleAddCmd.Flags().BoolVar(&scheduleHardcore, "hardcore", false, "Sessions from this rule are hardcore")
	scheduleCmd.AddCommand(scheduleAddCmd)
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List schedule rules",
		RunE:  runScheduleList,
	})
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a schedule rule",
		Args:  cobra.ExactArgs(1),
		RunE:  runScheduleDelete,
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(appCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(processesCmd)
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	platform := infra.NewPlatformOps()
	hosts := infra.NewHostsFile(platform.HostsPath())
	if !hosts.Writable() {
		logger.Warn("hosts file not writable, website blocking degraded (need admin?)",
			zap.String("path", platform.HostsPath()))
	}
	if err := platform.DisableBrowserDoH(); err != nil {
		logger.Warn("failed to disable browser DNS-over-HTTPS", zap.Error(err))
	}

	sessions := usecase.NewSessionManager()
	enforcer := usecase.NewProcessEnforcer(infra.NewProcessManager(), logger)

	// The daemon hosts the live session manager, so its blocklist gate
	// reads the lock directly instead of the settings mirror.
	blocklist := usecase.NewBlocklistService(store, hosts, platform, sessions.HardcoreLocked, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	server := intercept.NewServer(store, blockPageMessage(store), logger)
	server.Start(ctx)

	if focusName != "" {
		session, err := sessions.StartSession(focusName,
			time.Duration(focusMinutes)*time.Minute, focusHardcore, domain.SessionManual)
		if err != nil {
			return fmt.Errorf("failed to start focus session: %w", err)
		}
		logger.Info("focus session started",
			zap.String("name", session.Name),
			zap.Int("minutes", focusMinutes),
			zap.Bool("hardcore", session.Hardcore))
	}
	if pomodoroFlag {
		if err := sessions.PomodoroStart(); err != nil {
			return fmt.Errorf("failed to start pomodoro: %w", err)
		}
		logger.Info("pomodoro started")
	}

	heartbeat := daemon.NewHeartbeat(
		daemon.DefaultHeartbeatConfig(),
		store,
		sessions,
		enforcer,
		blocklist,
		logger,
	)
	if err := heartbeat.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	apps, err := store.ListBlockedApps()
	if err != nil {
		return fmt.Errorf("failed to list blocked apps: %w", err)
	}

	var names []string
	for _, app := range apps {
		if app.Enabled {
			names = append(names, app.ProcessName)
		}
	}
	if len(names) == 0 {
		fmt.Println("No enabled applications on the blocklist.")
		return nil
	}

	enforcer := usecase.NewProcessEnforcer(infra.NewProcessManager(), logger)
	killed := enforcer.Enforce(names)

	for _, name := range killed {
		if err := store.LogBlockEvent(name, domain.TargetApp); err != nil {
			logger.Warn("failed to log block event", zap.String("target", name), zap.Error(err))
		}
	}

	if len(killed) == 0 {
		fmt.Println("No blocked applications running.")
	} else {
		fmt.Printf("Terminated %d blocked application(s): %s\n", len(killed), strings.Join(killed, ", "))
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Println("\n=== Bastion Status ===")
	fmt.Printf("Database: %s\n", store.Path())

	platform := infra.NewPlatformOps()
	hosts := infra.NewHostsFile(platform.HostsPath())
	if hosts.Writable() {
		fmt.Println("Hosts file: writable")
	} else {
		fmt.Println("Hosts file: NOT writable (run as admin for website blocking)")
	}

	if usecase.PersistedLock(store)() {
		fmt.Println("Hardcore lock: ACTIVE (blocklist is frozen)")
		if raw, ok, err := store.GetSetting(usecase.SettingHardcoreUntil); err == nil && ok {
			if until, err := strconv.ParseInt(raw, 10, 64); err == nil {
				fmt.Printf("Locked until: %s\n", time.Unix(until, 0).Format(time.RFC1123))
			}
		}
	} else {
		fmt.Println("Hardcore lock: inactive")
	}

	stats, err := store.Stats(1)
	if err == nil && len(stats) > 0 {
		fmt.Printf("Today: %d minutes protected, %d blocks\n",
			stats[0].MinutesProtected, stats[0].BlocksCount)
	}

	fmt.Println("======================")
	return nil
}

func runSiteAdd(cmd *cobra.Command, args []string) error {
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		id, err := blocklist.AddSite(normalizeDomain(args[0]), siteCategory)
		if err != nil {
			return err
		}
		fmt.Printf("Added site %d: %s\n", id, normalizeDomain(args[0]))
		return nil
	})
}

func runSiteList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sites, err := store.ListBlockedSites()
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Domain", "Category", "Enabled", "Created"})
	for _, site := range sites {
		t.AppendRow(table.Row{site.ID, site.Domain, site.Category, onOff(site.Enabled), site.CreatedAt})
	}
	t.Render()
	return nil
}

func runSiteToggle(cmd *cobra.Command, args []string) error {
	id, enabled, err := parseToggleArgs(args)
	if err != nil {
		return err
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if err := blocklist.ToggleSite(id, enabled); err != nil {
			return err
		}
		fmt.Printf("Site %d: %s\n", id, onOff(enabled))
		return nil
	})
}

func runSiteDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if err := blocklist.DeleteSite(id); err != nil {
			return err
		}
		fmt.Printf("Deleted site %d\n", id)
		return nil
	})
}

func runAppAdd(cmd *cobra.Command, args []string) error {
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if usecase.IsWhitelisted(args[1]) {
			return fmt.Errorf("%s is a protected system process and cannot be blocked", args[1])
		}
		id, err := blocklist.AddApp(args[0], args[1], appCategory)
		if err != nil {
			return err
		}
		fmt.Printf("Added app %d: %s (%s)\n", id, args[0], args[1])
		return nil
	})
}

func runAppList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	apps, err := store.ListBlockedApps()
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "Process", "Category", "Enabled", "Created"})
	for _, app := range apps {
		t.AppendRow(table.Row{app.ID, app.Name, app.ProcessName, app.Category, onOff(app.Enabled), app.CreatedAt})
	}
	t.Render()
	return nil
}

func runAppToggle(cmd *cobra.Command, args []string) error {
	id, enabled, err := parseToggleArgs(args)
	if err != nil {
		return err
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if err := blocklist.ToggleApp(id, enabled); err != nil {
			return err
		}
		fmt.Printf("App %d: %s\n", id, onOff(enabled))
		return nil
	})
}

func runAppDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if err := blocklist.DeleteApp(id); err != nil {
			return err
		}
		fmt.Printf("Deleted app %d\n", id)
		return nil
	})
}

func runScheduleAdd(cmd *cobra.Command, args []string) error {
	if scheduleName == "" || scheduleStart == "" || scheduleEnd == "" || scheduleDays == "" {
		return errors.New("--name, --start, --end and --days are required")
	}

	days, err := parseDays(scheduleDays)
	if err != nil {
		return err
	}

	rule := domain.ScheduleRule{
		Name:      scheduleName,
		StartTime: scheduleStart,
		EndTime:   scheduleEnd,
		Days:      days,
		Hardcore:  scheduleHardcore,
		Enabled:   true,
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		id, err := blocklist.AddSchedule(rule)
		if err != nil {
			return err
		}
		fmt.Printf("Added schedule %d: %s %s-%s on %s\n",
			id, rule.Name, rule.StartTime, rule.EndTime, strings.Join(rule.Days, ","))
		return nil
	})
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rules, err := store.ListSchedules()
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Name", "Window", "Days", "Hardcore", "Enabled"})
	for _, rule := range rules {
		t.AppendRow(table.Row{
			rule.ID, rule.Name,
			rule.StartTime + "-" + rule.EndTime,
			strings.Join(rule.Days, ","),
			onOff(rule.Hardcore), onOff(rule.Enabled),
		})
	}
	t.Render()
	return nil
}

func runScheduleDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	return withBlocklist(func(store *infra.SQLStore, blocklist *usecase.BlocklistService) error {
		if err := blocklist.DeleteSchedule(id); err != nil {
			return err
		}
		fmt.Printf("Deleted schedule %d\n", id)
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(statsDays)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"Date", "Minutes Protected", "Blocks"})
	for _, st := range stats {
		t.AppendRow(table.Row{st.Date, st.MinutesProtected, st.BlocksCount})
	}
	t.Render()
	return nil
}

func runEvents(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.RecentBlockEvents(eventsLimit)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Target", "Type", "Blocked At"})
	for _, ev := range events {
		t.AppendRow(table.Row{ev.ID, ev.Target, ev.TargetType, ev.BlockedAt})
	}
	t.Render()
	return nil
}

func runProcesses(cmd *cobra.Command, args []string) error {
	procs, err := infra.ListRunningProcesses(infra.NewProcessManager())
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"PID", "Name", "Protected"})
	for _, proc := range procs {
		protected := ""
		if usecase.IsWhitelisted(proc.Name) {
			protected = "yes"
		}
		t.AppendRow(table.Row{proc.PID, proc.Name, protected})
	}
	t.Render()
	return nil
}

func runSetPassword(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	gate := infra.NewPasswordGate(store)
	if err := gate.SetMasterPassword(args[0]); err != nil {
		return fmt.Errorf("failed to set master password: %w", err)
	}
	fmt.Println("Master password set.")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("bastiond %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
	}
}

// openStore opens the encrypted database in the data directory,
// generating the key file on first run.
func openStore() (*infra.SQLStore, error) {
	keys := infra.NewFileKeyProvider(dataDir)
	key, err := keys.EnsureKey()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare encryption key: %w", err)
	}
	return infra.NewSQLStore(dataDir, key)
}

// withBlocklist runs a mutation through the blocklist service. CLI
// invocations are a separate process from the daemon, so the hardcore
// gate reads the lock mirror the daemon persists in settings.
func withBlocklist(fn func(*infra.SQLStore, *usecase.BlocklistService) error) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	platform := infra.NewPlatformOps()
	hosts := infra.NewHostsFile(platform.HostsPath())
	blocklist := usecase.NewBlocklistService(store, hosts, platform, usecase.PersistedLock(store), logger)

	return fn(store, blocklist)
}

// blockPageMessage returns the port-80 block-page text supplier,
// consulting settings per request so updates apply without a restart.
func blockPageMessage(store domain.Store) func() string {
	return func() string {
		if msg, ok, err := store.GetSetting(settingBlockPageMessage); err == nil && ok && msg != "" {
			return msg
		}
		return defaultBlockPageMessage
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bastion")
	}
	return "bastion-data"
}

func createLogger() *zap.Logger {
	path := logFile
	if path == "" {
		path = filepath.Join(dataDir, "bastiond.log")
	}
	_ = os.MkdirAll(filepath.Dir(path), 0700)

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path, "stderr"}
	config.ErrorOutputPaths = []string{path, "stderr"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func parseToggleArgs(args []string) (int64, bool, error) {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	switch strings.ToLower(args[1]) {
	case "on":
		return id, true, nil
	case "off":
		return id, false, nil
	default:
		return 0, false, fmt.Errorf("expected on or off, got %q", args[1])
	}
}

// parseDays validates a comma-separated weekday list ("Mon,Tue").
func parseDays(s string) ([]string, error) {
	valid := map[string]string{
		"mon": "Mon", "tue": "Tue", "wed": "Wed", "thu": "Thu",
		"fri": "Fri", "sat": "Sat", "sun": "Sun",
	}
	var days []string
	for _, part := range strings.Split(s, ",") {
		day, ok := valid[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return nil, fmt.Errorf("invalid weekday %q", part)
		}
		days = append(days, day)
	}
	return days, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// normalizeDomain strips scheme, path and leading www so the hosts
// fence always receives a bare registrable name.
func normalizeDomain(raw string) string {
	d := strings.TrimSpace(strings.ToLower(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	return d
}
