package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sftp-cleanup/internal/allowlist"
	"sftp-cleanup/internal/cleanup"
	"sftp-cleanup/internal/config"
	"sftp-cleanup/internal/eventlog"
	"sftp-cleanup/internal/remote"
	"sftp-cleanup/internal/report"
)

// dial opens the remote session; tests replace it.
var dial = func(ctx context.Context, o remote.DialOptions) (remote.Client, error) {
	return remote.Dial(ctx, o)
}

type options struct {
	configPath string
	host       string
	user       string
	key        string
	check      bool
	delete     bool
	progress   bool
	summary    bool
	logLevel   string

	port       int
	knownHosts string
	root       string
	listPath   string
	logFile    string
	maxAge     int
	walk       string
	workers    int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "sftp-cleanup",
		Short: "Remove old files and directories from an SFTP server",
		Long: `Remove old files and directories from an SFTP server.

Every top-level directory named in the allow-list file is scanned and its
children older than the retention window are listed (--check) or removed
together with everything below them (--delete).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags(), opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVar(&opts.host, "host", "", "sftp hostname")
	f.StringVar(&opts.user, "user", "", "sftp user")
	f.StringVar(&opts.key, "key", "", "path to private key")
	f.BoolVar(&opts.check, "check", false, "list paths to delete")
	f.BoolVar(&opts.delete, "delete", false, "delete listed paths with their sub-directories")

	f.StringVarP(&opts.configPath, "config", "c", "sftp-cleanup.yaml", "config file path")
	f.IntVar(&opts.port, "port", defaults.Port, "sftp port")
	f.StringVar(&opts.knownHosts, "known-hosts", "", "known_hosts file to verify the server (default accepts any host key)")
	f.StringVar(&opts.root, "root", defaults.Root, "remote directory holding the top-level directories")
	f.StringVar(&opts.listPath, "list", defaults.ListPath, "file with top-level directory names to clean, one per line")
	f.StringVar(&opts.logFile, "log-file", defaults.LogFile, "event log file")
	f.IntVar(&opts.maxAge, "max-age", defaults.MaxAgeDays, "remove entries older than this many days")
	f.StringVar(&opts.walk, "walk", defaults.Walk, "directory discovery when deleting: legacy or full")
	f.IntVarP(&opts.workers, "workers", "w", defaults.Workers, "number of directories scanned concurrently")
	f.BoolVar(&opts.progress, "progress", false, "show scan progress on stderr")
	f.BoolVar(&opts.summary, "summary", false, "print a run summary when done")
	f.StringVar(&opts.logLevel, "log-level", "info", "diagnostic log level (debug, info, warn, error)")

	_ = cmd.MarkFlagRequired("host")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("key")
	cmd.MarkFlagsMutuallyExclusive("check", "delete")

	return cmd
}

// loadConfig reads the config file and applies the flags given explicitly
// on the command line over it.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flags.Changed("port") {
		cfg.Port = opts.port
	}
	if flags.Changed("known-hosts") {
		cfg.KnownHosts = opts.knownHosts
	}
	if flags.Changed("root") {
		cfg.Root = opts.root
	}
	if flags.Changed("list") {
		cfg.ListPath = opts.listPath
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("max-age") {
		cfg.MaxAgeDays = opts.maxAge
	}
	if flags.Changed("walk") {
		cfg.Walk = opts.walk
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*logrus.Entry, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger.WithField("run_id", uuid.NewString()), nil
}

func mode(opts *options) report.Mode {
	switch {
	case opts.check:
		return report.ModeCheck
	case opts.delete:
		return report.ModeDelete
	default:
		return report.ModeScan
	}
}

func run(ctx context.Context, flags *pflag.FlagSet, opts *options, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(flags, opts)
	if err != nil {
		return err
	}

	log, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		return err
	}

	// The allow-list must exist before anything touches the network
	allow, err := allowlist.Load(cfg.ListPath)
	if err != nil {
		if errors.Is(err, allowlist.ErrMissing) {
			return fmt.Errorf("you should create file %q with root directory names to check: %w", cfg.ListPath, err)
		}
		return err
	}

	events := eventlog.Open(eventlog.Options{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}, stdout)
	defer func() {
		if err := events.Close(); err != nil {
			log.WithError(err).Warn("failed to close event log")
		}
	}()

	client, err := dial(ctx, remote.DialOptions{
		Host:       opts.host,
		Port:       cfg.Port,
		User:       opts.user,
		KeyFile:    opts.key,
		KnownHosts: cfg.KnownHosts,
		Timeout:    cfg.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("failed to close sftp session")
		}
	}()
	log.WithFields(logrus.Fields{"host": opts.host, "user": opts.user}).Debug("connected")

	var progressOut io.Writer
	if opts.progress {
		progressOut = stderr
	}

	start := time.Now()
	rep, err := cleanup.New(client, allow, events, log, cleanup.Options{
		Mode:       mode(opts),
		Root:       cfg.Root,
		MaxAgeDays: cfg.MaxAgeDays,
		Exclude:    cfg.Exclude,
		Walk:       cfg.Walk,
		Workers:    cfg.Workers,
		Progress:   progressOut,
	}).Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"mode":          rep.Mode,
		"max_age":       cfg.MaxAge(),
		"scanned":       len(rep.Scanned),
		"stale":         len(rep.Candidates),
		"files_removed": rep.FilesRemoved,
		"dirs_removed":  rep.DirsRemoved,
		"skipped":       len(rep.Errors),
		"duration":      time.Since(start).Round(time.Millisecond),
	}).Info("cleanup finished")

	if opts.summary {
		fmt.Fprint(stdout, report.FormatSummary(rep))
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
