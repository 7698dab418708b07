package commands

import (
	"fmt"

	"github.com/gophersatwork/versioning"
	"github.com/gophersatwork/versioning/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds what a command run needs once flags and config are resolved.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *logrus.Logger
	cache   versioning.Cache
	svc     *versioning.Service
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "appversion",
		Short: "Print the application version resolved from git",
		Long: `appversion resolves a version string from git tags, caches it and
falls back to a configured default when git or the repository is unavailable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup(configPath)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return a.show(cmd, all)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default: versioning.yaml in ., $HOME/.config/versioning, /etc/versioning)")
	flags.StringP("path", "p", "", "repository path (default: working directory)")
	flags.StringP("format", "f", versioning.Tag.String(), "version format: tag, full, commit, tag-commit")
	flags.String("fallback", versioning.DefaultFallback, "version printed when git cannot answer")
	flags.Bool("include-prefix", true, `keep a leading "v"`)
	flags.Bool("cache-enabled", true, "read and write the cache")
	flags.String("cache", config.BackendMemory, "cache backend: none, memory, file, redis")
	flags.String("cache-dir", ".cache/version", "directory of the file cache")
	flags.String("ttl", "3600", "cache ttl in seconds or as a duration")
	flags.String("redis-addr", "localhost:6379", "redis address for the redis cache")
	flags.StringSlice("static", nil, "static version files to check before git, e.g. version.txt,package.json")
	flags.String("log-level", "warn", "log level")

	bindings := map[string]string{
		"repository_path":  "path",
		"format":           "format",
		"fallback_version": "fallback",
		"include_prefix":   "include-prefix",
		"cache.enabled":    "cache-enabled",
		"cache.backend":    "cache",
		"cache.dir":        "cache-dir",
		"cache.ttl":        "ttl",
		"cache.redis.addr": "redis-addr",
		"static_files":     "static",
		"logger.level":     "log-level",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.Flags().Bool("all", false, "print every format")

	rootCmd.AddCommand(
		NewClearCacheCommand(a),
		NewFormatsCommand(),
		NewPruneCommand(a),
	)

	return rootCmd
}

// setup loads configuration and builds the logger, cache and service.
func (a *app) setup(configPath string) error {
	cfg, err := config.LoadWith(a.v, configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closeLog, err := cfg.Logger.NewLogger()
	if err != nil {
		return err
	}
	a.logger = logger
	a.cleanup = append(a.cleanup, closeLog)

	cache, closeCache, err := cfg.Cache.Open()
	if err != nil {
		return err
	}
	a.cache = cache
	a.cleanup = append(a.cleanup, closeCache)

	svc, err := versioning.New(cfg.Options(cache, logger)...)
	if err != nil {
		return err
	}
	a.svc = svc

	logger.WithFields(logrus.Fields{
		"path":    svc.Config().RepositoryPath,
		"backend": cfg.Cache.Backend,
	}).Debug("versioning service ready")

	return nil
}

func (a *app) show(cmd *cobra.Command, all bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !all {
		_, err := fmt.Fprintln(out, a.svc.Current(ctx))
		return err
	}

	for _, format := range versioning.Formats() {
		if _, err := fmt.Fprintf(out, "%-10s %s\n", format, a.svc.Version(ctx, a.svc.Query(format))); err != nil {
			return err
		}
	}
	return nil
}
