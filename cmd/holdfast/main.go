package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/holdfast-io/holdfast/internal/adapters/proc"
	"github.com/holdfast-io/holdfast/internal/cliconfig"
	"github.com/holdfast-io/holdfast/pkg/log"
	"github.com/holdfast-io/holdfast/pkg/supervisor"
)

// Exit codes are a contract with external process managers and must stay
// stable. The non-zero codes are the 8-bit truncations of the original
// -1/-2/-3 statuses, which is what a shell observes for them.
const (
	exitNormal          = 0
	exitStartupFailure  = 255 // -1: container failed to initialize or start
	exitShutdownError   = 254 // -2: error during shutdown sequencing
	exitShutdownTimeout = 253 // -3: graceful stop timed out, no restart requested
)

const helpDescription = `
Run a managed-component container under active/standby supervision.

Several holdfast processes sharing a lock file elect exactly one active
instance; the rest idle at standby readiness and take over automatically
when the active instance dies or loses the lock. The active instance
exposes a local TCP channel accepting an orderly-stop command.

The supervised command is started as a child process. Its readiness level
is published to a file in the data directory (path handed to the child
via HOLDFAST_READINESS_FILE). Exiting with the restart exit code asks
holdfast to rebuild the supervisor and start over.
`

var exampleUsage = strings.TrimSpace(`
  holdfast --lock-file /var/lib/myapp/lock -- myapp serve
  holdfast --config /etc/holdfast.toml --shutdown-port 8101 -- myapp serve
  echo SHUTDOWN | nc localhost 8101
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "holdfast [flags] -- command [args...]",
		Short:   "Active/standby supervisor for a managed-component container",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first, then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (HOLDFAST_*) override file config but
			// are overridden by flags (checked via changed map).
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			cfg.Command = args
			if err := cfg.Validate(); err != nil {
				return err
			}

			zl.Info().Interface("config", cfg).Msg("configuration")

			run(cfg, log.NewZerologAdapterWithLogger(zl))
			return nil
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.holdfast/config.toml)")
	root.Flags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for runtime state (default: $HOME/.holdfast/data)")
	root.Flags().IntVar(&cfg.RestartExitCode, "restart-exit-code", cfg.RestartExitCode, "child exit code requesting a full restart")

	root.Flags().BoolVar(&cfg.UseLock, "lock", cfg.UseLock, "contend for the lock before going active")
	root.Flags().StringVar(&cfg.LockBackend, "lock-backend", cfg.LockBackend, "lock backend to use")
	root.Flags().StringVar(&cfg.LockFile, "lock-file", cfg.LockFile, "shared lock file (default: <data-dir>/lock)")
	root.Flags().DurationVar(&cfg.LockDelay, "lock-delay", cfg.LockDelay, "lock polling interval")
	root.Flags().IntVar(&cfg.LockStartLevel, "lock-start-level", cfg.LockStartLevel, "readiness level while standby")
	root.Flags().IntVar(&cfg.DefaultStartLevel, "start-level", cfg.DefaultStartLevel, "readiness level while active")

	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown budget (<=0 waits forever)")
	root.Flags().DurationVar(&cfg.ShutdownStep, "shutdown-step", cfg.ShutdownStep, "graceful shutdown polling step")
	root.Flags().StringVar(&cfg.ShutdownHost, "shutdown-host", cfg.ShutdownHost, "shutdown channel bind host")
	root.Flags().IntVar(&cfg.ShutdownPort, "shutdown-port", cfg.ShutdownPort, "shutdown channel port (0 = ephemeral, <0 = disabled)")
	root.Flags().StringVar(&cfg.ShutdownPortFile, "shutdown-port-file", cfg.ShutdownPortFile, "file to announce the resolved port in")
	root.Flags().StringVar(&cfg.ShutdownCommand, "shutdown-command", cfg.ShutdownCommand, "text line that triggers a stop")
	root.Flags().StringVar(&cfg.ShutdownPIDFile, "shutdown-pid-file", cfg.ShutdownPIDFile, "file to record the supervisor PID in")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("holdfast")
		os.Exit(exitStartupFailure)
	}
}

// run owns the restart loop. Each iteration builds a fresh container and
// supervisor; the supervisor itself stays stateless across restarts.
// This function only returns through os.Exit.
func run(cfg cliconfig.Config, logger log.Logger) {
	for {
		container := proc.New(proc.Config{
			Command:         cfg.Command,
			DataDir:         cfg.DataDir,
			RestartExitCode: cfg.RestartExitCode,
		}, logger)

		sup, err := supervisor.New(supervisor.Config{
			UseLock:           cfg.UseLock,
			LockBackend:       cfg.LockBackend,
			LockFile:          cfg.LockFile,
			LockDelay:         cfg.LockDelay,
			LockStartLevel:    cfg.LockStartLevel,
			DefaultStartLevel: cfg.DefaultStartLevel,
			ShutdownTimeout:   cfg.ShutdownTimeout,
			ShutdownStep:      cfg.ShutdownStep,
			ShutdownHost:      cfg.ShutdownHost,
			ShutdownPort:      cfg.ShutdownPort,
			ShutdownPortFile:  cfg.ShutdownPortFile,
			ShutdownCommand:   cfg.ShutdownCommand,
			ShutdownPIDFile:   cfg.ShutdownPIDFile,
		}, container, supervisor.WithLogger(logger))
		if err != nil {
			logger.Error("could not create supervisor", log.Err(err))
			os.Exit(exitStartupFailure)
		}

		ctx, cancel := context.WithCancel(context.Background())

		// Route termination signals into the supervised shutdown path.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			select {
			case <-sigCh:
				logger.Info("received signal, stopping container")
				sup.RequestStop()
			case <-ctx.Done():
			}
		}()

		if err := sup.Launch(ctx); err != nil {
			logger.Error("could not launch container", log.Err(err))
			_, _ = sup.Destroy()
			cancel()
			os.Exit(exitStartupFailure)
		}

		if err := sup.AwaitStop(); err != nil {
			logger.Error("error waiting for container stop", log.Err(err))
			_, _ = sup.Destroy()
			cancel()
			os.Exit(exitShutdownError)
		}

		stopped, err := sup.Destroy()
		cancel()
		signal.Stop(sigCh)
		if err != nil {
			logger.Error("error shutting down container", log.Err(err))
			os.Exit(exitShutdownError)
		}

		restart := container.RestartRequested()
		if !stopped {
			container.Kill()
			if !restart {
				logger.Error("timeout waiting for container to stop, exiting")
				os.Exit(exitShutdownTimeout)
			}
			logger.Warn("timeout waiting for container to stop, restarting now")
		}

		if !restart {
			os.Exit(exitNormal)
		}
		logger.Info("restart requested by container")
	}
}
