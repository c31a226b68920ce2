// Command zcached-server runs a zcached-go cache server.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	zcached "github.com/zcached/zcached-go"
	"github.com/zcached/zcached-go/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("zcached-server exiting")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath        string
		address           string
		initialBufferSize string
		maxBufferSize     string
		initialDBCapacity string
		readTimeout       string
		writeTimeout      string
		debug             bool
	)

	cmd := &cobra.Command{
		Use:   "zcached-server",
		Short: "Run a zcached-go cache server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logrus.SetLevel(logrus.DebugLevel)
			}

			cfg, err := zcached.LoadConfigFile(configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Address = address
			}
			if initialBufferSize != "" {
				n, err := zcached.ParseByteSize(initialBufferSize)
				if err != nil {
					return err
				}
				cfg.InitialBufferSize = n
			}
			if maxBufferSize != "" {
				n, err := zcached.ParseByteSize(maxBufferSize)
				if err != nil {
					return err
				}
				cfg.MaxBufferSize = n
			}
			if initialDBCapacity != "" {
				n, err := zcached.ParseByteSize(initialDBCapacity)
				if err != nil {
					return err
				}
				cfg.InitialDBCapacity = n
			}
			if readTimeout != "" {
				d, err := parseDuration(readTimeout)
				if err != nil {
					return err
				}
				cfg.ReadTimeout = d
			}
			if writeTimeout != "" {
				d, err := parseDuration(writeTimeout)
				if err != nil {
					return err
				}
				cfg.WriteTimeout = d
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log := zcached.NewLogrusLogger(logrus.StandardLogger())
			srv := zcached.NewServer(store.NewWithCapacity(cfg.InitialDBCapacity), optionsFrom(cfg, log)...)

			logrus.WithField("address", cfg.Address).Info("zcached-server listening")
			return srv.ListenAndServe(ctx, cfg.Address)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to an optional YAML config file")
	flags.StringVar(&address, "address", "", "listen address, e.g. :9876 (required)")
	flags.StringVar(&initialBufferSize, "initial-buffer-size", "", "per-connection initial read buffer size, e.g. 4KiB")
	flags.StringVar(&maxBufferSize, "max-buffer-size", "", "per-connection maximum read buffer size, e.g. 1MiB")
	flags.StringVar(&initialDBCapacity, "initial-db-capacity", "", "store pre-allocation hint (entry count)")
	flags.StringVar(&readTimeout, "read-timeout", "", "optional per-read deadline, e.g. 30s (default: none)")
	flags.StringVar(&writeTimeout, "write-timeout", "", "optional per-write deadline, e.g. 30s (default: none)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	return cmd
}

func optionsFrom(cfg zcached.Config, log zcached.Logger) []zcached.Option {
	opts := cfg.Options(log)
	return []zcached.Option{
		zcached.WithBufferSizes(opts.InitialBufferSize, opts.MaxBufferSize),
		zcached.WithTimeouts(opts.ReadTimeout, opts.WriteTimeout),
		zcached.WithMaxStallRetries(opts.MaxStallRetries),
		zcached.WithLogger(opts.Logger),
	}
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
