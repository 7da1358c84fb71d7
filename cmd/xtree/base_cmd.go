package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const (
	// The prefix for configuration keys inside environment.
	envPrefix = "XTREE"

	keyConfig          = "config"
	keyLogLevel        = "log-level"
	keyLogEncoder      = "log-encoder"
	keyLogFile         = "log-file"
	keyMetrics         = "metrics"
	keyMetricsInterval = "metrics-interval"
	keyMetricsAddr     = "metrics-addr"

	metricsNone       = "none"
	metricsStdout     = "stdout"
	metricsPrometheus = "prometheus"

	metricsExportTimeout = 5 * time.Second
)

type baseConfiguration struct {
	// YAML configuration file, optional.
	CfgFile         string
	// Empty falls back to the XLOG_LVL environment variable.
	LogLevel        string
	LogEncoder      string
	// Entries are also appended to this file when set.
	LogFile         string
	Metrics         string
	MetricsInterval time.Duration
	// Listen address of the shell's /metrics endpoint.
	MetricsAddr     string

	errOut       io.Writer
	logger       xlog.XLogger
	meters       metric.MeterProvider
	promRegistry *prometheus.Registry
	shutdown     []func(context.Context) error
}

func (config *baseConfiguration) addConfigurationFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&config.CfgFile, keyConfig, "", "YAML config file")
	// No defaults for the log flags, so the config file and env can still fill them in.
	cmd.PersistentFlags().StringVar(&config.LogLevel, keyLogLevel, "", "logging level, one of: DEBUG, INFO, WARN, ERROR")
	cmd.PersistentFlags().StringVar(&config.LogEncoder, keyLogEncoder, "", "log encoder, one of: json, text")
	cmd.PersistentFlags().StringVar(&config.LogFile, keyLogFile, "", "log file path, logs go to stderr only when not set")
	cmd.PersistentFlags().StringVar(&config.Metrics, keyMetrics, metricsNone, "metrics exporter, one of: none, stdout, prometheus")
	cmd.PersistentFlags().DurationVar(&config.MetricsInterval, keyMetricsInterval, 10*time.Second, "stdout metrics export interval")
	cmd.PersistentFlags().StringVar(&config.MetricsAddr, keyMetricsAddr, "127.0.0.1:9464", "prometheus metrics listen address")
}

func (config *baseConfiguration) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range config.shutdown {
		err = multierr.Append(err, fn(ctx))
	}
	config.shutdown = nil
	if config.logger != nil {
		// Syncing a console fd is not supported everywhere.
		_ = config.logger.Sync()
		err = multierr.Append(err, config.logger.Close())
	}
	return err
}

type xtreeApp struct {
	baseCmd    *cobra.Command
	baseConfig *baseConfiguration
}

func newApp(in io.Reader, out, errOut io.Writer) *xtreeApp {
	config := &baseConfiguration{errOut: errOut}
	baseCmd := &cobra.Command{
		Use:           "xtree",
		Short:         "Balanced search tree engines",
		Long:          `xtree builds red-black and AVL trees over unsigned keys, interactively or in batch.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// If a subcommand does not define PersistentPreRunE, this one is used.
			if err := initializeConfig(cmd, config); err != nil {
				return infra.WrapErrorStackWithMessage(err, "failed to initialize configuration")
			}
			return nil
		},
	}
	baseCmd.SetIn(in)
	baseCmd.SetOut(out)
	baseCmd.SetErr(errOut)
	config.addConfigurationFlags(baseCmd)
	return &xtreeApp{baseCmd: baseCmd, baseConfig: config}
}

// Execute adds all child commands and runs the application.
func (a *xtreeApp) Execute(ctx context.Context) (err error) {
	defer func() {
		err = multierr.Append(err, a.baseConfig.Shutdown(context.WithoutCancel(ctx)))
	}()

	a.baseCmd.AddCommand(
		newShellCmd(a.baseConfig),
		newBuildCmd(a.baseConfig),
		newCompareCmd(a.baseConfig),
	)
	return a.baseCmd.ExecuteContext(ctx)
}

func initializeConfig(cmd *cobra.Command, config *baseConfiguration) error {
	if err := config.initializeConfig(cmd); err != nil {
		return infra.WrapErrorStackWithMessage(err, "reading configuration")
	}
	var errs error
	if err := config.initLogger(); err != nil {
		errs = multierr.Append(errs, infra.WrapErrorStackWithMessage(err, "initializing logger"))
	}
	if err := config.initMetrics(); err != nil {
		errs = multierr.Append(errs, infra.WrapErrorStackWithMessage(err, "initializing metrics"))
	}
	return errs
}

// initializeConfig reads in the config file and the XTREE_* variables.
func (config *baseConfiguration) initializeConfig(cmd *cobra.Command) error {
	v := viper.New()

	if config.CfgFile != "" {
		if _, err := os.Stat(config.CfgFile); err != nil {
			return infra.WrapErrorStackWithMessage(err, "config file")
		}
		v.SetConfigFile(config.CfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	// --log-level binds to XTREE_LOG_LEVEL, see bindFlags.
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return bindFlags(cmd, v)
}

// Bind each cobra flag to its viper value (config file and environment variable).
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var bindFlagErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == keyConfig {
			return
		}

		// Environment variables can't have dashes in them.
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				bindFlagErr = multierr.Append(bindFlagErr, infra.WrapErrorStackWithMessage(err, "binding env to flag "+f.Name))
				return
			}
		}

		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				bindFlagErr = multierr.Append(bindFlagErr, infra.WrapErrorStackWithMessage(err, "setting flag "+f.Name))
				return
			}
		}
	})
	return bindFlagErr
}

// initLogger writes to stderr, stdout carries the command output.
func (config *baseConfiguration) initLogger() error {
	opts := []xlog.XLoggerOption{xlog.WithXLoggerStdErrWriter()}
	if config.LogLevel != "" {
		opts = append(opts, xlog.WithXLoggerLevelText(config.LogLevel))
	}
	if config.LogEncoder != "" {
		enc, err := xlog.ParseLogEncoder(config.LogEncoder)
		if err != nil {
			return err
		}
		opts = append(opts, xlog.WithXLoggerEncoder(enc))
	}
	if config.LogFile != "" {
		opts = append(opts, xlog.WithXLoggerFile(&xlog.FileCoreConfig{
			FilePath: filepath.Dir(config.LogFile),
			Filename: filepath.Base(config.LogFile),
		}))
	}
	config.logger = xlog.NewXLogger(opts...)
	return nil
}

func (config *baseConfiguration) initMetrics() error {
	switch strings.ToLower(strings.TrimSpace(config.Metrics)) {
	case "", metricsNone:
		config.meters = noop.NewMeterProvider()
		return nil
	case metricsPrometheus:
		return config.initPrometheus()
	case metricsStdout:
	default:
		return infra.NewErrorStack("unknown metrics exporter " + config.Metrics)
	}
	if config.MetricsInterval <= 0 {
		return infra.NewErrorStack("metrics interval must be positive")
	}

	mp, err := observability.NewConsoleMetricsExporter(
		config.MetricsInterval,
		metricsExportTimeout,
		stdoutmetric.WithWriter(config.errOut),
	)
	if err != nil {
		return err
	}
	config.meters = mp
	config.shutdown = append(config.shutdown, mp.Shutdown)
	return observability.InitAppStats("xtree", mp)
}

func (config *baseConfiguration) initPrometheus() error {
	reg := prometheus.NewRegistry()
	mp, err := observability.NewPrometheusMetricsExporter(reg)
	if err != nil {
		return err
	}
	config.meters = mp
	config.promRegistry = reg
	config.shutdown = append(config.shutdown, mp.Shutdown)
	return observability.InitAppStats("xtree", mp)
}
