package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/denisok6893-rgb/property-valuation/internal/comps"
	"github.com/denisok6893-rgb/property-valuation/internal/equity"
	"github.com/denisok6893-rgb/property-valuation/internal/report"
)

const envPrefix = "APPRAISE"

// app carries what every subcommand needs once the root has parsed flags and config.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	a := &app{v: v}
	var cfgFile string

	root := &cobra.Command{
		Use:           "appraise",
		Short:         "Comparable sales selection and assessment equity analysis",
		Long:          "appraise selects and adjusts comparable sales for subject properties and audits assessment rolls against IAAO ratio-study standards.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log-level"), v.GetString("log-format"))
			if err != nil {
				return err
			}
			a.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./appraise.yaml or $HOME/.config/appraise/appraise.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.StringP("output", "o", "text", "output format: text, json or yaml")
	pf.String("as-of", "", "valuation date YYYY-MM-DD (default today)")
	pf.String("db", "", "SQLite record store used instead of JSON inputs")
	for _, name := range []string{"log-level", "log-format", "output", "as-of", "db"} {
		_ = v.BindPFlag(name, pf.Lookup(name))
	}

	setDefaults(v)

	root.AddCommand(newCompsCmd(a), newEquityCmd(a), newBatchCmd(a), newImportCmd(a))
	return root
}

func setDefaults(v *viper.Viper) {
	c := comps.DefaultCriteria()
	v.SetDefault("comps.max-distance", c.MaxDistance)
	v.SetDefault("comps.max-age-months", c.MaxAgeMonths)
	v.SetDefault("comps.min-similarity", *c.MinSimilarity)
	v.SetDefault("comps.max-comps", c.MaxComps)

	o := equity.DefaultOptions()
	v.SetDefault("equity.low-value-ceiling", o.LowValueCeiling)
	v.SetDefault("equity.high-value-floor", o.HighValueFloor)
	v.SetDefault("equity.min-correlation-samples", o.MinCorrelationSamples)
	v.SetDefault("equity.min-group-size", o.MinGroupSize)
	v.SetDefault("equity.moran-band-miles", o.MoranBandMiles)
	v.SetDefault("equity.small-sample", o.SmallSample)

	v.SetDefault("batch.workers", 0)
}

// initConfig reads an optional YAML file and APPRAISE_* environment overrides,
// e.g. APPRAISE_COMPS_MAX_DISTANCE for comps.max-distance.
func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("appraise")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/appraise")
	}

	err := v.ReadInConfig()
	notFound := viper.ConfigFileNotFoundError{}
	switch {
	case err == nil:
	case cfgFile == "" && errors.As(err, &notFound):
		// config file is optional
	default:
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// appConfig is the decoded form of the comps, equity and batch config sections.
type appConfig struct {
	Comps  comps.Criteria `mapstructure:"comps"`
	Equity equity.Options `mapstructure:"equity"`
	Batch  struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"batch"`
}

// settings decodes through AllSettings so env overrides of nested keys apply.
func (a *app) settings() (appConfig, error) {
	var s appConfig
	if err := a.v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

func (a *app) asOf() (time.Time, error) {
	s := strings.TrimSpace(a.v.GetString("as-of"))
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --as-of: %w", err)
	}
	return t, nil
}

func (a *app) write(cmd *cobra.Command, v any) error {
	f, err := report.ParseFormat(a.v.GetString("output"))
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), f, v)
}
