// FILE: lixenwraith/settings/cmd/settings/main.go

// Command settings resolves a sample application's settings from flags,
// --set overrides, environment variables and a settings file, and shows
// where every value came from.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lixenwraith/settings"
)

// AppSettings holds the sample application's defaults.
type AppSettings struct {
	Server struct {
		Host string `settings:"host"`
		Port int    `settings:"port"`
	} `settings:"server"`

	Database struct {
		URL         string        `settings:"url" default:"postgres://localhost/app"`
		MaxConns    int           `settings:"max_conns"`
		IdleTimeout time.Duration `settings:"idle_timeout"`
	} `settings:"database"`

	Features struct {
		RateLimit bool `settings:"rate_limit"`
		Caching   bool `settings:"caching"`
	} `settings:"features"`
}

func defaults() *AppSettings {
	d := &AppSettings{}
	d.Server.Host = "localhost"
	d.Server.Port = 8080
	d.Database.MaxConns = 10
	d.Database.IdleTimeout = 30 * time.Second
	return d
}

var appClass = settings.NewClass("App").FromStruct(defaults()).MustBuild()

type options struct {
	configFile string
	envPrefix  string
	logLevel   string
	overrides  []string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "settings",
		Short:        "Resolve application settings and explain their sources",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "settings file (discovered when empty)")
	pf.StringVar(&opts.envPrefix, "env-prefix", "APP_", "environment variable prefix")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringArrayVar(&opts.overrides, "set", nil, "override a setting as key=value (repeatable)")

	root.AddCommand(newResolveCmd(opts), newDumpCmd(opts), newWatchCmd(opts))
	return root
}

func newResolveCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print every setting with its value and source",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := load(cmd, opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SETTING\tVALUE\tSOURCE")
			var errs []error
			for _, f := range appClass.Fields() {
				res, err := s.Explain(f.Name())
				if err != nil {
					errs = append(errs, err)
					fmt.Fprintf(w, "%s\t<error>\t-\n", f.Name())
					continue
				}
				fmt.Fprintf(w, "%s\t%v\t%s\n", f.Name(), res.Value, res.Source)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return errors.Join(errs...)
		},
	}
	settings.RegisterFlags(cmd.Flags(), appClass)
	return cmd
}

func newDumpCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print resolved settings as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := load(cmd, opts)
			if err != nil {
				return err
			}
			if output == "" {
				return s.Dump(cmd.OutOrStdout())
			}
			if err := s.Save(output); err != nil {
				return err
			}
			log.Info().Str("path", output).Msg("settings written")
			return nil
		},
	}
	settings.RegisterFlags(cmd.Flags(), appClass)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the settings file and log every changed setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, file, err := load(cmd, opts)
			if err != nil {
				return err
			}
			if file == nil {
				return errors.New("no settings file to watch")
			}

			watchOpts := settings.DefaultWatchOptions()
			watchOpts.PollInterval = interval
			changes := file.Watch(cmd.Context(), watchOpts)
			defer file.StopWatch()

			log.Info().Str("path", file.Path()).Msg("watching settings file")
			for key := range changes {
				if _, ok := appClass.Field(key); !ok {
					log.Warn().Str("event", key).Msg("settings file event")
					continue
				}
				v, err := s.Get(key)
				if err != nil {
					log.Error().Err(err).Str("setting", key).Msg("setting no longer resolves")
					continue
				}
				log.Info().Str("setting", key).Interface("value", v).Msg("setting changed")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", settings.DefaultPollInterval, "file poll interval")
	return cmd
}

// load returns the current App instance with flag, override, environment
// and file retrievers attached, in that order of precedence.
func load(cmd *cobra.Command, opts *options) (*settings.Settings, *settings.FileRetriever, error) {
	v := viper.New()
	for _, kv := range opts.overrides {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		v.Set(key, value)
	}

	retrievers := []settings.Retriever{
		settings.NewFlagRetriever(cmd.Flags()),
		settings.NewViperRetriever(v),
		settings.NewEnvRetriever(opts.envPrefix),
	}

	path := opts.configFile
	if path == "" {
		path, _ = settings.DiscoverFile(settings.DefaultDiscoveryOptions("settings"), nil)
	}

	var file *settings.FileRetriever
	if path != "" {
		var err error
		file, err = settings.NewFileRetriever(path, settings.WithFileLogger(log.Logger))
		switch {
		case errors.Is(err, settings.ErrFileNotFound):
			log.Warn().Str("path", path).Msg("settings file not found, continuing without it")
		case err != nil:
			return nil, nil, err
		}
		if file != nil {
			retrievers = append(retrievers, file)
		}
	}

	sc := settings.NewContext(settings.WithLogger(log.Logger))
	s := sc.Current(appClass)
	s.AddRetrievers(retrievers...)
	return s, file, nil
}
