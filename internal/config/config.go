// Package config builds the server's cobra command and the Config its
// flags and environment variables bind into.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the server's runtime configuration.
type Config struct {
	Bind           string
	Port           int
	Verbose        bool
	ReconnectGrace time.Duration
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	return nil
}

// Addr returns the host:port string to listen on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// NewCommand builds the root cobra command. run is invoked once flags have
// been parsed and validated.
func NewCommand(cfg *Config, run func(cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KALAKOBANA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "kalakobana-server",
		Short:         "Realtime server for the Georgian category-prompt word game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: KALAKOBANA_BIND)")
	// Unprefixed PORT is what deployment platforms set; KALAKOBANA_PORT is
	// accepted too for consistency with every other flag's env binding.
	fs.IntVarP(&cfg.Port, "port", "p", 3000, "port to listen on (env: PORT or KALAKOBANA_PORT)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug-level logging (env: KALAKOBANA_VERBOSE)")
	fs.DurationVar(&cfg.ReconnectGrace, "reconnect-grace", 120*time.Second, "how long a disconnected player's seat is held before it's given up (env: KALAKOBANA_RECONNECT_GRACE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
	// Bind bare PORT directly so it takes precedence the same way the
	// prefixed flags already do above.
	_ = v.BindEnv("port", "PORT")
	if !fs.Changed("port") && v.IsSet("port") {
		_ = fs.Set("port", fmt.Sprintf("%v", v.Get("port")))
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true

	return cmd
}
