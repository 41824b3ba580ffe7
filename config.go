package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the server's runtime settings, sourced from (in order) a
// Server.{yaml,json,toml,...} file, HANGMAN_-prefixed environment
// variables, and command-line flags, per spec.md §6.
type Config struct {
	address      string
	port         int
	publicDir    string
	wordlistsDir string
	verbose      bool
	version      bool
	profile      bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	// A .env file, if present, is loaded before viper initializes so local
	// development doesn't require exporting HANGMAN_* vars by hand. A
	// missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("Server")
	v.AddConfigPath(".")
	v.SetEnvPrefix("HANGMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	cmd := &cobra.Command{
		Use:           "hangman-server",
		Short:         "Server core for a multiplayer word-guessing game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.address, "address", "a", "0.0.0.0", "address to bind to (env: HANGMAN_ADDRESS)")
	fs.IntVarP(&cfg.port, "port", "p", 0, "port to listen on, required (env: HANGMAN_PORT)")
	fs.StringVar(&cfg.publicDir, "public-dir", "public", "directory of static assets to serve (env: HANGMAN_PUBLIC_DIR)")
	fs.StringVar(&cfg.wordlistsDir, "wordlists-dir", "wordlists", "directory of preprocessed wordlist files (env: HANGMAN_WORDLISTS_DIR)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: HANGMAN_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: HANGMAN_VERSION)")
	fs.BoolVar(&cfg.profile, "profile", false, "expose net/http/pprof endpoints under /debug/pprof (env: HANGMAN_PROFILE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("hangman-server v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
