/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/jeopardy/games/jeopardy"
)

type Config struct {
	apiTimeout       time.Duration
	apiURL           string
	bind             string
	cacheTTL         time.Duration
	clueFile         string
	corsOrigins      []string
	fetchConcurrency int
	fetchTimeout     time.Duration
	port             int
	prefix           string
	profile          bool
	redisAddr        string
	redisDB          int
	redisPassword    string
	sessionTimeout   time.Duration
	tlsCert          string
	tlsKey           string
	verbose          bool
	version          bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.clueFile == "" {
		u, err := url.Parse(c.apiURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid api url (must be an absolute http or https url): %q", c.apiURL)
		}
	}
	if c.fetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout (must be positive): %s", c.fetchTimeout)
	}
	if c.fetchConcurrency < 0 {
		return fmt.Errorf("invalid fetch concurrency (must be 0 or greater): %d", c.fetchConcurrency)
	}
	if c.redisDB < 0 {
		return fmt.Errorf("invalid redis database (must be 0 or greater): %d", c.redisDB)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must be 0 or greater): %s", c.sessionTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JEOPARDY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "jeopardy",
		Short:         "A trivia game board, dealt fresh from a public quiz API every game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.apiTimeout, "api-timeout", 15*time.Second, "timeout for a single quiz api request (env: JEOPARDY_API_TIMEOUT)")
	fs.StringVar(&cfg.apiURL, "api-url", jeopardy.DefaultBaseURL, "base url of the quiz api (env: JEOPARDY_API_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: JEOPARDY_BIND)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", time.Hour, "how long fetched clues are cached, 0 to disable (env: JEOPARDY_CACHE_TTL)")
	fs.StringVar(&cfg.clueFile, "clue-file", "", "yaml clue pack to play from instead of the quiz api (env: JEOPARDY_CLUE_FILE)")
	fs.StringSliceVar(&cfg.corsOrigins, "cors-origin", nil, "origin allowed to call the board api, repeatable (env: JEOPARDY_CORS_ORIGIN)")
	fs.IntVar(&cfg.fetchConcurrency, "fetch-concurrency", jeopardy.NumCategories, "clue fetches in flight per game, 0 for unlimited (env: JEOPARDY_FETCH_CONCURRENCY)")
	fs.DurationVar(&cfg.fetchTimeout, "fetch-timeout", 30*time.Second, "time allowed to load a new board (env: JEOPARDY_FETCH_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: JEOPARDY_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: JEOPARDY_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: JEOPARDY_PROFILE)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "", "redis address for sharing cached clues, in-memory cache if unset (env: JEOPARDY_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database number (env: JEOPARDY_REDIS_DB)")
	fs.StringVar(&cfg.redisPassword, "redis-password", "", "redis password (env: JEOPARDY_REDIS_PASSWORD)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle boards are ended, 0 to keep forever (env: JEOPARDY_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: JEOPARDY_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: JEOPARDY_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: JEOPARDY_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: JEOPARDY_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, v.GetString(f.Name))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("jeopardy v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
