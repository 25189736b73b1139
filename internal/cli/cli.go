// Package cli implements the flagctl command-line tool.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	goFlags "github.com/MrEthical07/goFlags"
	"github.com/MrEthical07/goFlags/claims"
	"github.com/MrEthical07/goFlags/decl"
	"github.com/MrEthical07/goFlags/store"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitValidation  = 1
	ExitUnavailable = 3
	ExitInternal    = 4
)

// ErrCheckFailed is returned by check when the set lacks a required flag.
var ErrCheckFailed = errors.New("required flags missing")

// CLI holds the command tree and the state shared by commands.
type CLI struct {
	rootCmd *cobra.Command
	v       *viper.Viper

	cfg    *Config
	logger *zap.Logger
	reg    *goFlags.Registry

	// Global flags
	configPath string
	jsonOutput bool
}

// New creates a CLI instance.
func New() *CLI {
	c := &CLI{v: newViper(), logger: zap.NewNop()}
	c.rootCmd = c.newRootCmd()
	return c
}

// Execute runs the CLI with os.Args and returns the process exit code.
func (c *CLI) Execute() int {
	return c.ExecuteArgs(os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the CLI with explicit arguments and output streams.
func (c *CLI) ExecuteArgs(args []string, stdout, stderr io.Writer) int {
	c.rootCmd.SetArgs(args)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)

	err := c.rootCmd.Execute()
	_ = c.logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "flagctl: %v\n", err)
	switch {
	case errors.Is(err, ErrCheckFailed),
		errors.Is(err, goFlags.ErrParse),
		errors.Is(err, goFlags.ErrUnknownFlagName),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, claims.ErrInvalidToken),
		errors.Is(err, claims.ErrFlagsClaim):
		return ExitValidation
	case errors.Is(err, store.ErrRedisUnavailable), errors.Is(err, errNoRedis):
		return ExitUnavailable
	default:
		return ExitInternal
	}
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flagctl",
		Short: "Inspect and manage named flag sets",
		Long: `flagctl loads flag declarations from YAML and works with flag sets in
their canonical "Read, Write" text form.

It can list declarations, format and parse name lists, check membership,
read and write the Redis flag set store, issue and verify flag tokens, and
run a concurrency load test against the store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: ./flagctl.yaml)")
	flags.BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	flags.String("decl", "", "flag declaration file")
	flags.String("redis-addr", "", "redis address")
	flags.String("prefix", "", "store key prefix")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("metrics", false, "enable registry metrics")

	_ = c.v.BindPFlag("declarations", flags.Lookup("decl"))
	_ = c.v.BindPFlag("redis.addr", flags.Lookup("redis-addr"))
	_ = c.v.BindPFlag("redis.prefix", flags.Lookup("prefix"))
	_ = c.v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = c.v.BindPFlag("metrics", flags.Lookup("metrics"))

	cmd.AddCommand(c.newNamesCmd())
	cmd.AddCommand(c.newDeclCmd())
	cmd.AddCommand(c.newFormatCmd())
	cmd.AddCommand(c.newParseCmd())
	cmd.AddCommand(c.newCheckCmd())
	cmd.AddCommand(c.newStoreCmd())
	cmd.AddCommand(c.newTokenCmd())
	cmd.AddCommand(c.newBenchCmd())

	return cmd
}

func (c *CLI) init() error {
	cfg, err := loadConfig(c.v, c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	c.logger = logger
	return nil
}

// registry loads the declaration file on first use.
func (c *CLI) registry() (*goFlags.Registry, error) {
	if c.reg != nil {
		return c.reg, nil
	}

	gcfg := goFlags.DefaultConfig()
	gcfg.Metrics.Enabled = c.cfg.Metrics
	gcfg.Metrics.EnableLatencyHistograms = c.cfg.Metrics

	reg, err := decl.Registry(c.cfg.Declarations, gcfg)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("registry loaded",
		zap.String("path", c.cfg.Declarations),
		zap.Int("flags", reg.Width()),
		zap.Stringer("fingerprint", reg.Fingerprint()),
	)
	c.reg = reg
	return reg, nil
}
