// Package cli defines the rugged-mysql command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/contriboss/rugged-mysql-go/internal/logging"
)

// All linker flags are set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// envPrefix namespaces environment overrides (RUGGED_MYSQL_DATABASE, ...).
const envPrefix = "RUGGED_MYSQL"

// app carries the state shared by one command tree.
type app struct {
	v      *viper.Viper
	logger *log.Logger
}

// NewRootCmd returns the rugged-mysql command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "rugged-mysql",
		Short: "Configure and build the rugged MySQL backend, and manage its database.",
		Long: `rugged-mysql replaces the extconf.rb of the rugged MySQL backend.

It assembles the compiler flags, checks for GNU make and emits the Makefile,
builds the extension, and manages the git2_refdb and git2_odb tables the
backend stores references and objects in.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE:  a.setup,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().String("config", "", "Path to config file")
	root.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn or error")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.AddCommand(a.configureCmd())
	root.AddCommand(a.flagsCmd())
	root.AddCommand(a.buildCmd())
	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.refsCmd())
	root.AddCommand(a.objectsCmd())
	root.AddCommand(versionCmd())

	return root
}

// Execute runs the command tree with args and returns the process exit code.
// Errors are printed in red to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// setup binds the running command's flags and loads config file and
// environment overrides.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := a.initConfig(); err != nil {
		return err
	}

	if a.v.GetBool("no-color") {
		color.NoColor = true
	}
	a.logger = logging.New(cmd.ErrOrStderr(), a.v.GetString("log-level"), !color.NoColor)
	return nil
}

// initConfig reads in the config file and environment variables.
func (a *app) initConfig() error {
	if configFile := a.v.GetString("config"); configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		a.v.SetConfigName(".rugged-mysql")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME")
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	// The compiler flag override comes from plain $CFLAGS, as with extconf.rb.
	if err := a.v.BindEnv("cflags", envPrefix+"_CFLAGS", "CFLAGS"); err != nil {
		return fmt.Errorf("error binding CFLAGS: %w", err)
	}

	a.v.SetDefault("variant", "mysql")
	a.v.SetDefault("dialect", "mysql")
	a.v.SetDefault("log-level", "info")

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
