package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	ruggedmysql "github.com/contriboss/rugged-mysql-go"
)

// addExtensionFlags registers the flags shared by configure, flags and build.
func addExtensionFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.String("variant", "mysql", fmt.Sprintf("Extension variant: %v", ruggedmysql.VariantNames()))
	fs.String("rugged-dir", "", "Installed rugged gem (located with RubyGems when empty)")
	fs.String("cflags", "", "Compiler flag override placed before the generated flags (default $CFLAGS)")
	fs.String("ldflags", "", "Extra linker flags")
	fs.String("libs", "", "Extra libraries to link")
	fs.String("target", "", "Override the create_makefile target")
	fs.String("generator", "", "Makefile generator: mkmf or native (automatic when empty)")
	fs.String("ruby", "", "Ruby interpreter used for mkmf and gem lookup")
	fs.Bool("require-cmake", false, "Fail when cmake is not installed")
}

func (a *app) variant() (*ruggedmysql.Variant, error) {
	return ruggedmysql.LookupVariant(a.v.GetString("variant"))
}

func (a *app) configurator() (*ruggedmysql.Configurator, error) {
	generator, err := ruggedmysql.LookupGenerator(a.v.GetString("generator"), a.v.GetString("ruby"))
	if err != nil {
		return nil, err
	}
	return &ruggedmysql.Configurator{
		Locator:   &ruggedmysql.GemLocator{RubyPath: a.v.GetString("ruby")},
		Generator: generator,
		Logger:    a.logger,
	}, nil
}

// configureCmd is the extconf.rb replacement.
func (a *app) configureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure [extension-dir]",
		Short: "Assemble compiler flags, check for make and write the Makefile.",
		Long: `Configure an extension directory the way its extconf.rb would.

The flags are assembled from $CFLAGS (or --cflags), the MySQL and rugged
header directories, -g, -O3 unless an optimization level is already set,
and the warning flags. GNU make is required; cmake is optional.`,
		Example: `  # Configure the current directory
  rugged-mysql configure

  # Configure with an explicit rugged checkout
  rugged-mysql configure ext/rugged/mysql --rugged-dir ~/src/rugged`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			variant, err := a.variant()
			if err != nil {
				return err
			}
			configurator, err := a.configurator()
			if err != nil {
				return err
			}

			configuration, err := configurator.Configure(cmd.Context(), ruggedmysql.ConfigureOptions{
				Variant:        variant,
				ExtensionDir:   dir,
				RuggedDir:      a.v.GetString("rugged-dir"),
				CFlagsOverride: a.v.GetString("cflags"),
				LDFlags:        a.v.GetString("ldflags"),
				Libs:           a.v.GetString("libs"),
				Target:         a.v.GetString("target"),
				RequireCMake:   a.v.GetBool("require-cmake"),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if configuration.CMake == "" {
				printNotice(out, "cmake not found")
			}
			printSuccess(out, "creating %s", configuration.MakefilePath)
			return nil
		},
	}
	addExtensionFlags(cmd)
	return cmd
}

// flagsCmd prints the assembled compiler flags without configuring.
func (a *app) flagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Print the compiler flags configure would use.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			variant, err := a.variant()
			if err != nil {
				return err
			}

			ruggedDir := a.v.GetString("rugged-dir")
			if ruggedDir == "" {
				locator := &ruggedmysql.GemLocator{RubyPath: a.v.GetString("ruby")}
				if ruggedDir, err = locator.Find(cmd.Context(), ruggedmysql.RuggedGem); err != nil {
					return err
				}
			}

			flags := ruggedmysql.AssembleCFlags(a.v.GetString("cflags"), variant.HeaderDirs(cmd.Context(), ruggedDir))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), flags.String())
			return err
		},
	}
	addExtensionFlags(cmd)
	return cmd
}
