package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	ruggedmysql "github.com/contriboss/rugged-mysql-go"
)

// extensionGlobs find build files below a gem root when none are named.
var extensionGlobs = []string{
	"ext/*/extconf.rb",
	"ext/*/*/extconf.rb",
}

func (a *app) buildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [gem-dir] [extension-file...]",
		Short: "Configure, compile and install extensions.",
		Long: `Build the native extensions of a gem.

Without extension files, every ext/**/extconf.rb up to two levels deep is
built. Paths are relative to the gem directory. vendor/libgit2/CMakeLists.txt
builds the vendored libgit2 with cmake.`,
		Example: `  rugged-mysql build . ext/rugged/mysql/extconf.rb --jobs 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			gemDir := "."
			if len(args) > 0 {
				gemDir = args[0]
			}
			gemDir, err := filepath.Abs(gemDir)
			if err != nil {
				return err
			}

			extensions := args[min(len(args), 1):]
			if len(extensions) == 0 {
				if extensions, err = discoverExtensions(gemDir); err != nil {
					return err
				}
				if len(extensions) == 0 {
					return fmt.Errorf("no extconf.rb found under %s", filepath.Join(gemDir, "ext"))
				}
			}

			config, err := a.buildConfig(gemDir)
			if err != nil {
				return err
			}
			configurator, err := a.configurator()
			if err != nil {
				return err
			}

			factory := ruggedmysql.NewBuilderFactoryWith(configurator)
			results, buildErr := factory.BuildAllExtensions(cmd.Context(), config, extensions)

			out := cmd.OutOrStdout()
			for _, result := range results {
				if config.Verbose {
					for _, line := range result.Output {
						if line != "" {
							_, _ = fmt.Fprintln(out, line)
						}
					}
				}
				for _, ext := range result.Extensions {
					printSuccess(out, "built %s", ext)
				}
			}
			return buildErr
		},
	}

	addExtensionFlags(cmd)
	cmd.Flags().String("dest", "", "Destination directory for compiled extensions")
	cmd.Flags().String("lib-dir", "", "Lib directory for compiled extensions (default <gem>/lib)")
	cmd.Flags().String("ruby-version", "", "Ruby version, enables lib/<major.minor> installs for 3.4+")
	cmd.Flags().IntP("jobs", "j", 0, "Parallel make jobs")
	cmd.Flags().Bool("clean", false, "Run the clean target before building")
	cmd.Flags().BoolP("verbose", "v", false, "Print build output")
	cmd.Flags().Bool("stop-on-failure", false, "Stop after the first failed extension")
	return cmd
}

func (a *app) buildConfig(gemDir string) (*ruggedmysql.BuildConfig, error) {
	variant, err := a.variant()
	if err != nil {
		return nil, err
	}

	return &ruggedmysql.BuildConfig{
		GemDir:        gemDir,
		DestPath:      a.v.GetString("dest"),
		LibDir:        a.v.GetString("lib-dir"),
		RuggedDir:     a.v.GetString("rugged-dir"),
		Variant:       variant,
		Target:        a.v.GetString("target"),
		CFlags:        a.v.GetString("cflags"),
		LDFlags:       a.v.GetString("ldflags"),
		Libs:          a.v.GetString("libs"),
		RubyVersion:   a.v.GetString("ruby-version"),
		RubyPath:      a.v.GetString("ruby"),
		Verbose:       a.v.GetBool("verbose"),
		CleanFirst:    a.v.GetBool("clean"),
		Parallel:      a.v.GetInt("jobs"),
		RequireCMake:  a.v.GetBool("require-cmake"),
		StopOnFailure: a.v.GetBool("stop-on-failure"),
	}, nil
}

// discoverExtensions returns the extconf.rb files below gemDir, relative to
// it and sorted.
func discoverExtensions(gemDir string) ([]string, error) {
	var found []string
	for _, pattern := range extensionGlobs {
		matches, err := filepath.Glob(filepath.Join(gemDir, pattern))
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			rel, err := filepath.Rel(gemDir, match)
			if err != nil {
				return nil, err
			}
			found = append(found, filepath.ToSlash(rel))
		}
	}
	sort.Strings(found)
	return found, nil
}
