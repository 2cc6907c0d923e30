package ruggedmysql

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const platformWindows = "windows"

// buildEnv returns the process environment extended with config.Env.
func buildEnv(config *BuildConfig) []string {
	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}

// runMake runs make in extensionDir. Installation is done by
// finalizeNativeExtensions, not by make install.
func runMake(ctx context.Context, config *BuildConfig, extensionDir string, result *BuildResult) error {
	makeProgram, err := FindMake()
	if err != nil {
		return err
	}

	args := []string{}
	if config.Parallel > 0 {
		args = append(args, fmt.Sprintf("-j%d", config.Parallel))
	}
	args = append(args, config.BuildArgs...)

	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, makeProgram, "clean")
		cleanCmd.Dir = extensionDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	cmd := exec.CommandContext(ctx, makeProgram, args...)
	cmd.Dir = extensionDir
	cmd.Env = buildEnv(config)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", makeProgram, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", extensionDir))
	}

	output, err := cmd.CombinedOutput()
	result.Output = append(result.Output, strings.Split(string(output), "\n")...)
	if err != nil {
		return BuildError("Make", result.Output, err)
	}

	return nil
}

// runMakeClean runs make clean when a Makefile exists.
func runMakeClean(ctx context.Context, extensionDir string) error {
	if _, err := os.Stat(filepath.Join(extensionDir, makefileName)); os.IsNotExist(err) {
		return nil
	}

	makeProgram, err := FindMake()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, makeProgram, "clean")
	cmd.Dir = extensionDir
	return cmd.Run()
}

// findLibraries globs for compiled libraries under the given subdirectories
// of root and returns paths relative to root.
func findLibraries(root string, subdirs, patterns []string) ([]string, error) {
	var extensions []string

	for _, subdir := range subdirs {
		dir := filepath.Join(root, subdir)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		for _, pattern := range patterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to glob pattern %s in %s: %v", pattern, dir, err)
			}

			for _, match := range matches {
				if relPath, err := filepath.Rel(root, match); err == nil {
					extensions = append(extensions, relPath)
				}
			}
		}
	}

	return extensions, nil
}
