package ruggedmysql

import (
	"context"
	"path/filepath"
)

// runCommonBuild executes the configure, build and find steps in order.
//
// # Process Flow
//
//  1. Create empty BuildResult
//  2. Calculate extension directory from extensionFile path
//  3. Call ConfigureFunc to prepare the build
//  4. Call BuildFunc to compile the extension
//  5. Call FindFunc to locate compiled files
//  6. Return BuildResult with Success=true
//
// If any step fails, processing stops, result.Error is set and the error is
// returned alongside the partial result. Output collected so far is kept.
func runCommonBuild(ctx context.Context, config *BuildConfig, extensionFile string, steps CommonBuildSteps) (*BuildResult, error) {
	result := &BuildResult{
		Success: false,
		Output:  []string{},
	}

	extensionPath := filepath.Join(config.GemDir, extensionFile)
	extensionDir := filepath.Dir(extensionPath)

	if err := steps.ConfigureFunc(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	if err := steps.BuildFunc(ctx, config, extensionDir, result); err != nil {
		result.Error = err
		return result, err
	}

	extensions, err := steps.FindFunc(extensionDir)
	if err != nil {
		result.Error = err
		return result, err
	}

	result.Extensions = extensions
	result.Success = true
	return result, nil
}
