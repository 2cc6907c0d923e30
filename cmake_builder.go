package ruggedmysql

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// cmakeBuildDir is the out-of-tree build directory below the CMake project.
const cmakeBuildDir = "build"

// CmakeBuilder builds a CMake project, in practice the libgit2 copy
// vendored in the rugged gem, as a static position-independent library the
// extension can link against.
type CmakeBuilder struct{}

// Name returns the builder name
func (b *CmakeBuilder) Name() string {
	return "CMake"
}

// RequiredTools returns the tools needed for CMake builds
func (b *CmakeBuilder) RequiredTools() []ToolRequirement {
	return []ToolRequirement{
		{Name: cmakeProgram, Purpose: "CMake build system"},
		{Name: "cc", Alternatives: []string{"gcc", "clang"}, Purpose: "C compiler"},
	}
}

// CheckTools verifies that cmake and a compiler are available
func (b *CmakeBuilder) CheckTools() error {
	return CheckRequiredTools(b.RequiredTools())
}

// CanBuild checks if this builder can handle the extension file
func (b *CmakeBuilder) CanBuild(extensionFile string) bool {
	return MatchesPattern(extensionFile, `CMakeLists\.txt$`)
}

// Build configures and compiles the project with cmake
func (b *CmakeBuilder) Build(ctx context.Context, config *BuildConfig, extensionFile string) (*BuildResult, error) {
	result, err := runCommonBuild(ctx, config, extensionFile, CommonBuildSteps{
		ConfigureFunc: b.runCmake,
		BuildFunc:     b.runBuild,
		FindFunc:      b.findBuiltLibraries,
	})
	if err != nil {
		return result, err
	}

	result.Extensions = gemRelative(extensionFile, result.Extensions)
	return result, nil
}

// Clean removes the build directory
func (b *CmakeBuilder) Clean(_ context.Context, config *BuildConfig, extensionFile string) error {
	projectDir := filepath.Dir(filepath.Join(config.GemDir, extensionFile))
	return os.RemoveAll(filepath.Join(projectDir, cmakeBuildDir))
}

// cmakeArgs returns the configure arguments for a static libgit2 build.
func (b *CmakeBuilder) cmakeArgs(config *BuildConfig) []string {
	args := []string{
		"-S", ".",
		"-B", cmakeBuildDir,
		"-DCMAKE_BUILD_TYPE=Release",
		"-DBUILD_SHARED_LIBS=OFF",
		"-DBUILD_TESTS=OFF",
		"-DBUILD_CLI=OFF",
		"-DCMAKE_POSITION_INDEPENDENT_CODE=ON",
	}

	if config.CFlags != "" {
		args = append(args, "-DCMAKE_C_FLAGS="+config.CFlags)
	}
	if config.DestPath != "" {
		args = append(args, "-DCMAKE_INSTALL_PREFIX="+config.DestPath)
	}
	if generator := os.Getenv("CMAKE_GENERATOR"); generator != "" {
		args = append(args, "-G", generator)
	}

	return append(args, config.BuildArgs...)
}

// runCmake executes cmake to configure the build
func (b *CmakeBuilder) runCmake(ctx context.Context, config *BuildConfig, projectDir string, result *BuildResult) error {
	cmakePath, err := FindExecutable(cmakeProgram)
	if err != nil {
		return err
	}

	return b.run(ctx, config, projectDir, result, "CMake", cmakePath, b.cmakeArgs(config)...)
}

// runBuild executes cmake --build
func (b *CmakeBuilder) runBuild(ctx context.Context, config *BuildConfig, projectDir string, result *BuildResult) error {
	cmakePath, err := FindExecutable(cmakeProgram)
	if err != nil {
		return err
	}

	if config.CleanFirst {
		cleanCmd := exec.CommandContext(ctx, cmakePath, "--build", cmakeBuildDir, "--target", "clean")
		cleanCmd.Dir = projectDir
		cleanOutput, _ := cleanCmd.CombinedOutput()
		result.Output = append(result.Output, strings.Split(string(cleanOutput), "\n")...)
	}

	args := []string{"--build", cmakeBuildDir, "--config", "Release"}
	if config.Parallel > 0 {
		args = append(args, "--parallel", fmt.Sprintf("%d", config.Parallel))
	}

	return b.run(ctx, config, projectDir, result, "CMake Build", cmakePath, args...)
}

func (b *CmakeBuilder) run(ctx context.Context, config *BuildConfig, dir string, result *BuildResult, step, program string, args ...string) error {
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir
	cmd.Env = buildEnv(config)

	if config.Verbose {
		result.Output = append(result.Output,
			fmt.Sprintf("Running: %s %s", program, strings.Join(args, " ")),
			fmt.Sprintf("Working directory: %s", dir))
	}

	output, err := cmd.CombinedOutput()
	result.Output = append(result.Output, strings.Split(string(output), "\n")...)
	if err != nil {
		return BuildError(step, result.Output, err)
	}
	return nil
}

// findBuiltLibraries locates the libraries cmake produced
func (b *CmakeBuilder) findBuiltLibraries(projectDir string) ([]string, error) {
	buildDir := filepath.Join(projectDir, cmakeBuildDir)
	libraries, err := findLibraries(buildDir, []string{".", "Release", "lib"}, []string{
		"*.a",
		"*.lib",
		"*.so",
		"*.dylib",
	})
	if err != nil {
		return nil, err
	}

	for i, lib := range libraries {
		libraries[i] = filepath.Join(cmakeBuildDir, lib)
	}
	return libraries, nil
}
