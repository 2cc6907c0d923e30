//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "bin/rugged-mysql"

var Default = Build

// Build compiles the rugged-mysql command.
func Build() error {
	if err := os.MkdirAll("bin", 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-o", binary, "./cmd/rugged-mysql")
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "./...")
}

// Integration runs the MySQL backend tests against a testcontainers MySQL.
// Docker must be available.
func Integration() error {
	return sh.RunV("go", "test", "-tags", "database", "-run", "MySQL", "./backend/...")
}

// Install copies the command into $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	return sh.Copy(fmt.Sprintf("%s/bin/rugged-mysql", gopath), binary)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm("bin")
}
