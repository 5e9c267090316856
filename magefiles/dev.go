//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Run builds the binary and runs it against this repository's config
func (Dev) Run() error {
	mg.Deps(Build.Binary)
	return sh.RunV("./"+binaryPath, "run", "--all-files", "-v")
}

// Tidy runs go mod tidy
func (Dev) Tidy() error {
	fmt.Println("Tidying dependencies...")
	return sh.Run("go", "mod", "tidy")
}
