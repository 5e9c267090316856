//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Lint runs the golangci-lint pinned in go.mod
func (Quality) Lint() error {
	fmt.Println("Running linter...")
	return sh.RunWithV(buildEnv(), "go", "tool", "golangci-lint", "run", "./...")
}

// Format groups imports with the gci settings in .golangci.yml, then runs gofumpt
func (Quality) Format() error {
	fmt.Println("Formatting imports with gci...")
	if err := sh.Run("go", "tool", "golangci-lint", "fmt", "./..."); err != nil {
		return fmt.Errorf("gci failed: %w", err)
	}

	fmt.Println("Formatting code with gofumpt...")
	if err := sh.Run("go", "tool", "gofumpt", "-l", "-w", "."); err != nil {
		return fmt.Errorf("gofumpt failed: %w", err)
	}
	return nil
}

// Vet runs go vet
func (Quality) Vet() error {
	fmt.Println("Running go vet...")
	return sh.RunWith(buildEnv(), "go", "vet", "./...")
}

// All runs all quality checks
func (Quality) All() {
	mg.SerialDeps(Quality.Format, Quality.Vet, Quality.Lint, Test.Unit)
}
