//go:build mage
// +build mage

package main

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Unit runs the unit tests with the race detector
func (Test) Unit() error {
	fmt.Println("Running unit tests...")
	return sh.RunWithV(buildEnv(), "go", "test", "-race", "-p", strconv.Itoa(runtime.NumCPU()), "./...")
}

// Short runs the tests without the race detector or slow cases
func (Test) Short() error {
	fmt.Println("Running short tests...")
	return sh.RunWithV(buildEnv(), "go", "test", "-short", "./...")
}

// Single runs the tests matching a pattern
func (Test) Single(pattern string) error {
	fmt.Printf("Running tests matching %q...\n", pattern)
	return sh.RunWithV(buildEnv(), "go", "test", "-race", "-run", pattern, "./...")
}

// Coverage writes coverage.out and prints the per-function summary
func (Test) Coverage() error {
	fmt.Println("Running tests with coverage...")
	if err := sh.RunWithV(buildEnv(), "go", "test", "-coverprofile=coverage.out", "-covermode=atomic", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// CoverageHTML renders coverage.out as HTML
func (Test) CoverageHTML() error {
	mg.Deps(Test.Coverage)
	return sh.Run("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html")
}

// Benchmark runs the benchmarks
func (Test) Benchmark() error {
	return sh.RunWithV(buildEnv(), "go", "test", "-run", "^$", "-bench", ".", "-benchmem", "./...")
}
