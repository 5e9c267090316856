//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/sh"
)

// All removes all build artifacts
func (Clean) All() error {
	fmt.Println("Cleaning all build artifacts...")
	return os.RemoveAll("bin")
}

// Coverage removes coverage files
func (Clean) Coverage() error {
	fmt.Println("Cleaning coverage files...")
	for _, file := range []string{"coverage.out", "coverage.html"} {
		if err := sh.Rm(file); err != nil {
			return err
		}
	}
	return nil
}

// Cache removes the hook repository cache ($HOOKRUN_HOME or ~/.cache/hookrun)
func (Clean) Cache() error {
	dir := os.Getenv("HOOKRUN_HOME")
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return err
		}
		dir = cacheDir + "/hookrun"
	}
	fmt.Printf("Removing %s...\n", dir)
	return sh.Rm(dir)
}
