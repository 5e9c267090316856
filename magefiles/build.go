//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/sh"
)

const (
	binaryPath = "bin/hookrun"
	mainPkg    = "./cmd/hookrun"
)

// Binary builds the main binary
func (Build) Binary() error {
	fmt.Println("Building hookrun...")
	return sh.RunWith(buildEnv(), "go", "build", "-ldflags", ldflags(), "-o", binaryPath, mainPkg)
}

// Install installs the binary to $GOPATH/bin
func (Build) Install() error {
	fmt.Println("Installing hookrun...")
	return sh.RunWith(buildEnv(), "go", "install", "-ldflags", ldflags(), mainPkg)
}

// Debug builds with debug flags
func (Build) Debug() error {
	fmt.Println("Building hookrun with debug flags...")
	return sh.RunWith(buildEnv(), "go", "build", "-gcflags", "all=-N -l", "-o", binaryPath+"-debug", mainPkg)
}

// buildEnv enables cgo, which the sqlite clone index needs
func buildEnv() map[string]string {
	return map[string]string{"CGO_ENABLED": "1"}
}
