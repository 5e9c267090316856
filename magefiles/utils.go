//go:build mage
// +build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

// Version displays the version stamped into builds
func Version() {
	fmt.Println("Version:", version())
}

func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "dev"
	}
	return strings.TrimSpace(out)
}

func commit() string {
	out, err := sh.Output("git", "rev-parse", "--short", "HEAD")
	if err != nil {
		return "none"
	}
	return strings.TrimSpace(out)
}

func ldflags() string {
	return fmt.Sprintf("-s -w -X main.version=%s -X main.commit=%s", version(), commit())
}
