//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

func Build() error {
	mg.Deps(BuildBrowser)
	fmt.Println("Compilation finished")
	return nil
}

// BuildBrowser compiles the waveform browser. HDF5 is linked through
// cgo, so CGO_CFLAGS/CGO_LDFLAGS must point at the HDF5 installation.
func BuildBrowser() error {
	fmt.Println("Building browser executable...")
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", "build", "-o", "./bin/browser", ".")
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Test runs the package tests. Needs the same CGO flags as Build.
func Test() error {
	cmd := exec.Command("go", "test", "./pkg/...")
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", os.Getenv("CGO_LDFLAGS")),
		fmt.Sprintf("CGO_CFLAGS=%s", os.Getenv("CGO_CFLAGS")))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
