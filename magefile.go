//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "lanote"

var Default = Build

// Build compiles the lanote binary.
func Build() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/lanote")
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Install builds and copies the binary to ~/go/bin.
func Install() error {
	mg.Deps(Build)

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dest := fmt.Sprintf("%s/go/bin/%s", home, binary)
	if err := os.MkdirAll(home+"/go/bin", 0755); err != nil {
		return err
	}
	return sh.Copy(dest, binary)
}

// Clean removes the built binary.
func Clean() error {
	return sh.Rm(binary)
}
