//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Derives and prints the layout plan for the example pipeline.
func (Run) Plan() error {
	fmt.Println("Run planner...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-pipeline", "world"), withStream()); err != nil {
		return err
	}
	return nil
}

// Compiles the example pipeline against a real device.
func (Run) Compiler() error {
	mg.Deps(Build.Shaders)
	fmt.Println("Run compiler...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-pipeline", "world", "-live"), withStream()); err != nil {
		return err
	}
	return nil
}
