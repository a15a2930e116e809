//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the example shader stages to SPIR-V.
func (Build) Shaders() error {
	if _, err := executeCmd("glslc", withArgs("assets/shaders/world.vert", "-o", "assets/shaders/world.vert.spv"), withStream()); err != nil {
		return err
	}
	if _, err := executeCmd("glslc", withArgs("assets/shaders/world.frag", "-o", "assets/shaders/world.frag.spv"), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the compiler binary.
func (Build) Binary() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/prisma", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs all tests.
func (Build) Test() error {
	if _, err := executeCmd("go", withArgs("test", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs go vet over the module.
func (Build) Vet() error {
	if _, err := executeCmd("go", withArgs("vet", "./..."), withStream()); err != nil {
		return err
	}
	return nil
}
