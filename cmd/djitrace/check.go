// check.go implements the 'djitrace check' command.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// runtimeModulePath is the module instrumented projects must require to
// reach the djit runtime.
const runtimeModulePath = "github.com/kolkov/djitrace"

// runtimePackagePath is the import path instrumented code uses.
const runtimePackagePath = "github.com/kolkov/djitrace/djit"

// checkCommand implements the 'djitrace check' command.
//
// Given a directory (default "."), it finds the enclosing go.mod and
// verifies that the module wires the djit runtime: either it requires the
// djitrace module, or it is the djitrace module itself. On failure it
// prints the commands that fix the wiring.
func checkCommand(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	goMod := findGoMod(dir)
	if goMod == "" {
		fmt.Fprintf(os.Stderr, "Error: no go.mod found in or above %s\n", dir)
		os.Exit(1)
	}

	if err := checkGoMod(goMod); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "To wire the runtime:\n")
		fmt.Fprintf(os.Stderr, "    go get %s\n", runtimeModulePath)
		fmt.Fprintf(os.Stderr, "and import %q at the instrumented sites.\n", runtimePackagePath)
		os.Exit(1)
	}

	fmt.Printf("%s: runtime wired (%s)\n", goMod, runtimeModulePath)
}

// findGoMod walks up from dir looking for a go.mod file.
func findGoMod(dir string) string {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		path := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// checkGoMod parses a go.mod and verifies the runtime requirement.
func checkGoMod(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	mf, err := modfile.Parse(path, data, nil)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if mf.Module != nil && mf.Module.Mod.Path == runtimeModulePath {
		return nil
	}
	for _, req := range mf.Require {
		if req.Mod.Path == runtimeModulePath {
			return nil
		}
	}
	return fmt.Errorf("module %s does not require %s",
		moduleName(mf), runtimeModulePath)
}

func moduleName(mf *modfile.File) string {
	if mf.Module == nil {
		return "(unnamed)"
	}
	return mf.Module.Mod.Path
}
