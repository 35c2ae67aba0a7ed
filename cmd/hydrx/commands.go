package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hengadev/hydrx"
	"github.com/hengadev/hydrx/internal/discovery"
)

func packagesOrCurrent(packages []string) []string {
	if len(packages) == 0 {
		return []string{"."}
	}
	return packages
}

// PlanCmd lists discovered structs and their keys.
type PlanCmd struct {
	Packages []string `arg:"" optional:"" help:"Package directories to scan (default: current directory)."`
	Tag      string   `help:"Struct tag carrying key overrides (default: from config, then hydrate)."`
	All      bool     `help:"Include structs without hydration tags."`
}

func (c *PlanCmd) Run(cli *CLI, env *Env) error {
	cfg := &discovery.Config{TagName: cli.tagName(c.Tag, env.Logger), All: c.All}

	failed := false
	for _, pkg := range packagesOrCurrent(c.Packages) {
		env.Logger.Debug("scanning package", "package", pkg, "tag", cfg.TagName)

		structs, err := discovery.DiscoverStructs(pkg, cfg)
		if err != nil {
			return err
		}
		for _, s := range structs {
			fmt.Fprintf(env.Out, "%s.%s (%s:%d)\n", s.PackageName, s.StructName, s.SourceFile, s.Line)
			for _, f := range s.Fields {
				switch {
				case !f.IsValid:
					failed = true
					fmt.Fprintf(env.Out, "  ✗ %s: %s\n", f.Path, strings.Join(f.ValidationErrors, "; "))
				case f.Ignored:
					continue
				default:
					fmt.Fprintf(env.Out, "  %s\t%s\t%s\n", f.Key, f.Path, f.Type)
				}
			}
			for _, msg := range s.Errors {
				failed = true
				fmt.Fprintf(env.Out, "  ✗ %s\n", msg)
			}
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

// ValidateCmd checks the configuration file and the tags of every struct.
type ValidateCmd struct {
	Packages []string `arg:"" optional:"" help:"Package directories to scan (default: current directory)."`
	Verbose  bool     `short:"v" help:"Verbose output."`
}

func (c *ValidateCmd) Run(cli *CLI, env *Env) error {
	fmt.Fprintf(env.Out, "Validating configuration at %s...\n", cli.Config)

	cfg, err := hydrx.LoadConfigFile(cli.Config)
	if err != nil {
		return err
	}
	if c.Verbose {
		fmt.Fprintln(env.Out, "✓ Configuration file is valid")
	}

	hasErrors := false
	for _, pkg := range packagesOrCurrent(c.Packages) {
		structs, err := discovery.DiscoverStructs(pkg, &discovery.Config{TagName: cfg.TagName})
		if err != nil {
			fmt.Fprintf(env.Out, "Failed to discover structs in %s: %v\n", pkg, err)
			hasErrors = true
			continue
		}

		if len(structs) == 0 {
			if c.Verbose {
				fmt.Fprintf(env.Out, "  No structs with %s tags found in %s\n", cfg.TagName, pkg)
			}
			continue
		}

		fmt.Fprintf(env.Out, "Found %d structs with %s tags in %s:\n", len(structs), cfg.TagName, pkg)
		for _, s := range structs {
			fmt.Fprintf(env.Out, "  %s (%s)\n", s.StructName, s.SourceFile)
			for _, f := range s.Fields {
				if !f.IsValid {
					for _, msg := range f.ValidationErrors {
						fmt.Fprintf(env.Out, "    ✗ %s.%s: %s\n", s.StructName, f.Path, msg)
					}
				} else if c.Verbose && !f.Ignored {
					fmt.Fprintf(env.Out, "    ✓ %s.%s: %s\n", s.StructName, f.Path, f.Key)
				}
			}
			for _, msg := range s.Errors {
				fmt.Fprintf(env.Out, "    ✗ %s: %s\n", s.StructName, msg)
			}
			if s.Valid() {
				fmt.Fprintln(env.Out, "    ✓ All fields valid")
			} else {
				hasErrors = true
			}
		}
	}

	if hasErrors {
		fmt.Fprintln(env.Out, "\nValidation failed with errors.")
		return errFailed
	}
	fmt.Fprintln(env.Out, "\n✓ All validations passed!")
	return nil
}

// InitCmd writes a default configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file."`
}

func (c *InitCmd) Run(cli *CLI, env *Env) error {
	if !c.Force {
		if _, err := os.Stat(cli.Config); err == nil {
			return fmt.Errorf("configuration file %s already exists, use --force to overwrite", cli.Config)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	fmt.Fprintf(env.Out, "Creating configuration file at %s...\n", cli.Config)
	if err := hydrx.SaveConfigFile(hydrx.DefaultConfig(), cli.Config); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Configuration file created!")
	return nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	fmt.Fprintln(env.Out, hydrx.VersionInfo())
	return nil
}
