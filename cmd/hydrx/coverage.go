package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hengadev/hydrx/internal/discovery"
	s3bucket "github.com/hengadev/hydrx/providers/s3"
	"github.com/hengadev/hydrx/providers/table"
	"github.com/hengadev/hydrx/providers/xlsx"
)

// CoverageCmd compares the keys of one struct with the header of a source.
type CoverageCmd struct {
	Type    string `required:"" help:"Struct type name."`
	Source  string `required:"" help:"Source: a .csv or .xlsx file, or s3://bucket/key."`
	Sheet   string `help:"Worksheet for XLSX sources (default: first sheet)."`
	Tag     string `help:"Struct tag carrying key overrides (default: from config, then hydrate)."`
	Strict  bool   `help:"Fail when keys are missing from the source."`
	Package string `arg:"" optional:"" default:"." help:"Package directory declaring the type." type:"path"`
}

func (c *CoverageCmd) Run(cli *CLI, env *Env) error {
	info, err := discovery.FindStruct(c.Package, c.Type, &discovery.Config{TagName: cli.tagName(c.Tag, env.Logger)})
	if err != nil {
		return err
	}
	if !info.Valid() {
		return fmt.Errorf("struct %s has invalid tags, run hydrx plan for details", c.Type)
	}

	t, err := c.load(env)
	if err != nil {
		return err
	}

	cov := table.Compare(info.Keys(), t.Columns())
	env.Logger.Debug("compared source", "source", c.Source, "rows", t.Len(), "missing", len(cov.Missing), "unused", len(cov.Unused))

	fmt.Fprintf(env.Out, "%s against %s (%d rows)\n", c.Type, c.Source, t.Len())
	for _, k := range cov.Missing {
		fmt.Fprintf(env.Out, "  missing: %s\n", k)
	}
	for _, col := range cov.Unused {
		fmt.Fprintf(env.Out, "  unused:  %s\n", col)
	}
	if cov.Complete() {
		fmt.Fprintln(env.Out, "✓ Every key has a column")
		return nil
	}
	if c.Strict {
		return errFailed
	}
	return nil
}

func (c *CoverageCmd) load(env *Env) (*table.Table, error) {
	if strings.HasPrefix(c.Source, "s3://") {
		bucket, key, err := s3bucket.ParseURI(c.Source)
		if err != nil {
			return nil, err
		}
		client, err := env.s3Client(env.Ctx)
		if err != nil {
			return nil, err
		}
		return s3bucket.New(client, bucket, s3bucket.WithSheet(c.Sheet)).Load(env.Ctx, key)
	}

	if strings.EqualFold(filepath.Ext(c.Source), ".xlsx") {
		return xlsx.ReadFile(c.Source, c.Sheet)
	}

	f, err := os.Open(c.Source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.FromCSV(f, nil)
}

func (e *Env) s3Client(ctx context.Context) (s3bucket.AWSS3Downloader, error) {
	if e.S3 != nil {
		return e.S3, nil
	}
	client, err := s3bucket.NewClientFromDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}
