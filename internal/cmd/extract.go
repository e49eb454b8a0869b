package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/katutoshi/zip-partial-loader/internal"
)

type Extract struct {
	Dir            string `short:"d" long:"dir" description:"the parent directory of the newly created output directory" default:"."`
	MaxConcurrency int    `short:"P" long:"max-concurrency" description:"fetch up to max-concurrency entries at a time; takes precedence over .zpl setting"`
	Args           struct {
		Source string   `positional-arg-name:"source" description:"the archive as an http(s):// URL, an s3://bucket/key URI or a local path" required:"yes"`
		Names  []string `positional-arg-name:"name" description:"the entries to extract; every entry if not given"`
	} `positional-args:"yes"`

	base
}

func (c *Extract) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	_, err := c.run(ctx)
	return err
}

// run extracts the entries into a new directory under Extract.Dir and returns that directory.
//
// If every entry shares the same top-level directory, that directory becomes the output directory. Otherwise, the
// output directory is named after the archive. Existing directories are never written into; a numeric suffix is added
// instead.
func (c *Extract) run(ctx context.Context) (string, error) {
	if c.MaxConcurrency < 0 {
		return "", fmt.Errorf("max-concurrency must be non-negative")
	}

	if err := c.setup(ctx); err != nil {
		return "", err
	}

	a, err := c.open(ctx, c.Args.Source, c.MaxConcurrency)
	if err != nil {
		return "", err
	}
	defer a.Close()

	names, size, err := c.entries(a)
	if err != nil {
		return "", err
	}

	root := internal.FindZipRootDir(names)
	stem := root.Name()
	if stem == "" {
		stem = internal.StemOf(c.Args.Source)
	}

	output, err := internal.MkExclDir(c.Dir, stem, 0755)
	if err != nil {
		return "", err
	}

	var success atomic.Int32
	bar := internal.DefaultBytes(c.stderr, size, "extracting")
	err = a.ExtractAll(ctx, names, func(name string, data []byte) error {
		if err := c.write(a, output, root, name, data); err != nil {
			internal.NewLogger(c.stderr, slices.Index(names, name), len(names), name).Printf("write error: %v", err)
			return err
		}

		success.Add(1)
		return bar.Add64(int64(len(data)))
	})
	_ = bar.Close()

	if err != nil {
		_ = os.RemoveAll(output)
		c.logger.Printf("extracted %d/%d entries before error", success.Load(), len(names))
		return "", err
	}

	c.logger.Printf(`successfully extracted %d/%d entries to "%s"`, success.Load(), len(names), output)
	return output, nil
}

// entries returns the distinct names to be extracted and their total uncompressed size.
func (c *Extract) entries(a *archive) (names []string, size int64, err error) {
	names = c.Args.Names
	if len(names) == 0 {
		seen := make(map[string]bool)
		for _, e := range a.Archive().All() {
			if !seen[e.Name] {
				seen[e.Name] = true
				names = append(names, e.Name)
			}
		}
	}

	for _, name := range names {
		e, err := a.Archive().Entry(name)
		if err != nil {
			return nil, 0, err
		}

		size += int64(e.UncompressedSize64)
	}

	return names, size, nil
}

func (c *Extract) write(a *archive, output string, root internal.RootDir, name string, data []byte) error {
	if internal.RootDir(name) == root {
		return nil
	}

	path, err := internal.LocalPath(output, root, name)
	if err != nil {
		return err
	}

	e, err := a.Archive().Entry(name)
	if err != nil {
		return err
	}

	if e.IsDir() {
		return os.MkdirAll(path, 0755)
	}

	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	perm := e.Mode().Perm()
	if perm == 0 {
		perm = 0644
	}

	return os.WriteFile(path, data, perm)
}
