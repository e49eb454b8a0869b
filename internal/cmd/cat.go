package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
)

type Cat struct {
	Args struct {
		Source string   `positional-arg-name:"source" description:"the archive as an http(s):// URL, an s3://bucket/key URI or a local path" required:"yes"`
		Names  []string `positional-arg-name:"name" description:"the entries to print in the given order" required:"yes"`
	} `positional-args:"yes"`

	base
}

func (c *Cat) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	return c.run(ctx)
}

func (c *Cat) run(ctx context.Context) error {
	if err := c.setup(ctx); err != nil {
		return err
	}

	a, err := c.open(ctx, c.Args.Source, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, name := range c.Args.Names {
		data, err := a.ReadFile(ctx, name)
		if err != nil {
			return err
		}

		if _, err = c.stdout.Write(data); err != nil {
			return fmt.Errorf("write %q error: %w", name, err)
		}
	}

	return nil
}
