package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-multierror"
)

type Range struct {
	Args struct {
		Source string   `positional-arg-name:"source" description:"the archive as an http(s):// URL, an s3://bucket/key URI or a local path" required:"yes"`
		Names  []string `positional-arg-name:"name" description:"the entries to resolve; every entry if not given"`
	} `positional-args:"yes"`

	base
}

func (c *Range) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	return c.run(ctx)
}

// run prints one line per name in format `[start, end) bytes=start-end name`.
//
// Names that cannot be resolved are logged and skipped, and an error is returned at the end if there was any.
func (c *Range) run(ctx context.Context) error {
	if err := c.setup(ctx); err != nil {
		return err
	}

	a, err := c.open(ctx, c.Args.Source, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	names := c.Args.Names
	if len(names) == 0 {
		names = a.Names()
	}

	var errs *multierror.Error
	for _, name := range names {
		rng, err := a.Archive().RangeOf(name)
		if err != nil {
			c.logger.Printf("%v", err)
			errs = multierror.Append(errs, err)
			continue
		}

		_, _ = fmt.Fprintf(c.stdout, "%s %s %s\n", rng, rng.HTTPHeader(), name)
	}

	if stats := a.Archive().Stats(); stats.RangeFallbacks != 0 {
		c.logger.Printf("%d entries used the central directory offset as the end of their range", stats.RangeFallbacks)
	}

	return errs.ErrorOrNil()
}
