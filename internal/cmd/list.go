package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/katutoshi/zip-partial-loader/codec"
)

type List struct {
	Long bool `short:"l" long:"long" description:"also print sizes, compression method, modification time and local header offset"`
	Args struct {
		Source string `positional-arg-name:"source" description:"the archive as an http(s):// URL, an s3://bucket/key URI or a local path" required:"yes"`
	} `positional-args:"yes"`

	base
}

func (c *List) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %s", strings.Join(args, " "))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	return c.run(ctx)
}

func (c *List) run(ctx context.Context) error {
	if err := c.setup(ctx); err != nil {
		return err
	}

	a, err := c.open(ctx, c.Args.Source, 0)
	if err != nil {
		return err
	}
	defer a.Close()

	if !c.Long {
		for _, name := range a.Names() {
			_, _ = fmt.Fprintln(c.stdout, name)
		}
		return nil
	}

	w := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(w, "COMPRESSED\tSIZE\tMETHOD\tMODIFIED\tOFFSET\t")
	for _, e := range a.Archive().All() {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t %s\n",
			humanize.IBytes(e.CompressedSize64),
			humanize.IBytes(e.UncompressedSize64),
			methodName(e.Method),
			e.Modified.Format(time.DateTime),
			e.LocalHeaderOffset,
			e.Name)
	}

	return w.Flush()
}

func methodName(method uint16) string {
	switch method {
	case 0:
		return "store"
	case 8:
		return "deflate"
	case codec.Bzip2:
		return "bzip2"
	case codec.Zstd:
		return "zstd"
	case codec.Xz:
		return "xz"
	default:
		return fmt.Sprintf("method-%d", method)
	}
}
