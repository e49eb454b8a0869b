package cmd

import (
	"io"
	"os"

	"github.com/jessevdk/go-flags"
)

// Global contains options shared by all commands.
type Global struct {
	Profile           string         `short:"p" long:"profile" description:"the AWS profile to use for s3:// sources; takes precedence over .zpl setting"`
	Config            flags.Filename `long:"config" description:"the configuration file to use instead of the first .zpl found from the working directory upwards" value-name:"FILE"`
	CacheSize         int            `long:"cache" description:"the number of fetched ranges to keep in memory; takes precedence over .zpl setting" default-mask:"128"`
	MaxBytesPerSecond int64          `long:"max-bytes-per-second" description:"limits the number of bytes fetched in one second; the zero-value indicates no limit"`
	ExtendedMethods   bool           `long:"extended-methods" description:"also decompress bzip2 (12), zstd (93) and xz (95) entries"`
	LegacyRangeSize   bool           `long:"legacy-range-size" description:"report entry ranges with an inclusive end one byte short of the next header"`
	Verify            bool           `long:"verify" description:"verify the CRC-32 of every decompressed entry"`
	Verbose           bool           `short:"v" long:"verbose" description:"log fetch progress and every S3 request"`
}

// Zpl holds the global options and every command, which NewParser registers under the names list, range, cat and
// extract.
type Zpl struct {
	Global

	List    List
	Range   Range
	Cat     Cat
	Extract Extract
}

// binder is implemented by all commands via their embedded base.
type binder interface {
	bind(g *Global, stdout, stderr io.Writer)
}

// NewParser returns the go-flags parser for zpl.
//
// Global options are bound to the command right before it starts executing.
func NewParser() *flags.Parser {
	opts := &Zpl{}

	p := flags.NewNamedParser("zpl", flags.Default)
	p.Usage = "[OPTIONS] COMMAND SOURCE [NAME...]"
	if _, err := p.AddGroup("Global Options", "", &opts.Global); err != nil {
		panic(err)
	}
	for _, c := range []struct {
		name, alias, description string
		data                     binder
	}{
		{"list", "ls", "list entries of a ZIP archive in central directory order", &opts.List},
		{"range", "", "print the byte range of the local file header and data of entries", &opts.Range},
		{"cat", "", "write decompressed entries to standard output", &opts.Cat},
		{"extract", "x", "extract entries of a ZIP archive to a new directory", &opts.Extract},
	} {
		cmd, err := p.AddCommand(c.name, c.description, c.description, c.data)
		if err != nil {
			panic(err)
		}
		if c.alias != "" {
			cmd.Aliases = append(cmd.Aliases, c.alias)
		}
	}

	p.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}

		if b, ok := command.(binder); ok {
			b.bind(&opts.Global, os.Stdout, os.Stderr)
		}

		return command.Execute(args)
	}

	return p
}
