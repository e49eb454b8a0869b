package main

import (
	"errors"

	"github.com/jessevdk/go-flags"
)

// exitCode returns 2 for command line errors and 1 for everything else that failed.
func exitCode(err error) int {
	var flagsErr *flags.Error
	switch {
	case err == nil, flags.WroteHelp(err):
		return 0
	case errors.As(err, &flagsErr):
		return 2
	default:
		return 1
	}
}
