//go:build windows

package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

func exit(err error) {
	// need this on window to keep the console open when zpl was started by double-clicking.
	if term.IsTerminal(int(os.Stdin.Fd())) {
		_, _ = fmt.Fprintf(os.Stderr, "Press any key to close console\n")
		_, _, _ = bufio.NewReader(os.Stdin).ReadRune()
	}

	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}
