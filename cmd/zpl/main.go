package main

import (
	"log"

	"github.com/katutoshi/zip-partial-loader/internal/cmd"
)

func main() {
	log.SetFlags(log.LstdFlags)

	_, err := cmd.NewParser().Parse()
	exit(err)
}
