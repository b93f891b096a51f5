package main

import (
	"errors"
	"log"

	"github.com/jessevdk/go-flags"
	"github.com/nguyengg/walgrep/internal/cmd"
)

func main() {
	p, err := cmd.NewParser()
	if err != nil {
		log.Fatalf("create parser error: %v", err)
	}

	_, err = p.Parse()
	exit(err)
}

// exitCode is 0 on success or help, 2 for command-line usage errors, and 1 for everything else such as a failed
// search.
func exitCode(err error) int {
	var flagsErr *flags.Error

	switch {
	case err == nil || flags.WroteHelp(err):
		return 0
	case errors.As(err, &flagsErr):
		return 2
	default:
		return 1
	}
}
