// Package main runs the set grouper command line: it reads a deck list from a
// file or standard input and prints the cards grouped by set.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/setgrouper/internal/cli"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("setgrouper", pflag.ExitOnError)
	opts, err := cli.ParseOptions(fs, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, opts, cli.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}); err != nil {
		log.Fatalf("setgrouper: %v", err)
	}
}
