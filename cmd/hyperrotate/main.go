// hyperrotate writes standard input to a rotating log file and manages the archives it
// leaves behind.
//
// Usage:
//
//	hyperrotate [global options] <command> [command options]
//
// Commands:
//
//	write    append standard input, line by line, to a rotating log file
//	rotate   archive the current log file now
//	list     list the archives of an identifier, most recent first
//	purge    delete the archives of an identifier, optionally keeping the newest N
//
// Exit codes:
//
//	0: success
//	1: the command failed
//	2: invalid arguments
//
// Examples:
//
//	myservice 2>&1 | hyperrotate write --path /var/log/myservice.log --max-size 10485760
//	hyperrotate write --config /etc/myservice/rotate.yaml --watch
//	hyperrotate list --folder /var/log --identifier myservice
//	hyperrotate purge --folder /var/log --identifier myservice --keep 3
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
)

// Version can be set with -ldflags "-X main.Version=...".
var Version = "0.1.0-dev"

// environment holds what commands read from and write to, so tests can replace it.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	store  attrstore.Store
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &environment{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		store:  attrstore.New(),
	}

	return exitCode(createApp(env).Run(ctx, os.Args), env.stderr)
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) || isCLIUsageError(err) {
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)

		return 2
	}

	fmt.Fprintf(stderr, "error: %v\n", err)

	return 1
}

// isCLIUsageError recognizes the argument errors produced by the cli package itself.
func isCLIUsageError(err error) bool {
	msg := err.Error()

	for _, marker := range []string{
		"flag provided but not defined",
		"Required flag",
		"invalid value",
		"No help topic",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}

func createApp(env *environment) *cli.Command {
	return &cli.Command{
		Name:      "hyperrotate",
		Usage:     "rotating log files with tagged archives",
		Version:   Version,
		Writer:    env.stdout,
		ErrWriter: env.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "namespace",
				Usage: "extended attribute namespace of the archive tags",
				Value: hyperrotate.DefaultAttributeNamespace,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "minimum level of the tool's own events (trace, debug, info, warn, error)",
				Value: "info",
			},
		},
		Commands: createCommands(env),
		ExitErrHandler: func(context.Context, *cli.Command, error) {
			// exit codes are mapped by run
		},
	}
}
