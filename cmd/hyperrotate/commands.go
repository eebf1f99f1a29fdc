package main

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hyp3rd/hyperrotate"
	"github.com/hyp3rd/hyperrotate/internal/output"
	"github.com/hyp3rd/hyperrotate/pkg/attrstore"
	"github.com/hyp3rd/hyperrotate/pkg/configloader"
	"github.com/hyp3rd/hyperrotate/pkg/metalog"
	"github.com/hyp3rd/hyperrotate/pkg/rotating"
)

const maxLineSize = 1 << 20

// usageError reports invalid arguments; run maps it to exit code 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func createCommands(env *environment) []*cli.Command {
	return []*cli.Command{
		createWriteCommand(env),
		createRotateCommand(env),
		createListCommand(env),
		createPurgeCommand(env),
	}
}

func sinkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "current log file"},
		&cli.StringFlag{Name: "identifier", Aliases: []string{"i"}, Usage: "owner tag of the archives (default: file base name)"},
		&cli.StringFlag{Name: "archive-folder", Usage: "folder archives are moved to (default: folder of --path)"},
		&cli.Uint64Flag{Name: "max-size", Usage: "size in bytes that triggers rotation, 0 for unbounded"},
		&cli.DurationFlag{Name: "max-age", Usage: "age that triggers rotation, 0 to disable"},
		&cli.IntFlag{Name: "max-archives", Usage: "number of archives kept"},
		&cli.BoolFlag{Name: "append", Usage: "keep the content of an existing log file"},
	}
}

func createWriteCommand(env *environment) *cli.Command {
	flags := append(sinkFlags(),
		&cli.BoolFlag{Name: "watch", Usage: "apply threshold changes of --config while running"},
		&cli.BoolFlag{Name: "tee", Usage: "copy every line to standard output"},
	)

	return &cli.Command{
		Name:      "write",
		Aliases:   []string{"w"},
		Usage:     "append standard input, line by line, to a rotating log file",
		ArgsUsage: " ",
		Flags:     flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdWrite(ctx, cmd, env)
		},
	}
}

func createRotateCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "rotate",
		Usage: "archive the current log file now",
		Flags: sinkFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRotate(ctx, cmd, env)
		},
	}
}

func archiveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "folder", Aliases: []string{"f"}, Usage: "archive folder", Required: true},
		&cli.StringFlag{Name: "identifier", Aliases: []string{"i"}, Usage: "owner tag of the archives", Required: true},
	}
}

func createListCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "list the archives of an identifier, most recent first",
		Flags:   archiveFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdList(ctx, cmd, env)
		},
	}
}

func createPurgeCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "delete the archives of an identifier",
		Flags: append(archiveFlags(),
			&cli.IntFlag{Name: "keep", Usage: "number of most recent archives to keep"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdPurge(ctx, cmd, env)
		},
	}
}

func cmdWrite(ctx context.Context, cmd *cli.Command, env *environment) error {
	cfg, err := buildConfig(cmd, env)
	if err != nil {
		return err
	}

	watch := cmd.Bool("watch")
	if watch {
		if cmd.String("config") == "" {
			return usagef("--watch requires --config")
		}

		cfg.Queue.Enabled = true
	}

	sink, err := rotating.New(*cfg, rotating.WithStore(env.store))
	if err != nil {
		return err
	}

	if watch {
		watcher, watchErr := configloader.Watch(cmd.String("config"), sink, configloader.WithEvents(cfg.Events))
		if watchErr != nil {
			return joinClose(watchErr, sink)
		}

		defer func() {
			_ = watcher.Close()
		}()
	}

	var destination output.Writer = sink

	if cmd.Bool("tee") {
		multi, multiErr := output.NewMultiWriter(sink, output.NewWriterAdapter(env.stdout))
		if multiErr != nil {
			return joinClose(multiErr, sink)
		}

		destination = multi
	}

	err = copyLines(ctx, env, destination)

	return joinClose(err, sink)
}

func copyLines(ctx context.Context, env *environment, destination output.Writer) error {
	scanner := bufio.NewScanner(env.stdin)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		text := scanner.Bytes()
		line := make([]byte, 0, len(text)+1)
		line = append(append(line, text...), '\n')

		_, err := destination.Write(line)
		if err != nil {
			return err
		}
	}

	return scanner.Err()
}

func cmdRotate(_ context.Context, cmd *cli.Command, env *environment) error {
	cfg, err := buildConfig(cmd, env)
	if err != nil {
		return err
	}

	cfg.ShouldAppend = true
	cfg.AppendMarker = nil

	sink, err := rotating.New(*cfg, rotating.WithStore(env.store))
	if err != nil {
		return err
	}

	err = sink.Rotate()
	if err != nil {
		return joinClose(err, sink)
	}

	records, err := sink.ArchivedFiles()
	if err == nil && len(records) > 0 {
		fmt.Fprintf(env.stdout, "archived\t%s\n", records[0].Path)
	}

	return joinClose(err, sink)
}

func cmdList(_ context.Context, cmd *cli.Command, env *environment) error {
	retention := rotating.NewRetention(env.store, attrstore.KeysFor(cmd.String("namespace")), consoleEvents(cmd, env))

	records, err := retention.ListArchived(cmd.String("folder"), cmd.String("identifier"))
	if err != nil {
		return err
	}

	for _, record := range records {
		archivedAt := record.ArchivedAt

		if at, parseErr := rotating.ParseTimestamp(record.ArchivedAt); parseErr == nil {
			archivedAt = at.UTC().Format(time.RFC3339)
		}

		fmt.Fprintf(env.stdout, "%s\t%s\n", archivedAt, record.Path)
	}

	return nil
}

func cmdPurge(_ context.Context, cmd *cli.Command, env *environment) error {
	keep := cmd.Int("keep")
	if keep < 0 || keep > 255 {
		return usagef("--keep must be between 0 and 255, got %d", keep)
	}

	retention := rotating.NewRetention(env.store, attrstore.KeysFor(cmd.String("namespace")), consoleEvents(cmd, env))

	deleted := 0
	retention.OnDelete = func(path string, err error) {
		if err == nil {
			deleted++

			fmt.Fprintf(env.stdout, "deleted\t%s\n", path)
		}
	}

	err := retention.Cleanup(cmd.String("folder"), cmd.String("identifier"), uint8(keep))

	fmt.Fprintf(env.stdout, "%d archived files deleted\n", deleted)

	return err
}

// buildConfig reads --config when given and applies the command line flags on top.
func buildConfig(cmd *cli.Command, env *environment) (*hyperrotate.Config, error) {
	cfg := hyperrotate.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := configloader.FromFile(path)
		if err != nil {
			return nil, err
		}

		cfg = *loaded
	}

	if cmd.IsSet("path") {
		cfg.Path = cmd.String("path")
	}

	if cfg.Path == "" {
		return nil, usagef("a log file is required: set --path or path in --config")
	}

	if cmd.IsSet("identifier") {
		cfg.Identifier = cmd.String("identifier")
	}

	if cmd.IsSet("archive-folder") {
		cfg.ArchiveFolder = cmd.String("archive-folder")
	}

	if cmd.IsSet("max-size") {
		cfg.MaxFileSize = cmd.Uint64("max-size")
	}

	if cmd.IsSet("max-age") {
		cfg.MaxAge = cmd.Duration("max-age")
	}

	if cmd.IsSet("max-archives") {
		count := cmd.Int("max-archives")
		if count < 0 || count > 255 {
			return nil, usagef("--max-archives must be between 0 and 255, got %d", count)
		}

		cfg.MaxArchiveCount = uint8(count)
	}

	if cmd.IsSet("append") {
		cfg.ShouldAppend = cmd.Bool("append")
	}

	if cmd.IsSet("namespace") {
		cfg.AttributeNamespace = cmd.String("namespace")
	}

	cfg.Events = consoleEvents(cmd, env)

	return &cfg, nil
}

func consoleEvents(cmd *cli.Command, env *environment) hyperrotate.EventSink {
	level, err := hyperrotate.ParseLevel(cmd.String("log-level"))
	if err != nil {
		level = hyperrotate.InfoLevel
	}

	return metalog.NewConsole(env.stderr, metalog.ColorAuto, level)
}

func joinClose(err error, sink *rotating.Sink) error {
	closeErr := sink.Close()
	if err != nil {
		return err
	}

	return closeErr
}
