// Command vaultbak is the command-line front end for the incremental
// directory backup archive: build, restore, trim, and inspect a single
// self-contained archive file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/stratts/vaultbak/backup"
	"github.com/stratts/vaultbak/cancel"
	"github.com/stratts/vaultbak/errors"
	"github.com/stratts/vaultbak/logging"
)

func main() {
	log, err := logging.New(logging.DefaultConfig("vaultbak"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "vaultbak: failed to initialize logging:", err)
		os.Exit(backup.ExitFailure)
	}
	defer func() { _ = log.Sync() }()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(backup.ExitFailure)
	}

	ctx, stop := cancel.WithSignals(context.Background())
	defer stop()

	var runErr error
	switch os.Args[1] {
	case "info":
		runErr = runInfo(os.Args[2:])
	case "build":
		runErr = runBuild(ctx, os.Args[2:])
	case "restore":
		runErr = runRestore(ctx, os.Args[2:])
	case "trim":
		runErr = runTrim(ctx, os.Args[2:])
	case "list":
		runErr = runList(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vaultbak: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(backup.ExitFailure)
	}

	if runErr != nil {
		reportAndExit(log, runErr)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  vaultbak info <file>
  vaultbak build <dir> <file>
  vaultbak restore [--ver=ID|--num=N] <dir> <file>
  vaultbak trim [--output=OUT] <num> <file>
  vaultbak list <root> <pattern>`)
}

// runList finds archive files under root matching a recursive glob
// pattern, a convenience for operators managing many archives that is not
// part of the core build/restore/trim contract.
func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("list: expected <root> <pattern>")
	}
	matches, err := backup.Discover(fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Println(m)
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("info: expected a single archive path argument")
	}
	b, err := backup.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Source: %s\n\n", b.Src)
	fmt.Print(b.InfoTable())
	return nil
}

func runBuild(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("build: expected <dir> <file>")
	}
	dir, file := fs.Arg(0), fs.Arg(1)

	b, err := backup.Open(file)
	if err != nil {
		return err
	}
	if err := b.Build(ctx, dir, nil, nil); err != nil {
		return err
	}
	if err := b.Save(); err != nil {
		if berr, ok := err.(*backup.Error); ok && berr.Code == backup.ErrCodeEmptyBuild {
			fmt.Printf("Skipped backup %q (no files to backup)\n", dir)
			return nil
		}
		return err
	}
	fmt.Printf("Backed up %q > %q\n", dir, file)
	return nil
}

func runRestore(ctx context.Context, args []string) error {
	_ = ctx
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	ver := fs.String("ver", "", "restore the version with this id")
	num := fs.Int("num", 0, "restore the version with this ordinal")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("restore: expected <dir> <file>")
	}
	dir, file := fs.Arg(0), fs.Arg(1)

	b, err := backup.Open(file)
	if err != nil {
		return err
	}

	sel := backup.Selector{ID: *ver, Num: *num}
	restoreErr := b.Restore(dir, sel)
	if restoreErr != nil {
		if berr, ok := restoreErr.(*backup.Error); ok && berr.Code == backup.ErrCodeSelectorStale {
			fmt.Fprintln(os.Stderr, berr.Message)
			restoreErr = nil
		}
	}
	if restoreErr == nil {
		fmt.Printf("Restored %q > %q\n", file, dir)
	}
	return restoreErr
}

func runTrim(ctx context.Context, args []string) error {
	_ = ctx
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	output := fs.String("output", "", "write the trimmed archive here instead of replacing the source")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("trim: expected <num> <file>")
	}

	var n int
	if _, err := fmt.Sscanf(fs.Arg(0), "%d", &n); err != nil {
		return fmt.Errorf("trim: invalid version count %q", fs.Arg(0))
	}
	file := fs.Arg(1)

	b, err := backup.Open(file)
	if err != nil {
		return err
	}
	if err := b.TrimToRecent(n, *output); err != nil {
		return err
	}

	dest := file
	if *output != "" {
		dest = *output
	}
	fmt.Printf("Trimmed backup %q to %d most recent version(s)\n", dest, n)
	return nil
}

func reportAndExit(log *logging.Logger, err error) {
	code := backup.ExitFailure
	if berr, ok := err.(*backup.Error); ok {
		code = berr.ExitCode()
		log.Error(berr.Error())
	} else {
		envelope := errors.NewErrorEnvelope("UNHANDLED", err.Error())
		log.Error(envelope.Error())
	}
	os.Exit(code)
}
