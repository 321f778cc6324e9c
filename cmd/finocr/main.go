package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"finocr/pkg/config"
	"finocr/pkg/logger"
)

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"login":      {"login -email EMAIL -password PASSWORD", "sign in and store the session", runLogin},
	"register":   {"register -username NAME -email EMAIL -password PASSWORD", "create an account and sign in", runRegister},
	"logout":     {"logout", "forget the stored session", runLogout},
	"whoami":     {"whoami", "show the signed-in user", runWhoami},
	"upload":     {"upload FILE...", "upload PDFs and images for processing", runUpload},
	"queue":      {"queue [-watch] [-once]", "show the processing queue", runQueue},
	"show":       {"show DOCUMENT_ID", "show extracted line items", runShow},
	"status":     {"status DOCUMENT_ID", "show a document's processing status", runStatus},
	"export":     {"export [-format txt|json|csv] [-out DIR] DOCUMENT_ID", "write the extraction to a file", runExport},
	"copy":       {"copy DOCUMENT_ID", "print the extraction in clipboard form", runCopy},
	"users":      {"users", "list accounts (admin)", runUsers},
	"deactivate": {"deactivate [-yes] USER_ID", "deactivate an account (admin)", runDeactivate},
}

// usageError marks bad invocations, which exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	if len(argv) < 1 || argv[0] == "-h" || argv[0] == "help" {
		printUsage()
		return 2
	}

	name := argv[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "finocr: unknown command %q\n", name)
		printUsage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "finocr: failed to load config: %v\n", err)
		return 1
	}
	// the CLI stays quiet unless a level is asked for
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.Logger.Level = "warn"
	}
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "finocr: failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger.Get(), os.Stdin, os.Stdout)
	defer a.Close()

	err = cmd.run(ctx, a, argv[1:])
	if err == nil {
		return 0
	}

	var uerr *usageError
	switch {
	case errors.Is(err, flag.ErrHelp):
		fmt.Fprintf(os.Stderr, "Usage: finocr %s\n", cmd.usage)
		return 2
	case errors.As(err, &uerr):
		fmt.Fprintf(os.Stderr, "finocr %s: %v\nUsage: finocr %s\n", name, err, cmd.usage)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "finocr %s: %v\n", name, err)
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: finocr <command> [flags]")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", name, commands[name].summary)
	}
}
