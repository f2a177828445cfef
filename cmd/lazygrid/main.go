package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/rebeliceyang/lazygrid/internal/app"
	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

func main() {
	os.Exit(lazygrid(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// lazygrid runs the command and returns the process exit code. Deferred
// cleanup (the log file) runs before main exits.
func lazygrid(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("lazygrid", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.StringP("config", "c", "", "config file (default: <user config>/lazygrid/config.yaml)")
	printMode := flags.Bool("print", false, "print the processed grid and exit")
	width := flags.Int("width", 0, "line width for --print (0: no limit)")
	storePassword := flags.Bool("store-password", false, "read the PostgreSQL password from stdin into the system keyring and exit")

	flags.String("primary-key", "", "primary key field")
	flags.String("foreign-key", "", "parent key field")
	flags.String("child-data-key", "", "field holding nested child rows")
	flags.Int("expansion-depth", -1, "levels expanded by default (-1: all)")
	flags.String("source", config.SourceFile, "source type: file, sqlite or postgres")
	flags.StringP("path", "p", "", "source file or SQLite database")
	flags.String("table", "", "table of a SQL source")
	flags.StringP("filter", "f", "", "YAML filter tree file")
	flags.String("export", "", "export the processed rows to this directory and exit")
	flags.StringSlice("format", []string{"csv"}, "export formats: csv, json, msgpack")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("theme", "default", "color theme")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configFile, flags)
	if err != nil {
		fmt.Fprintf(stderr, "Could not load config: %v\n", err)
		return 1
	}

	exportMode := flags.Changed("export")
	interactive := !*printMode && !exportMode && !*storePassword
	logger, closeLog, err := newLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintf(stderr, "Could not open log: %v\n", err)
		return 1
	}
	defer closeLog()

	fail := func(msg string, err error) int {
		logger.Error(msg, "error", err)
		fmt.Fprintf(stderr, "%s: %v\n", msg, err)
		return 1
	}

	if *storePassword {
		if err := savePassword(cfg, stdin, stderr); err != nil {
			return fail("Could not store password", err)
		}
		fmt.Fprintln(stdout, "Password stored in the system keyring")
		return 0
	}

	if err := cfg.Validate(); err != nil {
		return fail("Invalid configuration", err)
	}

	if err := run(cfg, logger, stdout, exportMode, *printMode, *width); err != nil {
		return fail("lazygrid failed", err)
	}
	return 0
}

func run(cfg *config.Config, logger *slog.Logger, stdout io.Writer, exportMode, printMode bool, width int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	session, err := app.NewSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	switch {
	case exportMode:
		if err := session.Load(ctx); err != nil {
			return err
		}
		paths, err := session.Export(ctx, cfg.Export.Dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(stdout, p)
		}
		return nil

	case printMode:
		if err := session.Load(ctx); err != nil {
			return err
		}
		return app.Print(session, stdout, width)

	default:
		return app.Run(session, tea.WithAltScreen())
	}
}

// newLogger builds the slog logger from the log section. The TUI owns the
// terminal, so it logs to log.file or nowhere.
func newLogger(cfg *config.Config, interactive bool) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stderr
	closeFn := func() {}

	switch {
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case interactive:
		out = io.Discard
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}
	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}

func savePassword(cfg *config.Config, in io.Reader, prompt io.Writer) error {
	if cfg.Source.Type != config.SourcePostgres {
		return fmt.Errorf("%w: --store-password needs a postgres source", config.ErrInvalidConfig)
	}

	pg := app.PostgresConfig(cfg)
	fmt.Fprintf(prompt, "Password for %s: ", source.Account(pg))

	password, err := readPassword(in, prompt)
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("empty password")
	}

	return source.NewPasswordStore().Set(pg, password)
}

// readPassword reads without echo from a terminal, or one line from
// piped input
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
