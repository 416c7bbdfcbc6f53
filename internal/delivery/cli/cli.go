// Package cli implements the dutree command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"dutree/internal/application/analysis"
	"dutree/internal/infrastructure/config"
	"dutree/internal/infrastructure/database"
	"dutree/internal/infrastructure/logging"
	"dutree/internal/infrastructure/repository"
)

// errUsage reports a bad invocation; Run exits with status 2 for it
var errUsage = errors.New("usage")

const usageText = `dutree rebuilds a directory tree from a shell transcript and reports on its sizes.

Usage:
  dutree [flags] <command> [args]

Commands:
  analyze FILE|-   build the tree from a transcript and print both queries
  scan DIR         record DIR as a transcript, then analyze it
  serve            run the HTTP API
  reports [-n N]   list stored reports, newest first
  show ID          print one stored report

Flags:
`

type runner struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger

	save bool
	tree bool
}

// Run executes one dutree invocation and returns its exit status. Flags
// override the matching fields of cfg.
func Run(args []string, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) int {
	r := &runner{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}

	fs := flag.NewFlagSet("dutree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Int64Var(&cfg.SizeThreshold, "threshold", cfg.SizeThreshold, "largest directory size summed by the first query")
	fs.Int64Var(&cfg.DeviceCapacity, "capacity", cfg.DeviceCapacity, "total device size")
	fs.Int64Var(&cfg.RequiredFree, "required", cfg.RequiredFree, "free space the second query must reach")
	fs.BoolVar(&r.save, "save", false, "store analyze/scan reports in the database")
	fs.BoolVar(&r.tree, "tree", false, "print the reconstructed tree")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(stderr, "dutree: init logging: %v\n", err)
		return 1
	}
	defer logging.Sync()
	r.log = logging.L()

	if err := cfg.Validate(); err != nil {
		r.log.Error("invalid configuration", logging.Err(err))
		return 2
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	var err error
	switch cmd {
	case "analyze":
		err = r.analyze(rest)
	case "scan":
		err = r.scan(rest)
	case "serve":
		err = r.serve(rest)
	case "reports":
		err = r.reports(rest)
	case "show":
		err = r.show(rest)
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "dutree: %v\n", err)
		fs.Usage()
		return 2
	default:
		r.log.Error("command failed", logging.String("command", cmd), logging.Err(err))
		return 1
	}
}

// openStore opens and migrates the report database
func (r *runner) openStore() (*database.DB, error) {
	db, err := database.New(r.cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newService builds the analysis service, with storage when withStore is set.
// The returned close func is never nil.
func (r *runner) newService(withStore, autoSave bool) (analysis.Service, func(), error) {
	opts := []analysis.Option{
		analysis.WithLogger(r.log),
		analysis.WithMaxLineBytes(r.cfg.MaxLineBytes),
		analysis.WithAutoSave(autoSave),
	}
	if !withStore {
		return analysis.NewService(nil, r.cfg.Params(), opts...), func() {}, nil
	}

	db, err := r.openStore()
	if err != nil {
		return nil, nil, err
	}
	svc := analysis.NewService(repository.NewReportRepository(db), r.cfg.Params(), opts...)
	return svc, func() { db.Close() }, nil
}
