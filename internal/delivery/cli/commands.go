package cli

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"dutree/internal/domain/fstree"
	"dutree/internal/domain/report"
	"dutree/internal/infrastructure/logging"
	"dutree/internal/infrastructure/repository"
	"dutree/internal/infrastructure/transcript"
)

func (r *runner) analyze(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: analyze takes one transcript path or -", errUsage)
	}
	path := args[0]

	in, name := r.stdin, "stdin"
	if path != "-" {
		f, err := transcript.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in, name = f, filepath.Base(path)
	}
	return r.analyzeSource(name, transcript.NewScannerSource(in, r.cfg.MaxLineBytes))
}

func (r *runner) scan(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: scan takes one directory", errUsage)
	}
	dir := args[0]

	rec, err := repository.NewFilesystemRecorder(dir, r.cfg.ScanExclude).Record("")
	if err != nil {
		return err
	}
	for _, p := range rec.Skipped {
		r.log.Warn("entry skipped, name contains whitespace", logging.String("path", p))
	}
	r.log.Debug("directory recorded", logging.String("dir", dir), logging.Int("lines", len(rec.Source.Lines())))

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return r.analyzeSource(abs, rec.Source)
}

func (r *runner) analyzeSource(name string, src transcript.Source[string]) error {
	svc, closeStore, err := r.newService(r.save, r.save)
	if err != nil {
		return err
	}
	defer closeStore()

	rep, root, err := svc.AnalyzeTree(name, src)
	if err != nil {
		return err
	}

	if r.tree {
		if err := printTree(r.stdout, root); err != nil {
			return err
		}
		fmt.Fprintln(r.stdout)
	}
	return printReport(r.stdout, rep)
}

func (r *runner) reports(args []string) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	limit := fs.Int("n", 20, "number of reports to list")
	digest := fs.String("digest", "", "only list reports of this transcript digest")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("%w: reports takes no arguments", errUsage)
	}

	svc, closeStore, err := r.newService(true, false)
	if err != nil {
		return err
	}
	defer closeStore()

	var reports []*report.Report
	if *digest != "" {
		reports, err = svc.ReportsByDigest(*digest)
	} else {
		reports, err = svc.ListReports(*limit)
	}
	if err != nil {
		return err
	}
	return printReportList(r.stdout, reports)
}

func (r *runner) show(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show takes one report ID", errUsage)
	}

	svc, closeStore, err := r.newService(true, false)
	if err != nil {
		return err
	}
	defer closeStore()

	rep, err := svc.GetReport(args[0])
	if err != nil {
		return fmt.Errorf("report %s: %w", args[0], err)
	}
	return printReport(r.stdout, rep)
}

// printTree writes one line per entry, indented by depth.
func printTree(w io.Writer, root *fstree.Directory) error {
	return root.Walk(func(e fstree.Entry, depth int) error {
		_, err := fmt.Fprintf(w, "%*s- %s (%s, size=%d)\n", depth*2, "", e.Name(), e.Kind(), e.Size())
		return err
	})
}
