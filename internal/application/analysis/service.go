package analysis

import (
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"dutree/internal/application/builder"
	"dutree/internal/domain/fstree"
	"dutree/internal/domain/report"
	"dutree/internal/infrastructure/metrics"
	"dutree/internal/infrastructure/transcript"
)

// ErrStorageDisabled is returned by report operations when the service
// was created without a repository
var ErrStorageDisabled = errors.New("report storage is not configured")

// defaultName labels transcripts analyzed without a name
const defaultName = "transcript"

// Service defines the business logic for transcript analysis
type Service interface {
	Analyze(name string, r io.Reader) (*report.Report, error)
	AnalyzeSource(name string, src transcript.Source[string]) (*report.Report, error)
	AnalyzeTree(name string, src transcript.Source[string]) (*report.Report, *fstree.Directory, error)
	Save(rep *report.Report) error
	GetReport(id string) (*report.Report, error)
	ListReports(limit int) ([]*report.Report, error)
	ReportsByDigest(digest string) ([]*report.Report, error)
	DeleteReport(id string) error
	Params() Params
}

// Option configures the service
type Option func(*service)

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) Option {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithAutoSave stores every successful report in the repository
func WithAutoSave(on bool) Option {
	return func(s *service) { s.autoSave = on }
}

// WithMaxLineBytes caps the length of a single transcript line
func WithMaxLineBytes(n int) Option {
	return func(s *service) { s.maxLine = n }
}

type service struct {
	repo     report.Repository
	params   Params
	log      *zap.Logger
	autoSave bool
	maxLine  int
	now      func() time.Time
}

// NewService creates a new analysis service. repo may be nil, in which case
// reports are computed but cannot be stored or looked up.
func NewService(repo report.Repository, params Params, opts ...Option) Service {
	s := &service{
		repo:   repo,
		params: params,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Params() Params { return s.params }

func (s *service) Analyze(name string, r io.Reader) (*report.Report, error) {
	return s.AnalyzeSource(name, transcript.NewScannerSource(r, s.maxLine))
}

func (s *service) AnalyzeSource(name string, src transcript.Source[string]) (*report.Report, error) {
	rep, _, err := s.AnalyzeTree(name, src)
	return rep, err
}

// AnalyzeTree builds the tree once, runs both queries over it and returns
// the report along with the tree.
func (s *service) AnalyzeTree(name string, src transcript.Source[string]) (*report.Report, *fstree.Directory, error) {
	if name == "" {
		name = defaultName
	}
	log := s.log.With(zap.String("transcript", name))

	ds := &digestSource{src: src, h: newDigest()}
	b := builder.New(builder.WithLogger(log))

	start := time.Now()
	root, err := b.Build(ds)
	stats := b.Stats()
	if err != nil {
		metrics.RecordBuild(time.Since(start), stats.Lines, 0, false)
		log.Warn("transcript rejected", zap.Error(err))
		return nil, nil, err
	}
	dirs, files := root.Counts()
	metrics.RecordBuild(time.Since(start), stats.Lines, dirs+files, true)

	rep := &report.Report{
		Name:      name,
		Digest:    hex.EncodeToString(ds.h.Sum(nil)),
		CreatedAt: s.now().UTC(),
		TotalSize: root.Size(),
		DirCount:  dirs,
		FileCount: files,
		Lines:     stats.Lines,
		Threshold: s.params.Threshold,
		Capacity:  s.params.Capacity,
		Required:  s.params.Required,
		Available: Available(root, s.params.Capacity),
	}

	rep.SumAtMost = SumDirsAtMost(root, s.params.Threshold)
	metrics.RecordQuery("sum_at_most", "found")

	dir, needed, err := SmallestDirToFree(root, s.params.Capacity, s.params.Required)
	rep.Needed = needed
	switch {
	case err == nil:
		rep.DeleteCandidate = &report.Candidate{Path: dir.Path(), Size: dir.Size()}
		metrics.RecordQuery("smallest_to_free", "found")
	case errors.Is(err, ErrNoCandidate):
		metrics.RecordQuery("smallest_to_free", "empty")
	default:
		metrics.RecordQuery("smallest_to_free", "error")
		return nil, nil, err
	}

	log.Info("transcript analyzed",
		zap.Int64("total_size", rep.TotalSize),
		zap.Int64("sum_at_most", rep.SumAtMost),
		zap.Int64("needed", rep.Needed),
		zap.Bool("candidate", rep.HasCandidate()),
	)

	if s.autoSave && s.repo != nil {
		if err := s.Save(rep); err != nil {
			return nil, nil, err
		}
	}
	return rep, root, nil
}

func (s *service) Save(rep *report.Report) error {
	if s.repo == nil {
		return ErrStorageDisabled
	}
	if err := rep.Validate(); err != nil {
		return err
	}
	return s.repo.Create(rep)
}

func (s *service) GetReport(id string) (*report.Report, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.GetByID(id)
}

func (s *service) ListReports(limit int) ([]*report.Report, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.List(limit)
}

func (s *service) ReportsByDigest(digest string) ([]*report.Report, error) {
	if s.repo == nil {
		return nil, ErrStorageDisabled
	}
	return s.repo.ListByDigest(digest)
}

func (s *service) DeleteReport(id string) error {
	if s.repo == nil {
		return ErrStorageDisabled
	}
	return s.repo.Delete(id)
}

func newDigest() hash.Hash {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	return h
}

// digestSource hashes every line it hands out, newline-terminated, so the
// digest does not depend on the input's line endings.
type digestSource struct {
	src transcript.Source[string]
	h   hash.Hash
}

func (d *digestSource) Next() (string, bool) {
	line, ok := d.src.Next()
	if ok {
		io.WriteString(d.h, line)
		d.h.Write([]byte{'\n'})
	}
	return line, ok
}

// Err forwards the wrapped source's read error, if it has one.
func (d *digestSource) Err() error {
	if es, ok := d.src.(interface{ Err() error }); ok {
		return es.Err()
	}
	return nil
}
