package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dutree/internal/application/analysis"
	"dutree/internal/domain/report"
	"dutree/internal/infrastructure/logging"
)

const sample = `$ cd /
$ ls
dir a
14848514 b.txt
8504156 c.dat
dir d
$ cd a
$ ls
dir e
29116 f
2557 g
62596 h.lst
$ cd e
$ ls
584 i
$ cd ..
$ cd ..
$ cd d
$ ls
4060174 j
8033020 d.log
5626152 d.ext
7214296 k
`

type memoryRepository struct {
	reports []*report.Report
}

func (m *memoryRepository) Create(r *report.Report) error {
	r.ID = "r" + string(rune('0'+len(m.reports)))
	m.reports = append(m.reports, r)
	return nil
}

func (m *memoryRepository) GetByID(id string) (*report.Report, error) {
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, report.ErrReportNotFound
}

func (m *memoryRepository) List(limit int) ([]*report.Report, error) {
	if limit > 0 && limit < len(m.reports) {
		return m.reports[:limit], nil
	}
	return m.reports, nil
}

func (m *memoryRepository) ListByDigest(digest string) ([]*report.Report, error) {
	var out []*report.Report
	for _, r := range m.reports {
		if r.Digest == digest {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRepository) Delete(id string) error {
	for i, r := range m.reports {
		if r.ID == id {
			m.reports = append(m.reports[:i], m.reports[i+1:]...)
			return nil
		}
	}
	return report.ErrReportNotFound
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorDetail    `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func newHandler(repo report.Repository, limit int64) *AnalysisHandler {
	svc := analysis.NewService(repo, analysis.DefaultParams(), analysis.WithAutoSave(repo != nil))
	return NewAnalysisHandler(svc, limit)
}

func TestAnalyze(t *testing.T) {
	h := newHandler(nil, 1<<20)

	rec := httptest.NewRecorder()
	h.Analyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze?name=sample", strings.NewReader(sample)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	env := decode(t, rec)
	var rep report.Report
	if err := json.Unmarshal(env.Data, &rep); err != nil {
		t.Fatal(err)
	}
	if !env.Success || rep.Name != "sample" || rep.SumAtMost != 95437 {
		t.Errorf("response = %+v, report = %+v", env, rep)
	}
	if rep.DeleteCandidate == nil || rep.DeleteCandidate.Size != 24933642 {
		t.Errorf("DeleteCandidate = %+v", rep.DeleteCandidate)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		body     string
		limit    int64
		wantCode int
		wantLine int
	}{
		{"wrong method", http.MethodGet, "", 1 << 20, http.StatusMethodNotAllowed, 0},
		{"bad size", http.MethodPost, "$ ls\nx f\n", 1 << 20, http.StatusUnprocessableEntity, 2},
		{"unknown command", http.MethodPost, "$ cd /\n$ rm x\n", 1 << 20, http.StatusUnprocessableEntity, 2},
		{"too large", http.MethodPost, sample, 64, http.StatusRequestEntityTooLarge, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(nil, tt.limit)
			rec := httptest.NewRecorder()
			h.Analyze(rec, httptest.NewRequest(tt.method, "/api/analyze", strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantCode, rec.Body)
			}
			env := decode(t, rec)
			if env.Success {
				t.Error("success = true on error")
			}
			if tt.wantLine != 0 && (env.Error == nil || env.Error.Line != tt.wantLine) {
				t.Errorf("error detail = %+v, want line %d", env.Error, tt.wantLine)
			}
		})
	}
}

func TestReportsRoutes(t *testing.T) {
	repo := &memoryRepository{}
	h := newHandler(repo, 1<<20)

	rec := httptest.NewRecorder()
	h.Analyze(rec, httptest.NewRequest(http.MethodPost, "/api/analyze?name=one", strings.NewReader(sample)))
	if rec.Code != http.StatusOK || len(repo.reports) != 1 {
		t.Fatalf("analyze: status %d, %d stored", rec.Code, len(repo.reports))
	}
	id := repo.reports[0].ID

	rec = httptest.NewRecorder()
	h.HandleReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports?limit=5", nil))
	var list []report.Report
	if err := json.Unmarshal(decode(t, rec).Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}

	rec = httptest.NewRecorder()
	h.HandleReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports?digest="+repo.reports[0].Digest, nil))
	if err := json.Unmarshal(decode(t, rec).Data, &list); err != nil || len(list) != 1 {
		t.Fatalf("by digest = %v, %v", list, err)
	}

	rec = httptest.NewRecorder()
	h.HandleReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports?limit=zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleReportByID(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleReportByID(rec, httptest.NewRequest(http.MethodDelete, "/api/reports/"+id, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleReportByID(rec, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestReportsWithoutStorage(t *testing.T) {
	h := newHandler(nil, 1<<20)

	rec := httptest.NewRecorder()
	h.HandleReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

type brokenRepository struct{ memoryRepository }

var errDiskGone = errors.New("disk gone")

func (b *brokenRepository) List(int) ([]*report.Report, error) { return nil, errDiskGone }

func TestStorageFailureLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	defer logging.Replace(zap.New(core))()

	h := newHandler(&brokenRepository{}, 1<<20)
	rec := httptest.NewRecorder()
	h.HandleReports(rec, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), errDiskGone.Error()) {
		t.Errorf("response leaks the storage error: %s", rec.Body.String())
	}

	entries := logs.FilterMessage("report storage failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d storage failures, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != errDiskGone.Error() {
		t.Errorf("error field = %v, want %q", got, errDiskGone.Error())
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 50, false},
		{"7", 7, false},
		{"100000", maxListLimit, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLimit(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseLimit(%q) = %d, %v", tt.in, got, err)
		}
	}
}
