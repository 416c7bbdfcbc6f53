package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"dutree/internal/domain/report"
	"dutree/internal/infrastructure/database"
)

const reportColumns = `id, name, digest, total_size, dir_count, file_count, lines, threshold, sum_at_most,
	capacity, required, available, needed, candidate_path, candidate_size, created_at`

type reportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) report.Repository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(rep *report.Report) error {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}
	rep.CreatedAt = rep.CreatedAt.UTC()

	var candidatePath sql.NullString
	var candidateSize sql.NullInt64
	if c := rep.DeleteCandidate; c != nil {
		candidatePath = sql.NullString{String: c.Path, Valid: true}
		candidateSize = sql.NullInt64{Int64: c.Size, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO reports (`+reportColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rep.ID, rep.Name, rep.Digest, rep.TotalSize, rep.DirCount, rep.FileCount, rep.Lines, rep.Threshold, rep.SumAtMost,
		rep.Capacity, rep.Required, rep.Available, rep.Needed, candidatePath, candidateSize, rep.CreatedAt,
	)
	return err
}

func (r *reportRepository) GetByID(id string) (*report.Report, error) {
	rep, err := scanReport(r.db.QueryRow(`SELECT `+reportColumns+` FROM reports WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, report.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// List returns the newest reports first. A non-positive limit returns all of them.
func (r *reportRepository) List(limit int) ([]*report.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(`SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

func (r *reportRepository) ListByDigest(digest string) ([]*report.Report, error) {
	return r.query(`SELECT `+reportColumns+` FROM reports WHERE digest = ? ORDER BY created_at DESC, rowid DESC`, digest)
}

func (r *reportRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

func (r *reportRepository) query(q string, args ...any) ([]*report.Report, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*report.Report, error) {
	rep := &report.Report{}
	var candidatePath sql.NullString
	var candidateSize sql.NullInt64

	err := row.Scan(&rep.ID, &rep.Name, &rep.Digest, &rep.TotalSize, &rep.DirCount, &rep.FileCount, &rep.Lines,
		&rep.Threshold, &rep.SumAtMost, &rep.Capacity, &rep.Required, &rep.Available, &rep.Needed,
		&candidatePath, &candidateSize, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}

	if candidatePath.Valid {
		rep.DeleteCandidate = &report.Candidate{Path: candidatePath.String, Size: candidateSize.Int64}
	}
	rep.CreatedAt = rep.CreatedAt.UTC()
	return rep, nil
}
