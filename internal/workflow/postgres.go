package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobmate/workflow-service/internal/model"
	"jobmate/workflow-service/internal/pipeline"
)

// PostgresStore is the pgx-backed Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store over pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const selectApplication = `
	SELECT a.id::text, a.candidate_id, a.job_id, a.stage, a.history_log, a.updated_at,
	       i.id::text, i.date, i.time, i.location, i.interviewer, i.duration,
	       i.requirements, i.notes
	FROM applications a
	LEFT JOIN interviews i ON i.application_id = a.id`

// Get returns one application with its interview.
func (s *PostgresStore) Get(ctx context.Context, applicationID string) (model.Application, error) {
	return s.get(ctx, s.pool, applicationID)
}

// GetByInterview returns the application owning interviewID.
func (s *PostgresStore) GetByInterview(ctx context.Context, interviewID string) (model.Application, error) {
	row := s.pool.QueryRow(ctx, selectApplication+` WHERE i.id::text = $1`, interviewID)
	return scanApplication(row)
}

// List returns one page of applications, most recently updated first.
func (s *PostgresStore) List(ctx context.Context, q model.CandidateQuery) ([]model.Application, int, error) {
	sql, args := buildListQuery(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	apps := make([]model.Application, 0, q.Limit)
	total := 0
	for rows.Next() {
		a, n, err := scanListRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list scan: %w", err)
		}
		apps = append(apps, a)
		total = n
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list rows: %w", err)
	}
	if len(apps) == 0 && q.Page > 1 {
		// COUNT(*) OVER () is unavailable past the last page.
		sql, args := countQuery(q)
		if err := s.pool.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count query: %w", err)
		}
	}
	return apps, total, nil
}

// CountByStage returns the number of applications per stage.
func (s *PostgresStore) CountByStage(ctx context.Context) (map[pipeline.Stage]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT stage, COUNT(*) FROM applications GROUP BY stage`)
	if err != nil {
		return nil, fmt.Errorf("count query: %w", err)
	}
	defer rows.Close()

	counts := make(map[pipeline.Stage]int)
	for rows.Next() {
		var (
			stage string
			n     int
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("count scan: %w", err)
		}
		counts[pipeline.Stage(stage)] = n
	}
	return counts, rows.Err()
}

// MoveStage updates the stage, appends to history_log and upserts the
// interview in one transaction.
func (s *PostgresStore) MoveStage(ctx context.Context, m Move) (model.Application, error) {
	entry, err := historyJSON(m.Entry)
	if err != nil {
		return model.Application{}, err
	}

	var out model.Application
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE applications
			 SET stage       = $1,
			     history_log = history_log || $2::jsonb,
			     updated_at  = NOW()
			 WHERE id::text = $3 AND stage = $4`,
			string(m.To), entry, m.ApplicationID, string(m.From),
		)
		if err != nil {
			return fmt.Errorf("moveStage update: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return s.missingOrConflict(ctx, tx, m.ApplicationID)
		}

		if m.Interview != nil {
			p := m.Interview
			_, err = tx.Exec(ctx,
				`INSERT INTO interviews
				   (id, application_id, date, time, location, interviewer, duration, requirements, notes)
				 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9)
				 ON CONFLICT (application_id) DO UPDATE
				 SET date = EXCLUDED.date, time = EXCLUDED.time, location = EXCLUDED.location,
				     interviewer = EXCLUDED.interviewer, duration = EXCLUDED.duration,
				     requirements = EXCLUDED.requirements, notes = EXCLUDED.notes,
				     updated_at = NOW()`,
				m.InterviewID, m.ApplicationID, p.Date, p.Time, p.Location,
				p.Interviewer, p.Duration, nonNil(p.Requirements), p.Notes,
			)
			if err != nil {
				return fmt.Errorf("moveStage interview: %w", err)
			}
		}

		out, err = s.get(ctx, tx, m.ApplicationID)
		return err
	})
	if err != nil {
		return model.Application{}, err
	}
	return out, nil
}

// Reschedule rewrites the interview and marks the application
// interview_rescheduled.
func (s *PostgresStore) Reschedule(ctx context.Context, interviewID string, p model.InterviewPayload, e model.HistoryEntry) (model.Application, error) {
	entry, err := historyJSON(e)
	if err != nil {
		return model.Application{}, err
	}

	var out model.Application
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var appID string
		err := tx.QueryRow(ctx,
			`UPDATE interviews
			 SET date = $1, time = $2, location = $3, interviewer = $4,
			     duration = $5, requirements = $6, notes = $7, updated_at = NOW()
			 WHERE id::text = $8
			 RETURNING application_id::text`,
			p.Date, p.Time, p.Location, p.Interviewer, p.Duration, nonNil(p.Requirements), p.Notes,
			interviewID,
		).Scan(&appID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reschedule interview: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE applications
			 SET stage       = $1,
			     history_log = history_log || $2::jsonb,
			     updated_at  = NOW()
			 WHERE id::text = $3 AND stage = ANY($4)`,
			string(pipeline.StageInterviewRescheduled), entry, appID, interviewStages(),
		)
		if err != nil {
			return fmt.Errorf("reschedule stage: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStageConflict
		}

		out, err = s.get(ctx, tx, appID)
		return err
	})
	if err != nil {
		return model.Application{}, err
	}
	return out, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) get(ctx context.Context, q querier, id string) (model.Application, error) {
	return scanApplication(q.QueryRow(ctx, selectApplication+` WHERE a.id::text = $1`, id))
}

func (s *PostgresStore) missingOrConflict(ctx context.Context, q querier, id string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id::text = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("moveStage exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStageConflict
}

// interviewRow holds the nullable LEFT JOIN columns.
type interviewRow struct {
	id, date, time, location, interviewer, notes *string
	duration                                     *int32
	requirements                                 []string
}

func (r *interviewRow) interview() *model.Interview {
	if r.id == nil {
		return nil
	}
	iv := &model.Interview{ID: *r.id, Requirements: r.requirements}
	if r.date != nil {
		iv.Date = *r.date
	}
	if r.time != nil {
		iv.Time = *r.time
	}
	if r.location != nil {
		iv.Location = *r.location
	}
	if r.interviewer != nil {
		iv.Interviewer = *r.interviewer
	}
	if r.duration != nil {
		iv.Duration = int(*r.duration)
	}
	if r.notes != nil {
		iv.Notes = *r.notes
	}
	return iv
}

func scanApplication(row pgx.Row) (model.Application, error) {
	var (
		a     model.Application
		stage string
		ir    interviewRow
	)
	dest := append([]any{&a.ID, &a.CandidateID, &a.JobID, &stage, &a.History, &a.UpdatedAt}, ir.pointers()...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Application{}, ErrNotFound
		}
		return model.Application{}, fmt.Errorf("scan application: %w", err)
	}
	a.Stage = pipeline.Stage(stage)
	a.Interview = ir.interview()
	return a, nil
}

func scanListRow(rows pgx.Rows) (model.Application, int, error) {
	var (
		a     model.Application
		stage string
		ir    interviewRow
		total int
	)
	dest := append([]any{&a.ID, &a.CandidateID, &a.JobID, &stage, &a.History, &a.UpdatedAt}, ir.pointers()...)
	dest = append(dest, &total)
	if err := rows.Scan(dest...); err != nil {
		return model.Application{}, 0, err
	}
	a.Stage = pipeline.Stage(stage)
	a.Interview = ir.interview()
	return a, total, nil
}

func (r *interviewRow) pointers() []any {
	return []any{&r.id, &r.date, &r.time, &r.location, &r.interviewer, &r.duration, &r.requirements, &r.notes}
}

// buildListQuery returns the page query for q with positional arguments.
// The last selected column is the total match count.
func buildListQuery(q model.CandidateQuery) (string, []any) {
	where, args := listFilter(q)
	var b strings.Builder
	b.WriteString(strings.Replace(selectApplication, "i.notes", "i.notes, COUNT(*) OVER ()", 1))
	b.WriteString(where)
	b.WriteString(` ORDER BY a.updated_at DESC, a.id`)
	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	b.WriteString(` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args)))
	return b.String(), args
}

func countQuery(q model.CandidateQuery) (string, []any) {
	where, args := listFilter(q)
	return `SELECT COUNT(*) FROM applications a` + where, args
}

func listFilter(q model.CandidateQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Stage != "" {
		args = append(args, string(q.Stage))
		conds = append(conds, `a.stage = $`+strconv.Itoa(len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, `(a.candidate_id ILIKE $`+n+` OR a.job_id ILIKE $`+n+`)`)
	}
	if len(conds) == 0 {
		return "", args
	}
	return ` WHERE ` + strings.Join(conds, " AND "), args
}

func historyJSON(e model.HistoryEntry) (string, error) {
	raw, err := json.Marshal([]model.HistoryEntry{e})
	if err != nil {
		return "", fmt.Errorf("encode history entry: %w", err)
	}
	return string(raw), nil
}

func interviewStages() []string {
	var out []string
	for _, s := range pipeline.Stages() {
		if pipeline.DefaultPolicy().InInterviewBranch(s) {
			out = append(out, string(s))
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
