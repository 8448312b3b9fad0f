package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const recordCols = `subject_id,evaluated_on,first_name,last_name,birth_date,sex,age_months,age_band,scores_json,trials_json,evaluator,created_at,updated_at`

func (s *SQLStore) Upsert(ctx context.Context, r Record) (Record, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := upsertTx(ctx, tx, r)
	if err != nil {
		return Record{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Record{}, false, err
	}
	out, err := s.Get(ctx, r.SubjectID, r.EvaluatedOn)
	return out, created, err
}

// UpsertMany saves every record in one transaction; on error nothing is kept.
func (s *SQLStore) UpsertMany(ctx context.Context, rs []Record) (created, updated int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rs {
		isNew, err := upsertTx(ctx, tx, r)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: %w", r.Label(), err)
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

func upsertTx(ctx context.Context, tx *sql.Tx, r Record) (bool, error) {
	sj, err := json.Marshal(r.Scores)
	if err != nil {
		return false, err
	}
	tj := ""
	if len(r.Trials) > 0 {
		b, err := json.Marshal(r.Trials)
		if err != nil {
			return false, err
		}
		tj = string(b)
	}

	created := false
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM assessments WHERE subject_id=$1 AND evaluated_on=$2`,
		r.SubjectID, r.Date()).Scan(new(int))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = true
	case err != nil:
		return false, err
	}

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx, `INSERT INTO assessments (`+recordCols+`, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (subject_id, evaluated_on) DO UPDATE SET
		  first_name=EXCLUDED.first_name, last_name=EXCLUDED.last_name, birth_date=EXCLUDED.birth_date,
		  sex=EXCLUDED.sex, age_months=EXCLUDED.age_months, age_band=EXCLUDED.age_band,
		  scores_json=EXCLUDED.scores_json, trials_json=EXCLUDED.trials_json, evaluator=EXCLUDED.evaluator,
		  total=EXCLUDED.total, updated_at=EXCLUDED.updated_at`,
		r.SubjectID, r.Date(), r.FirstName, r.LastName, r.BirthDate.Format(DateLayout), string(r.Sex),
		r.AgeMonths, r.AgeBand, string(sj), tj, r.Evaluator, now, now, r.Total())
	if err != nil {
		return false, fmt.Errorf("upsert assessment: %w", err)
	}
	return created, nil
}

func (s *SQLStore) Get(ctx context.Context, subjectID string, date time.Time) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordCols+` FROM assessments WHERE subject_id=$1 AND evaluated_on=$2`,
		subjectID, date.Format(DateLayout))
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return r, err
}

func (s *SQLStore) ListBySubject(ctx context.Context, subjectID string) ([]Record, error) {
	return s.List(ctx, ListOpts{SubjectID: subjectID})
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if opts.SubjectID != "" {
		add("subject_id=$%d", opts.SubjectID)
	}
	if opts.Sex != "" {
		add("sex=$%d", string(opts.Sex))
	}
	if opts.AgeBand != nil {
		add("age_band=$%d", *opts.AgeBand)
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(first_name LIKE $%d OR last_name LIKE $%d)", n, n))
	}

	query := `SELECT ` + recordCols + ` FROM assessments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY last_name, first_name, evaluated_on, subject_id`
	switch {
	case opts.Limit > 0:
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	case opts.Offset > 0 && s.driver != "postgres":
		// sqlite only accepts OFFSET after a LIMIT
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) All(ctx context.Context) ([]Record, error) {
	return s.List(ctx, ListOpts{})
}

func (s *SQLStore) Peers(ctx context.Context, sex Sex, band int) ([]Record, error) {
	return s.List(ctx, ListOpts{Sex: sex, AgeBand: &band})
}

func (s *SQLStore) Delete(ctx context.Context, subjectID string, date time.Time) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE subject_id=$1 AND evaluated_on=$2`,
		subjectID, date.Format(DateLayout))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Reset(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		r                 Record
		evaluated, birth  string
		sex, sjson, tjson string
	)
	if err := sc.Scan(&r.SubjectID, &evaluated, &r.FirstName, &r.LastName, &birth, &sex,
		&r.AgeMonths, &r.AgeBand, &sjson, &tjson, &r.Evaluator, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return Record{}, err
	}
	r.Sex = Sex(sex)
	// dates are written by this store; a malformed value stays zero
	r.EvaluatedOn, _ = time.Parse(DateLayout, evaluated)
	r.BirthDate, _ = time.Parse(DateLayout, birth)
	if err := json.Unmarshal([]byte(sjson), &r.Scores); err != nil || r.Scores == nil {
		r.Scores = map[string]int{}
	}
	if tjson != "" {
		_ = json.Unmarshal([]byte(tjson), &r.Trials)
	}
	return r, nil
}
