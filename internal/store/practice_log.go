package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/prepdeck/internal/api"
)

type practiceLog struct {
	db *sqlx.DB
}

var _ PracticeLog = (*practiceLog)(nil)
var _ api.CallRecorder = (*practiceLog)(nil)

func (r *practiceLog) AppendSession(ctx context.Context, rec SessionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_log (session_id, action, ordinal, questions_done, total_questions)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Action, rec.Ordinal, rec.QuestionsDone, rec.TotalQuestions)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}

func (r *practiceLog) AppendAnswer(ctx context.Context, rec AnswerRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO answer_log (session_id, question_id, category, subcategory, difficulty, answer, correct)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.QuestionID, rec.Category, rec.Subcategory, rec.Difficulty, rec.Answer, rec.Correct)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (r *practiceLog) AppendExclusion(ctx context.Context, questionID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO exclusion_log (question_id) VALUES (?)`, questionID)
	if err != nil {
		return fmt.Errorf("insert exclusion: %w", err)
	}
	return nil
}

func (r *practiceLog) RecordAPICall(ctx context.Context, rec api.CallRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_log (operation, latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?)`,
		rec.Operation, rec.LatencyMs, rec.Success, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("insert api call: %w", err)
	}
	return nil
}

func (r *practiceLog) CompletedSessions(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(DISTINCT session_id) FROM session_log WHERE action = 'complete'`)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}
	return n, nil
}

func (r *practiceLog) OverallAccuracy(ctx context.Context) (int, int, error) {
	var row struct {
		Attempted int `db:"attempted"`
		Correct   int `db:"correct"`
	}
	err := r.db.GetContext(ctx, &row,
		`SELECT COUNT(*) AS attempted, COALESCE(SUM(correct), 0) AS correct FROM answer_log`)
	if err != nil {
		return 0, 0, fmt.Errorf("query accuracy: %w", err)
	}
	return row.Attempted, row.Correct, nil
}

func (r *practiceLog) TopicCoverage(ctx context.Context) ([]TopicStats, error) {
	var stats []TopicStats
	err := r.db.SelectContext(ctx, &stats,
		`SELECT category, COUNT(*) AS attempted, COALESCE(SUM(correct), 0) AS correct
		 FROM answer_log
		 WHERE category != ''
		 GROUP BY category
		 ORDER BY attempted DESC, category`)
	if err != nil {
		return nil, fmt.Errorf("query topic coverage: %w", err)
	}
	return stats, nil
}

func (r *practiceLog) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	q := `SELECT s.session_id, s.ordinal, s.questions_done, s.created_at,
	             COALESCE((SELECT SUM(a.correct) FROM answer_log a WHERE a.session_id = s.session_id), 0) AS correct
	      FROM session_log s
	      WHERE s.action = 'complete'
	      ORDER BY s.id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	var sessions []SessionSummary
	if err := r.db.SelectContext(ctx, &sessions, q, args...); err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	return sessions, nil
}
