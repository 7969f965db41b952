package zombiezen

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/caasmo/credkeeper/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// newJobFromStmt creates a Job struct from a SQLite statement row.
func newJobFromStmt(stmt *sqlite.Stmt) (*db.Job, error) {
	createdAt, err := db.TimeParse(stmt.GetText("created_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at time: %w", err)
	}

	updatedAt, err := db.TimeParse(stmt.GetText("updated_at"))
	if err != nil {
		return nil, fmt.Errorf("error parsing updated_at time: %w", err)
	}

	var scheduledFor time.Time
	if scheduledForStr := stmt.GetText("scheduled_for"); scheduledForStr != "" {
		scheduledFor, err = db.TimeParse(scheduledForStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing scheduled_for time: %w", err)
		}
	}

	var completedAt time.Time
	if completedAtStr := stmt.GetText("completed_at"); completedAtStr != "" {
		completedAt, err = db.TimeParse(completedAtStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing completed_at time: %w", err)
		}
	}

	return &db.Job{
		ID:           stmt.GetInt64("id"),
		JobType:      stmt.GetText("job_type"),
		Payload:      json.RawMessage(stmt.GetText("payload")),
		Status:       stmt.GetText("status"),
		Attempts:     int(stmt.GetInt64("attempts")),
		MaxAttempts:  int(stmt.GetInt64("max_attempts")),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		ScheduledFor: scheduledFor,
		CompletedAt:  completedAt,
		LastError:    stmt.GetText("last_error"),
		Recurrent:    stmt.GetInt64("recurrent") != 0,
		Interval:     time.Duration(stmt.GetInt64("interval_seconds")) * time.Second,
	}, nil
}

// InsertJob adds a new job to the queue.
func (d *Db) InsertJob(job db.Job) error {
	if job.JobType == "" {
		return fmt.Errorf("job type is required")
	}

	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("queue insert failed to get connection: %w", err)
	}
	defer d.pool.Put(conn)

	payload := string(job.Payload)
	if payload == "" {
		payload = "{}"
	}
	maxAttempts := job.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	scheduledFor := job.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = time.Now()
	}

	err = sqlitex.Execute(conn, `INSERT INTO jobs
		(job_type, payload, max_attempts, scheduled_for, recurrent, interval_seconds)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []interface{}{
				job.JobType,
				payload,
				maxAttempts,
				db.TimeString(scheduledFor),
				job.Recurrent,
				int64(job.Interval / time.Second),
			},
		})
	if err != nil {
		if sqlite.ErrCode(err) == sqlite.ResultConstraintUnique {
			return db.ErrConstraintUnique
		}
		return fmt.Errorf("queue insert failed: %w", err)
	}
	return nil
}

// Claim marks up to limit due jobs as claimed and returns them. The status
// flip and the read happen in one immediate transaction so two scheduler
// ticks never claim the same job.
func (d *Db) Claim(limit int) (jobs []*db.Job, err error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("queue claim failed to get connection: %w", err)
	}
	defer d.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(conn,
		`UPDATE jobs
		SET status = ?,
			attempts = attempts + 1,
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id IN (
			SELECT id FROM jobs
			WHERE status = ? AND scheduled_for <= (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
			ORDER BY scheduled_for
			LIMIT ?
		)
		RETURNING id, job_type, payload, status, attempts, max_attempts,
			created_at, updated_at, scheduled_for, completed_at, last_error,
			recurrent, interval_seconds`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				job, err := newJobFromStmt(stmt)
				if err != nil {
					return err
				}
				jobs = append(jobs, job)
				return nil
			},
			Args: []interface{}{db.JobStatusProcessing, db.JobStatusPending, limit},
		})
	if err != nil {
		return nil, fmt.Errorf("queue claim failed: %w", err)
	}

	return jobs, nil
}

func (d *Db) MarkCompleted(jobID int64) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("queue update failed to get connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE jobs
		SET status = ?,
			completed_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{db.JobStatusCompleted, jobID},
		})
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// MarkFailed records the error. Jobs that still have attempts left go back
// to pending; exhausted jobs stay failed.
func (d *Db) MarkFailed(jobID int64, errMsg string) error {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("queue update failed to get connection: %w", err)
	}
	defer d.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE jobs
		SET status = IIF(attempts < max_attempts, ?, ?),
			last_error = ?,
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{db.JobStatusPending, db.JobStatusFailed, errMsg, jobID},
		})
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// MarkRecurrentCompleted completes a recurrent job and inserts its next run
// in the same transaction.
func (d *Db) MarkRecurrentCompleted(completedJobID int64, newJob db.Job) (err error) {
	conn, err := d.pool.Take(context.TODO())
	if err != nil {
		return fmt.Errorf("queue update failed to get connection: %w", err)
	}
	defer d.pool.Put(conn)

	endFn, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer endFn(&err)

	err = sqlitex.Execute(conn,
		`UPDATE jobs
		SET status = ?,
			completed_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at = (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		WHERE id = ?`,
		&sqlitex.ExecOptions{
			Args: []interface{}{db.JobStatusCompleted, completedJobID},
		})
	if err != nil {
		return fmt.Errorf("failed to complete recurrent job: %w", err)
	}

	payload := string(newJob.Payload)
	if payload == "" {
		payload = "{}"
	}
	err = sqlitex.Execute(conn, `INSERT INTO jobs
		(job_type, payload, max_attempts, scheduled_for, recurrent, interval_seconds)
		VALUES (?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []interface{}{
				newJob.JobType,
				payload,
				newJob.MaxAttempts,
				db.TimeString(newJob.ScheduledFor),
				newJob.Recurrent,
				int64(newJob.Interval / time.Second),
			},
		})
	if err != nil {
		return fmt.Errorf("failed to schedule next recurrent run: %w", err)
	}

	return nil
}
