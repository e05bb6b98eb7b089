package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"hackathon-scoreboard/internal/teams"
)

var ErrReportNotFound = errors.New("report not found")

// Store mirrors the registry and records generated reports in Postgres.
type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// ReplaceTeams makes the teams table an exact copy of ts.
func (s *Store) ReplaceTeams(ctx context.Context, ts []teams.Team) error {
	return WithTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `delete from teams`); err != nil {
			return fmt.Errorf("clear teams: %w", err)
		}
		for _, t := range ts {
			row := RowFromTeam(t)
			_, err := tx.NamedExecContext(ctx, `insert into teams(id, name, university, category, creativity, technical, teamwork, presentation, overall)
				values(:id, :name, :university, :category, :creativity, :technical, :teamwork, :presentation, :overall)`, row)
			if err != nil {
				return fmt.Errorf("insert team %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) ListTeams(ctx context.Context) ([]teams.Team, error) {
	var rows []TeamRow
	if err := s.DB.SelectContext(ctx, &rows, `select * from teams order by id`); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	out := make([]teams.Team, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Team())
	}
	return out, nil
}

func (s *Store) InsertReport(ctx context.Context, r Report) error {
	_, err := s.DB.NamedExecContext(ctx, `insert into reports(id, requested_by, team_count, object_ref, snapshot_ref, status, error)
		values(:id, :requested_by, :team_count, :object_ref, :snapshot_ref, :status, :error)`, r)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// FinishReport stores the outcome of a report job.
func (s *Store) FinishReport(ctx context.Context, r Report) error {
	_, err := s.DB.NamedExecContext(ctx, `update reports set object_ref=:object_ref, snapshot_ref=:snapshot_ref, status=:status, error=:error where id=:id`, r)
	if err != nil {
		return fmt.Errorf("finish report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (Report, error) {
	var r Report
	err := s.DB.GetContext(ctx, &r, `select * from reports where id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	if err != nil {
		return Report{}, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (s *Store) ListReports(ctx context.Context, limit int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Report
	if err := s.DB.SelectContext(ctx, &out, `select * from reports order by created_at desc limit $1`, limit); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}
