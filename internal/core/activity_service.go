package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityService is the durable sink behind the in-memory ActivityLog.
// It satisfies ActivitySink so entries recorded during a session also land
// in Postgres and survive restarts.
type ActivityService interface {
	ActivitySink
	RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
}

type activityService struct {
	pool *pgxpool.Pool
}

func NewActivityService(pool *pgxpool.Pool) ActivityService {
	return &activityService{pool: pool}
}

func (s *activityService) AppendActivity(ctx context.Context, entry ActivityEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO activity_entries (id, action, actor, details, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.Action, entry.Actor, entry.Details, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

func (s *activityService) RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 || limit > DefaultActivityRetention {
		limit = DefaultActivityRetention
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, action, actor, details, recorded_at
		FROM activity_entries
		ORDER BY recorded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity entries: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Actor, &e.Details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
