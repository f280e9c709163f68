// internal/repository/paper_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hp82240-service/internal/database"
	"hp82240-service/internal/model"
)

const defaultListLimit = 100

// paperRepository implements PaperRepository on PostgreSQL
type paperRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPaperRepository creates a new paper repository
func NewPaperRepository(db *database.DB, logger *zap.Logger) PaperRepository {
	return &paperRepository{
		db:     db,
		logger: logger,
	}
}

// CreateSession stores a new print session
func (r *paperRepository) CreateSession(ctx context.Context, session *model.PrintSession) error {
	query := `
		INSERT INTO print_sessions (id, source, model, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, session.ID, session.Source, session.Model, session.StartedAt)
	if err != nil {
		r.logger.Error("Failed to create print session", zap.Error(err), zap.String("session_id", session.ID.String()))
		return fmt.Errorf("failed to create print session: %w", err)
	}

	r.logger.Info("Print session created",
		zap.String("session_id", session.ID.String()),
		zap.String("source", session.Source),
	)
	return nil
}

// EndSession marks a session as finished
func (r *paperRepository) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE print_sessions SET ended_at = $2 WHERE id = $1`, id, endedAt)
	if err != nil {
		return fmt.Errorf("failed to end print session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// GetSession retrieves a session with its line count
func (r *paperRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.PrintSession, error) {
	query := `
		SELECT s.id, s.source, s.model, s.started_at, s.ended_at,
			   (SELECT COUNT(*) FROM printed_lines l WHERE l.session_id = s.id)
		FROM print_sessions s WHERE s.id = $1
	`

	session := &model.PrintSession{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.Source, &session.Model,
		&session.StartedAt, &session.EndedAt, &session.Lines,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		r.logger.Error("Failed to get print session", zap.Error(err), zap.String("session_id", id.String()))
		return nil, fmt.Errorf("failed to get print session: %w", err)
	}
	return session, nil
}

// ListSessions lists sessions, newest first
func (r *paperRepository) ListSessions(ctx context.Context, filter *SessionFilter) ([]*model.PrintSession, error) {
	if filter == nil {
		filter = &SessionFilter{}
	}

	whereConditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Source != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("s.source = $%d", argIndex))
		args = append(args, *filter.Source)
		argIndex++
	}
	if filter.StartDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("s.started_at >= $%d", argIndex))
		args = append(args, *filter.StartDate)
		argIndex++
	}
	if filter.EndDate != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("s.started_at <= $%d", argIndex))
		args = append(args, *filter.EndDate)
		argIndex++
	}

	whereClause := ""
	if len(whereConditions) > 0 {
		whereClause = "WHERE " + strings.Join(whereConditions, " AND ")
	}

	args = append(args, limitOrDefault(filter.Limit))
	query := fmt.Sprintf(`
		SELECT s.id, s.source, s.model, s.started_at, s.ended_at,
			   (SELECT COUNT(*) FROM printed_lines l WHERE l.session_id = s.id)
		FROM print_sessions s %s
		ORDER BY s.started_at DESC
		LIMIT $%d
	`, whereClause, argIndex)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list print sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.PrintSession
	for rows.Next() {
		session := &model.PrintSession{}
		if err := rows.Scan(
			&session.ID, &session.Source, &session.Model,
			&session.StartedAt, &session.EndedAt, &session.Lines,
		); err != nil {
			return nil, fmt.Errorf("failed to scan print session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print sessions: %w", err)
	}
	return sessions, nil
}

// AddLine stores a printed line
func (r *paperRepository) AddLine(ctx context.Context, line *model.ArchivedLine) error {
	query := `
		INSERT INTO printed_lines (session_id, line_no, text, bitmap, printed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		line.SessionID, line.LineNo, line.Text, line.Bitmap, line.PrintedAt,
	).Scan(&line.ID)
	if err != nil {
		r.logger.Error("Failed to archive printed line",
			zap.Error(err),
			zap.String("session_id", line.SessionID.String()),
			zap.Int("line_no", line.LineNo),
		)
		return fmt.Errorf("failed to archive printed line: %w", err)
	}
	return nil
}

// ListLines lists the lines of a session in print order
func (r *paperRepository) ListLines(ctx context.Context, sessionID uuid.UUID, filter *LineFilter) ([]*model.ArchivedLine, error) {
	if filter == nil {
		filter = &LineFilter{}
	}

	whereConditions := []string{"session_id = $1", "line_no > $2"}
	args := []interface{}{sessionID, filter.AfterLine}
	argIndex := 3

	if filter.TextSearch != nil {
		whereConditions = append(whereConditions, fmt.Sprintf("text ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.TextSearch+"%")
		argIndex++
	}

	args = append(args, limitOrDefault(filter.Limit))
	query := fmt.Sprintf(`
		SELECT id, session_id, line_no, text, bitmap, printed_at
		FROM printed_lines
		WHERE %s
		ORDER BY line_no
		LIMIT $%d
	`, strings.Join(whereConditions, " AND "), argIndex)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list printed lines: %w", err)
	}
	defer rows.Close()

	var lines []*model.ArchivedLine
	for rows.Next() {
		line := &model.ArchivedLine{}
		if err := rows.Scan(&line.ID, &line.SessionID, &line.LineNo, &line.Text, &line.Bitmap, &line.PrintedAt); err != nil {
			return nil, fmt.Errorf("failed to scan printed line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate printed lines: %w", err)
	}
	return lines, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 10*defaultListLimit {
		return defaultListLimit
	}
	return limit
}
