package repositories

import (
	"context"
	"fmt"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/database"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InternalNoteRepository accesses the staff-only notes table. Notes are kept
// out of the complaints table entirely so that nothing in the tracking read
// path can reach them.
type InternalNoteRepository struct {
	pool *pgxpool.Pool
}

func NewInternalNoteRepository(db *database.DB) *InternalNoteRepository {
	return &InternalNoteRepository{pool: db.Pool}
}

func (r *InternalNoteRepository) Append(ctx context.Context, complaintID, authorID, note string) (*models.InternalNote, error) {
	query := `
		INSERT INTO internal_notes (id, complaint_id, author_id, note, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, complaint_id, author_id, note, created_at
	`

	var n models.InternalNote
	var author *string
	err := r.pool.QueryRow(ctx, query, uuid.New().String(), complaintID, authorID, note).Scan(
		&n.ID, &n.ComplaintID, &author, &n.Note, &n.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if author != nil {
		n.AuthorID = *author
	}

	return &n, nil
}

func (r *InternalNoteRepository) ListByComplaint(ctx context.Context, complaintID string) ([]models.InternalNote, error) {
	query := `
		SELECT id, complaint_id, author_id, note, created_at
		FROM internal_notes
		WHERE complaint_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query internal notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.InternalNote, 0)
	for rows.Next() {
		var n models.InternalNote
		var author *string
		if err := rows.Scan(&n.ID, &n.ComplaintID, &author, &n.Note, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan internal note: %w", err)
		}
		if author != nil {
			n.AuthorID = *author
		}
		notes = append(notes, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating internal notes: %w", err)
	}

	return notes, nil
}
