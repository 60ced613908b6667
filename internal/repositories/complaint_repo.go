package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/database"
	"github.com/Sexual-Harresment-Committee/ComplaintWebSite/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const complaintColumns = `id, status, severity, category, description, attachment_url, assigned_to, passcode_hash, created_at, updated_at`

// ComplaintFilter narrows List results. A nil field means "no constraint".
type ComplaintFilter struct {
	AssignedTo *string
	Status     *models.ComplaintStatus
	Limit      int
	Offset     int
}

type ComplaintRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewComplaintRepository(db *database.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db, pool: db.Pool}
}

func scanComplaintRow(scanner rowScanner) (*models.Complaint, error) {
	var c models.Complaint

	err := scanner.Scan(
		&c.ID, &c.Status, &c.Severity, &c.Category,
		&c.Description, &c.AttachmentURL, &c.AssignedTo, &c.PasscodeHash,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*models.Complaint, error) {
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)

	for rows.Next() {
		c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return complaints, nil
}

// Create inserts a new complaint. The caller supplies the generated ID;
// a unique-violation surfaces as models.ErrConflict so the caller can
// regenerate and retry.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) (*models.Complaint, error) {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	if c.Status == "" {
		c.Status = models.StatusSubmitted
	}

	query := `
		INSERT INTO complaints (id, status, severity, category, description, attachment_url, assigned_to, passcode_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + complaintColumns

	return scanComplaintRow(r.pool.QueryRow(ctx, query,
		c.ID, c.Status, c.Severity, c.Category,
		c.Description, c.AttachmentURL, c.AssignedTo, c.PasscodeHash,
		c.CreatedAt, c.UpdatedAt,
	))
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints WHERE id = $1`
	return scanComplaintRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	args := make([]interface{}, 0, 4)

	where := ""
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		where = fmt.Sprintf(" WHERE assigned_to = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}
	query += where + " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}

	return scanComplaintRows(rows)
}

// MarkViewed transitions Submitted -> Viewed. The status predicate makes the
// call a silent no-op once the complaint is past Submitted, so the operation
// is idempotent by construction.
func (r *ComplaintRepository) MarkViewed(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE complaints SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.pool.Exec(ctx, query, models.StatusViewed, id, models.StatusSubmitted)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() > 0, nil
}

// Assign sets the assignee and forces status to Under Review regardless of
// where the complaint was in its lifecycle.
func (r *ComplaintRepository) Assign(ctx context.Context, id, staffID string) (*models.Complaint, error) {
	query := `
		UPDATE complaints SET assigned_to = $1, status = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + complaintColumns

	return scanComplaintRow(r.pool.QueryRow(ctx, query, staffID, models.StatusUnderReview, id))
}

// SetStatus overwrites the status with no transition gating.
func (r *ComplaintRepository) SetStatus(ctx context.Context, id string, status models.ComplaintStatus) (*models.Complaint, error) {
	query := `
		UPDATE complaints SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + complaintColumns

	return scanComplaintRow(r.pool.QueryRow(ctx, query, status, id))
}

// AppendPublicUpdate inserts into the append-only updates table and bumps
// the complaint's updated_at in the same transaction, so activity ordering
// never drifts from the visible timeline.
func (r *ComplaintRepository) AppendPublicUpdate(ctx context.Context, complaintID, message string) (*models.PublicUpdate, error) {
	var u models.PublicUpdate
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO complaint_updates (id, complaint_id, message, created_at)
			VALUES ($1, $2, $3, NOW())
			RETURNING id, complaint_id, message, created_at
		`
		if err := tx.QueryRow(ctx, query, uuid.New().String(), complaintID, message).Scan(
			&u.ID, &u.ComplaintID, &u.Message, &u.CreatedAt,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `UPDATE complaints SET updated_at = NOW() WHERE id = $1`, complaintID)
		return err
	})
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &u, nil
}

// ListPublicUpdates returns the submitter-visible update stream, oldest first.
func (r *ComplaintRepository) ListPublicUpdates(ctx context.Context, complaintID string) ([]models.PublicUpdate, error) {
	query := `
		SELECT id, complaint_id, message, created_at
		FROM complaint_updates
		WHERE complaint_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query public updates: %w", err)
	}
	defer rows.Close()

	updates := make([]models.PublicUpdate, 0)
	for rows.Next() {
		var u models.PublicUpdate
		if err := rows.Scan(&u.ID, &u.ComplaintID, &u.Message, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan public update: %w", err)
		}
		updates = append(updates, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating public updates: %w", err)
	}

	return updates, nil
}

// Stats computes the committee dashboard aggregates in one pass. The
// resolved count covers both terminal outcomes, so a dismissed complaint is
// not reported as still pending.
func (r *ComplaintRepository) Stats(ctx context.Context) (*models.DashboardStats, error) {
	args := make([]interface{}, 0, len(models.OpenStatuses)+2)
	open := make([]string, 0, len(models.OpenStatuses))
	for _, s := range models.OpenStatuses {
		args = append(args, s)
		open = append(open, fmt.Sprintf("$%d", len(args)))
	}
	args = append(args, models.StatusResolved, models.StatusDismissed)

	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN (%s)),
			COUNT(*) FILTER (WHERE severity IN ('Critical', 'High')),
			COUNT(*) FILTER (WHERE status IN ($%d, $%d))
		FROM complaints
	`, strings.Join(open, ", "), len(args)-1, len(args))

	var stats models.DashboardStats
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&stats.Total, &stats.Open, &stats.Critical, &stats.Resolved)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &stats, nil
}
