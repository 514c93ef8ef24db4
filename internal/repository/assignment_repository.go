package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// ErrAssignmentConflict signals that the assignment to supersede was already
// superseded by a concurrent caller, or that a concurrent caller already
// holds the entity's single active assignment slot.
var ErrAssignmentConflict = errors.New("assignment conflict")

// isActiveAssignmentViolation reports whether err is a unique violation on
// the one-active-assignment-per-entity partial index.
func isActiveAssignmentViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_assignments_active"
}

// AssignmentRepository encapsulates assignment persistence. Commit writes the
// new assignment, the supersession of the prior one, the entity's assignee and
// version bump, and the audit entry in a single transaction.
type AssignmentRepository interface {
	ActiveForEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Assignment, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Assignment, error)
	CountActiveByStaff(ctx context.Context, entityType domain.EntityType, states []domain.State) (map[string]int, error)
	Commit(ctx context.Context, assignment *domain.Assignment, supersedeID *string, expectedVersion int64, entry *domain.AuditEntry) (*domain.WorkflowEntity, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

// ActiveForEntity returns the active assignment for an entity, or nil when the
// entity is unassigned.
func (r *assignmentRepository) ActiveForEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Assignment, error) {
	const query = `
        SELECT id, entity_type, entity_id, staff_id, assigned_by, assigned_at, superseded_at
        FROM assignments
        WHERE entity_type=$1 AND entity_id=$2 AND superseded_at IS NULL`

	assignment, err := scanAssignment(r.pool.QueryRow(ctx, query, entityType, entityID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return assignment, nil
}

func (r *assignmentRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Assignment, error) {
	const query = `
        SELECT id, entity_type, entity_id, staff_id, assigned_by, assigned_at, superseded_at
        FROM assignments
        WHERE entity_type=$1 AND entity_id=$2 ORDER BY assigned_at ASC`

	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *assignment)
	}
	return result, rows.Err()
}

// CountActiveByStaff counts active assignments per staff member, restricted to
// entities of the given type currently in one of the given states.
func (r *assignmentRepository) CountActiveByStaff(ctx context.Context, entityType domain.EntityType, states []domain.State) (map[string]int, error) {
	clauses := "a.entity_type=$1 AND a.superseded_at IS NULL"
	args := []any{entityType}
	if len(states) > 0 {
		placeholders := make([]string, len(states))
		for i, state := range states {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses += fmt.Sprintf(" AND e.state IN (%s)", strings.Join(placeholders, ","))
	}

	query := fmt.Sprintf(`
        SELECT a.staff_id, COUNT(*)
        FROM assignments a
        JOIN workflow_entities e ON e.entity_type=a.entity_type AND e.id=a.entity_id
        WHERE %s
        GROUP BY a.staff_id`, clauses)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var staffID string
		var count int
		if err := rows.Scan(&staffID, &count); err != nil {
			return nil, err
		}
		counts[staffID] = count
	}
	return counts, rows.Err()
}

func (r *assignmentRepository) Commit(ctx context.Context, assignment *domain.Assignment, supersedeID *string, expectedVersion int64, entry *domain.AuditEntry) (*domain.WorkflowEntity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if supersedeID != nil {
		cmd, err := tx.Exec(ctx,
			`UPDATE assignments SET superseded_at=NOW() WHERE id=$1 AND superseded_at IS NULL`,
			*supersedeID)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			return nil, ErrAssignmentConflict
		}
	}

	// The version-guarded entity update runs before the assignment insert:
	// of two transactions racing for the same unassigned entity, the loser
	// fails the version check here instead of tripping the unique index.
	updateQuery := fmt.Sprintf(`
        UPDATE workflow_entities
        SET assignee_staff_id=$1, version=version+1, updated_at=NOW()
        WHERE entity_type=$2 AND id=$3 AND version=$4
        RETURNING %s`, workflowColumns)
	entity, err := scanWorkflowEntity(tx.QueryRow(ctx, updateQuery,
		assignment.StaffID,
		assignment.EntityType,
		assignment.EntityID,
		expectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}

	const insertQuery = `
        INSERT INTO assignments (entity_type, entity_id, staff_id, assigned_by)
        VALUES ($1, $2, $3, $4)
        RETURNING id, assigned_at`
	if err := tx.QueryRow(ctx, insertQuery,
		assignment.EntityType,
		assignment.EntityID,
		assignment.StaffID,
		assignment.AssignedBy,
	).Scan(&assignment.ID, &assignment.AssignedAt); err != nil {
		if isActiveAssignmentViolation(err) {
			return nil, ErrAssignmentConflict
		}
		return nil, err
	}

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entity, nil
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.EntityType,
		&assignment.EntityID,
		&assignment.StaffID,
		&assignment.AssignedBy,
		&assignment.AssignedAt,
		&assignment.SupersededAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}
