package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// ErrVersionConflict signals a lost compare-and-swap race: the entity exists
// but its stored version differs from the expected one.
var ErrVersionConflict = errors.New("version conflict")

// StateSwap describes an atomic state write guarded by the version counter.
type StateSwap struct {
	EntityType      domain.EntityType
	EntityID        string
	ExpectedVersion int64
	NewState        domain.State
	ReviewedBy      *string
	ReviewedAt      *time.Time
}

// WorkflowFilter captures listing parameters for workflow entities.
type WorkflowFilter struct {
	EntityType domain.EntityType
	VendorID   *string
	AssigneeID *string
	States     []domain.State
	Unassigned bool
	Limit      int
	Offset     int
}

// WorkflowRepository encapsulates workflow entity persistence. State writes go
// through CompareAndSwap exclusively, which commits the new state, the version
// bump, and the paired audit entry in a single transaction.
type WorkflowRepository interface {
	Create(ctx context.Context, entity *domain.WorkflowEntity) error
	GetByID(ctx context.Context, entityType domain.EntityType, id string) (*domain.WorkflowEntity, error)
	ActiveByVendor(ctx context.Context, entityType domain.EntityType, vendorID string, terminal []domain.State) (*domain.WorkflowEntity, error)
	ListWithFilter(ctx context.Context, filter WorkflowFilter) ([]domain.WorkflowEntity, error)
	CompareAndSwap(ctx context.Context, swap StateSwap, entry *domain.AuditEntry) (*domain.WorkflowEntity, error)
}

type workflowRepository struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepository instantiates repository.
func NewWorkflowRepository(pool *pgxpool.Pool) WorkflowRepository {
	return &workflowRepository{pool: pool}
}

const workflowColumns = `id, entity_type, vendor_id, assignee_staff_id, state, version,
               attributes, reviewed_by, reviewed_at, created_at, updated_at`

func (r *workflowRepository) Create(ctx context.Context, entity *domain.WorkflowEntity) error {
	const query = `
        INSERT INTO workflow_entities (entity_type, vendor_id, state, version, attributes)
        VALUES ($1, $2, $3, 1, $4)
        RETURNING id, version, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		entity.Type,
		entity.VendorID,
		entity.State,
		entity.Attributes,
	).Scan(&entity.ID, &entity.Version, &entity.CreatedAt, &entity.UpdatedAt)
}

func (r *workflowRepository) GetByID(ctx context.Context, entityType domain.EntityType, id string) (*domain.WorkflowEntity, error) {
	query := fmt.Sprintf(`SELECT %s FROM workflow_entities WHERE entity_type=$1 AND id=$2`, workflowColumns)
	return scanWorkflowEntity(r.pool.QueryRow(ctx, query, entityType, id))
}

func (r *workflowRepository) ActiveByVendor(ctx context.Context, entityType domain.EntityType, vendorID string, terminal []domain.State) (*domain.WorkflowEntity, error) {
	args := []any{entityType, vendorID}
	clauses := []string{"entity_type=$1", "vendor_id=$2"}
	if len(terminal) > 0 {
		placeholders := make([]string, len(terminal))
		for i, state := range terminal {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state NOT IN (%s)", strings.Join(placeholders, ",")))
	}
	query := fmt.Sprintf(`SELECT %s FROM workflow_entities WHERE %s ORDER BY created_at DESC LIMIT 1`,
		workflowColumns, strings.Join(clauses, " AND "))

	entity, err := scanWorkflowEntity(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

func (r *workflowRepository) ListWithFilter(ctx context.Context, filter WorkflowFilter) ([]domain.WorkflowEntity, error) {
	clauses := []string{"entity_type=$1"}
	args := []any{filter.EntityType}

	if filter.VendorID != nil {
		args = append(args, *filter.VendorID)
		clauses = append(clauses, fmt.Sprintf("vendor_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_staff_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assignee_staff_id IS NULL")
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM workflow_entities WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		workflowColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkflowEntity
	for rows.Next() {
		entity, err := scanWorkflowEntity(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *entity)
	}
	return result, rows.Err()
}

// CompareAndSwap applies the guarded state write and appends the audit entry
// in one transaction; both commit or both roll back.
func (r *workflowRepository) CompareAndSwap(ctx context.Context, swap StateSwap, entry *domain.AuditEntry) (*domain.WorkflowEntity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := fmt.Sprintf(`
        UPDATE workflow_entities
        SET state=$1, version=version+1,
            reviewed_by=COALESCE($2, reviewed_by),
            reviewed_at=COALESCE($3, reviewed_at),
            updated_at=NOW()
        WHERE entity_type=$4 AND id=$5 AND version=$6
        RETURNING %s`, workflowColumns)

	entity, err := scanWorkflowEntity(tx.QueryRow(ctx, query,
		swap.NewState,
		swap.ReviewedBy,
		swap.ReviewedAt,
		swap.EntityType,
		swap.EntityID,
		swap.ExpectedVersion,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyMiss(ctx, swap.EntityType, swap.EntityID)
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

// classifyMiss distinguishes a missing entity from a lost version race.
func (r *workflowRepository) classifyMiss(ctx context.Context, entityType domain.EntityType, id string) error {
	var version int64
	err := r.pool.QueryRow(ctx,
		`SELECT version FROM workflow_entities WHERE entity_type=$1 AND id=$2`,
		entityType, id).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return pgx.ErrNoRows
	}
	if err != nil {
		return err
	}
	return ErrVersionConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflowEntity(row rowScanner) (*domain.WorkflowEntity, error) {
	var entity domain.WorkflowEntity
	if err := row.Scan(
		&entity.ID,
		&entity.Type,
		&entity.VendorID,
		&entity.AssigneeID,
		&entity.State,
		&entity.Version,
		&entity.Attributes,
		&entity.ReviewedBy,
		&entity.ReviewedAt,
		&entity.CreatedAt,
		&entity.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &entity, nil
}

type auditWriter interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertAuditEntry(ctx context.Context, q auditWriter, entry *domain.AuditEntry) error {
	const query = `
        INSERT INTO audit_entries (actor_type, actor_id, action, entity_type, entity_id, previous_state, new_state, detail)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	return q.QueryRow(ctx, query,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.PreviousState,
		entry.NewState,
		entry.Detail,
	).Scan(&entry.ID, &entry.CreatedAt)
}
