package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/vendor-finance/internal/domain"
)

// AuditFilter captures audit query parameters.
type AuditFilter struct {
	EntityType *domain.EntityType
	EntityID   *string
	ActorID    *string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// AuditRepository reads the append-only audit trail. Entries are never
// updated or deleted; transition and assignment writes append through their
// own transactions.
type AuditRepository interface {
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditEntry, error) {
	base := `SELECT id, actor_type, actor_id, action, entity_type, entity_id, previous_state, new_state, detail, created_at
             FROM audit_entries`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		clauses = append(clauses, fmt.Sprintf("entity_id=$%d", len(args)))
	}
	if filter.ActorID != nil {
		args = append(args, *filter.ActorID)
		clauses = append(clauses, fmt.Sprintf("actor_id=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorType,
			&entry.ActorID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.PreviousState,
			&entry.NewState,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditEntry, error) {
	return r.List(ctx, AuditFilter{
		EntityType: &entityType,
		EntityID:   &entityID,
		Limit:      100,
	})
}
