package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
)

// memStore is a single in-memory backing store implementing every repository
// interface the services depend on. Keeping one store lets assignment writes
// observe workflow state the way the shared database does.
type memStore struct {
	mu          sync.Mutex
	seq         int
	entities    map[string]*domain.WorkflowEntity
	assignments []*domain.Assignment
	staff       map[string]*domain.StaffMember
	vendors     map[string]*domain.Vendor
	audit       []domain.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		entities: map[string]*domain.WorkflowEntity{},
		staff:    map[string]*domain.StaffMember{},
		vendors:  map[string]*domain.Vendor{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addVendor(v *domain.Vendor) *domain.Vendor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = m.nextID("vendor")
	}
	m.vendors[v.ID] = v
	return v
}

func (m *memStore) addStaff(s *domain.StaffMember) *domain.StaffMember {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = m.nextID("staff")
	}
	m.staff[s.ID] = s
	return s
}

func (m *memStore) auditFor(entityID string) []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range m.audit {
		if entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out
}

// WorkflowRepository

func (m *memStore) Create(ctx context.Context, entity *domain.WorkflowEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity.ID = m.nextID("entity")
	entity.Version = 1
	entity.CreatedAt = time.Now()
	entity.UpdatedAt = entity.CreatedAt
	clone := *entity
	m.entities[entity.ID] = &clone
	return nil
}

func (m *memStore) GetByID(ctx context.Context, entityType domain.EntityType, id string) (*domain.WorkflowEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity, ok := m.entities[id]
	if !ok || entity.Type != entityType {
		return nil, pgx.ErrNoRows
	}
	clone := *entity
	return &clone, nil
}

func (m *memStore) ActiveByVendor(ctx context.Context, entityType domain.EntityType, vendorID string, terminal []domain.State) (*domain.WorkflowEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	terminalSet := map[domain.State]struct{}{}
	for _, s := range terminal {
		terminalSet[s] = struct{}{}
	}
	for _, entity := range m.entities {
		if entity.Type != entityType || entity.VendorID != vendorID {
			continue
		}
		if _, done := terminalSet[entity.State]; done {
			continue
		}
		clone := *entity
		return &clone, nil
	}
	return nil, nil
}

func (m *memStore) ListWithFilter(ctx context.Context, filter repository.WorkflowFilter) ([]domain.WorkflowEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WorkflowEntity
	for _, entity := range m.entities {
		if entity.Type != filter.EntityType {
			continue
		}
		if filter.VendorID != nil && entity.VendorID != *filter.VendorID {
			continue
		}
		if filter.AssigneeID != nil && (entity.AssigneeID == nil || *entity.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Unassigned && entity.AssigneeID != nil {
			continue
		}
		if len(filter.States) > 0 {
			matched := false
			for _, s := range filter.States {
				if entity.State == s {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *entity)
	}
	return out, nil
}

func (m *memStore) CompareAndSwap(ctx context.Context, swap repository.StateSwap, entry *domain.AuditEntry) (*domain.WorkflowEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity, ok := m.entities[swap.EntityID]
	if !ok || entity.Type != swap.EntityType {
		return nil, pgx.ErrNoRows
	}
	if entity.Version != swap.ExpectedVersion {
		return nil, repository.ErrVersionConflict
	}
	entity.State = swap.NewState
	entity.Version++
	entity.UpdatedAt = time.Now()
	if swap.ReviewedBy != nil {
		entity.ReviewedBy = swap.ReviewedBy
		entity.ReviewedAt = swap.ReviewedAt
	}
	m.appendAuditLocked(entry)
	clone := *entity
	return &clone, nil
}

// AssignmentRepository

func (m *memStore) ActiveForEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.EntityType == entityType && a.EntityID == entityID && a.SupersededAt == nil {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Assignment
	for _, a := range m.assignments {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) CountActiveByStaff(ctx context.Context, entityType domain.EntityType, states []domain.State) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, a := range m.assignments {
		if a.EntityType != entityType || a.SupersededAt != nil {
			continue
		}
		entity, ok := m.entities[a.EntityID]
		if !ok {
			continue
		}
		for _, s := range states {
			if entity.State == s {
				counts[a.StaffID]++
				break
			}
		}
	}
	return counts, nil
}

func (m *memStore) Commit(ctx context.Context, assignment *domain.Assignment, supersedeID *string, expectedVersion int64, entry *domain.AuditEntry) (*domain.WorkflowEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if supersedeID != nil {
		superseded := false
		for _, a := range m.assignments {
			if a.ID == *supersedeID && a.SupersededAt == nil {
				now := time.Now()
				a.SupersededAt = &now
				superseded = true
				break
			}
		}
		if !superseded {
			return nil, repository.ErrAssignmentConflict
		}
	}

	entity, ok := m.entities[assignment.EntityID]
	if !ok || entity.Type != assignment.EntityType {
		return nil, pgx.ErrNoRows
	}
	if entity.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	if supersedeID == nil {
		for _, a := range m.assignments {
			if a.EntityType == assignment.EntityType && a.EntityID == assignment.EntityID && a.SupersededAt == nil {
				return nil, repository.ErrAssignmentConflict
			}
		}
	}

	assignment.ID = m.nextID("assignment")
	assignment.AssignedAt = time.Now()
	clone := *assignment
	m.assignments = append(m.assignments, &clone)

	entity.AssigneeID = &assignment.StaffID
	entity.Version++
	entity.UpdatedAt = time.Now()
	m.appendAuditLocked(entry)

	result := *entity
	return &result, nil
}

// StaffRepository

func (m *memStore) CreateStaff(ctx context.Context, staff *domain.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	staff.ID = m.nextID("staff")
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	clone := *staff
	m.staff[staff.ID] = &clone
	return nil
}

func (m *memStore) UpdateStaff(ctx context.Context, staff *domain.StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *staff
	m.staff[staff.ID] = &clone
	return nil
}

func (m *memStore) GetStaffByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	staff, ok := m.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *staff
	return &clone, nil
}

func (m *memStore) GetStaffByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, staff := range m.staff {
		if staff.Email == email {
			clone := *staff
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memStore) ListStaff(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.StaffMember
	for _, staff := range m.staff {
		if len(filter.Roles) > 0 {
			matched := false
			for _, role := range filter.Roles {
				if staff.Role == role {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		out = append(out, *staff)
	}
	// created_at then id, matching the repository ordering
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			a, b := &out[j-1], &out[j]
			if a.CreatedAt.Before(b.CreatedAt) || (a.CreatedAt.Equal(b.CreatedAt) && a.ID <= b.ID) {
				break
			}
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

// staffRepo adapts memStore to repository.StaffRepository; method names on
// the store are prefixed to avoid colliding with the workflow methods.
type staffRepo struct{ store *memStore }

func (r staffRepo) Create(ctx context.Context, staff *domain.StaffMember) error {
	return r.store.CreateStaff(ctx, staff)
}

func (r staffRepo) Update(ctx context.Context, staff *domain.StaffMember) error {
	return r.store.UpdateStaff(ctx, staff)
}

func (r staffRepo) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return r.store.GetStaffByID(ctx, id)
}

func (r staffRepo) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	return r.store.GetStaffByEmail(ctx, email)
}

func (r staffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	return r.store.ListStaff(ctx, filter)
}

// vendorRepo adapts memStore to repository.VendorRepository.
type vendorRepo struct{ store *memStore }

func (r vendorRepo) Create(ctx context.Context, vendor *domain.Vendor) error {
	r.store.addVendor(vendor)
	return nil
}

func (r vendorRepo) Update(ctx context.Context, vendor *domain.Vendor) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.vendors[vendor.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *vendor
	r.store.vendors[vendor.ID] = &clone
	return nil
}

func (r vendorRepo) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	vendor, ok := r.store.vendors[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *vendor
	return &clone, nil
}

func (r vendorRepo) GetByEmail(ctx context.Context, email string) (*domain.Vendor, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, vendor := range r.store.vendors {
		if vendor.Email == email {
			clone := *vendor
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r vendorRepo) SetKYCStatus(ctx context.Context, vendorID string, status domain.State) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	vendor, ok := r.store.vendors[vendorID]
	if !ok {
		return pgx.ErrNoRows
	}
	vendor.KYCStatus = status
	return nil
}

// auditRepo adapts memStore to repository.AuditRepository.
type auditRepo struct{ store *memStore }

func (m *memStore) appendAuditLocked(entry *domain.AuditEntry) {
	if entry == nil {
		return
	}
	entry.ID = m.nextID("audit")
	entry.CreatedAt = time.Now()
	m.audit = append(m.audit, *entry)
}

func (r auditRepo) List(ctx context.Context, filter repository.AuditFilter) ([]domain.AuditEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []domain.AuditEntry
	for _, entry := range r.store.audit {
		if filter.EntityType != nil && entry.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && entry.EntityID != *filter.EntityID {
			continue
		}
		if filter.ActorID != nil && (entry.ActorID == nil || *entry.ActorID != *filter.ActorID) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r auditRepo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditEntry, error) {
	return r.List(ctx, repository.AuditFilter{EntityType: &entityType, EntityID: &entityID})
}
