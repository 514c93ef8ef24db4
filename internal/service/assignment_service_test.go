package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/vendor-finance/internal/domain"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

type assignmentFixture struct {
	workflow    *WorkflowService
	assignments *AssignmentService
	store       *memStore
	vendor      *domain.Vendor
	admin       *domain.StaffMember
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	store := newMemStore()
	vendor := store.addVendor(&domain.Vendor{Email: "acme@example.com", Status: domain.VendorStatusActive})
	admin := store.addStaff(&domain.StaffMember{Name: "Root", Role: domain.RoleAdmin, Active: true})
	return &assignmentFixture{
		workflow: NewWorkflowService(WorkflowDependencies{
			WorkflowRepo: store,
			VendorRepo:   vendorRepo{store: store},
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			WorkflowRepo:   store,
			AssignmentRepo: store,
			StaffRepo:      staffRepo{store: store},
		}),
		store:  store,
		vendor: vendor,
		admin:  admin,
	}
}

func (f *assignmentFixture) createInvoice(t *testing.T) *domain.WorkflowEntity {
	t.Helper()
	entity, err := f.workflow.CreateEntity(context.Background(), asVendor(f.vendor), CreateInput{
		EntityType: domain.EntityInvoice,
		Attributes: map[string]any{"amount": 500.0},
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return entity
}

func (f *assignmentFixture) addLead(name string, createdAt time.Time) *domain.StaffMember {
	lead := f.store.addStaff(&domain.StaffMember{Name: name, Role: domain.RoleCreditOpsLead, Active: true})
	lead.CreatedAt = createdAt
	return lead
}

func TestAssignInvoice(t *testing.T) {
	f := newAssignmentFixture(t)
	lead := f.addLead("Lena", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	updated, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    lead.ID,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("updated = %d entities", len(updated))
	}
	got := updated[0]
	if got.AssigneeID == nil || *got.AssigneeID != lead.ID {
		t.Errorf("assignee = %v, want %s", got.AssigneeID, lead.ID)
	}
	if got.Version != entity.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, entity.Version+1)
	}

	trail := f.store.auditFor(entity.ID)
	if len(trail) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(trail))
	}
	if trail[0].Action != domain.AuditActionAssignment {
		t.Errorf("audit action = %s", trail[0].Action)
	}
	if trail[0].Detail["staff_id"] != lead.ID {
		t.Errorf("audit staff_id = %v", trail[0].Detail["staff_id"])
	}
}

func TestAssignRejectsWrongPool(t *testing.T) {
	f := newAssignmentFixture(t)
	analyst := f.store.addStaff(&domain.StaffMember{Role: domain.RoleCreditOpsAnalyst, Active: true})
	entity := f.createInvoice(t)

	_, err := f.assignments.Assign(context.Background(), asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    analyst.ID,
	})
	if !apperrors.HasCode(err, "CONFLICT") {
		t.Fatalf("analyst as invoice assignee: got %v, want CONFLICT", err)
	}
}

func TestAssignRequiresPermission(t *testing.T) {
	f := newAssignmentFixture(t)
	lead := f.addLead("Lena", time.Now())
	entity := f.createInvoice(t)

	// Leads review invoices but only admins may route them.
	_, err := f.assignments.Assign(context.Background(), asStaff(lead), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    lead.ID,
	})
	if !apperrors.HasCode(err, "FORBIDDEN") {
		t.Fatalf("lead assigning invoice: got %v, want FORBIDDEN", err)
	}
}

func TestAssignAlreadyAssigned(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.addLead("Lena", time.Now())
	second := f.addLead("Marc", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    first.ID,
	}); err != nil {
		t.Fatalf("first assign: %v", err)
	}

	_, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    second.ID,
	})
	if !apperrors.HasCode(err, "ALREADY_ASSIGNED") {
		t.Fatalf("second assign: got %v, want ALREADY_ASSIGNED", err)
	}
}

// staleActiveAssignments mimics a reader whose active-assignment lookup ran
// before a concurrent caller won the entity's single assignment slot.
type staleActiveAssignments struct {
	*memStore
}

func (staleActiveAssignments) ActiveForEntity(ctx context.Context, entityType domain.EntityType, entityID string) (*domain.Assignment, error) {
	return nil, nil
}

func TestAssignRacedFirstAssignmentConflicts(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.addLead("Lena", time.Now())
	second := f.addLead("Marc", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    first.ID,
	}); err != nil {
		t.Fatalf("winning assign: %v", err)
	}

	racing := NewAssignmentService(AssignmentDependencies{
		WorkflowRepo:   f.store,
		AssignmentRepo: staleActiveAssignments{memStore: f.store},
		StaffRepo:      staffRepo{store: f.store},
	})
	_, err := racing.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    second.ID,
	})
	if !apperrors.HasCode(err, "ALREADY_ASSIGNED") {
		t.Fatalf("raced assign: got %v, want ALREADY_ASSIGNED", err)
	}

	history, err := f.assignments.History(ctx, asStaff(f.admin), domain.EntityInvoice, entity.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d rows, want 1", len(history))
	}
}

func TestAssignSameStaffIsNoop(t *testing.T) {
	f := newAssignmentFixture(t)
	lead := f.addLead("Lena", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    lead.ID,
	}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    lead.ID,
	}); err != nil {
		t.Fatalf("repeat assign: %v", err)
	}

	history, err := f.assignments.History(ctx, asStaff(f.admin), domain.EntityInvoice, entity.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d rows, want 1", len(history))
	}
}

func TestReassignSupersedes(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.addLead("Lena", time.Now())
	second := f.addLead("Marc", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    first.ID,
	}); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	updated, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    second.ID,
		Reassign:   true,
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if got := updated[0].AssigneeID; got == nil || *got != second.ID {
		t.Errorf("assignee = %v, want %s", got, second.ID)
	}

	history, err := f.assignments.History(ctx, asStaff(f.admin), domain.EntityInvoice, entity.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d rows, want 2", len(history))
	}
	var active, superseded int
	for _, a := range history {
		if a.SupersededAt == nil {
			active++
		} else {
			superseded++
		}
	}
	if active != 1 || superseded != 1 {
		t.Errorf("active=%d superseded=%d, want 1/1", active, superseded)
	}

	trail := f.store.auditFor(entity.ID)
	if len(trail) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(trail))
	}
	if _, ok := trail[1].Detail["superseded_assignment_id"]; !ok {
		t.Error("reassignment audit entry missing superseded_assignment_id")
	}
}

func TestAssignTerminalEntityConflicts(t *testing.T) {
	f := newAssignmentFixture(t)
	lead := f.addLead("Lena", time.Now())
	entity := f.createInvoice(t)
	ctx := context.Background()

	if _, err := f.workflow.ApplyTransition(ctx, asStaff(f.admin), TransitionInput{
		EntityType:      domain.EntityInvoice,
		EntityID:        entity.ID,
		Event:           domain.EventReject,
		ExpectedVersion: 1,
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}

	_, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
		EntityType: domain.EntityInvoice,
		EntityIDs:  []string{entity.ID},
		StaffID:    lead.ID,
	})
	if !apperrors.HasCode(err, "CONFLICT") {
		t.Fatalf("assign rejected invoice: got %v, want CONFLICT", err)
	}
}

func TestSuggestBalancedAssignee(t *testing.T) {
	f := newAssignmentFixture(t)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	busy := f.addLead("Busy", base)
	light := f.addLead("Light", base.Add(time.Hour))
	medium := f.addLead("Medium", base.Add(2*time.Hour))
	ctx := context.Background()

	load := map[*domain.StaffMember]int{busy: 3, light: 1, medium: 2}
	for lead, n := range load {
		for i := 0; i < n; i++ {
			entity := f.createInvoice(t)
			if _, err := f.assignments.Assign(ctx, asStaff(f.admin), AssignInput{
				EntityType: domain.EntityInvoice,
				EntityIDs:  []string{entity.ID},
				StaffID:    lead.ID,
			}); err != nil {
				t.Fatalf("seed assign: %v", err)
			}
		}
	}

	suggested, err := f.assignments.SuggestBalancedAssignee(ctx, asStaff(f.admin), domain.EntityInvoice)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if suggested.ID != light.ID {
		t.Fatalf("suggested %s (%s), want least-loaded %s", suggested.Name, suggested.ID, light.ID)
	}
}

func TestSuggestTieBreaksByCreation(t *testing.T) {
	f := newAssignmentFixture(t)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	younger := f.addLead("Younger", base.Add(time.Hour))
	older := f.addLead("Older", base)
	_ = younger

	suggested, err := f.assignments.SuggestBalancedAssignee(context.Background(), asStaff(f.admin), domain.EntityInvoice)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if suggested.ID != older.ID {
		t.Fatalf("suggested %s, want earliest-created %s", suggested.ID, older.ID)
	}
}

func TestSuggestNoEligibleStaff(t *testing.T) {
	f := newAssignmentFixture(t)

	_, err := f.assignments.SuggestBalancedAssignee(context.Background(), asStaff(f.admin), domain.EntityInvoice)
	if !apperrors.HasCode(err, "NOT_FOUND") {
		t.Fatalf("empty pool: got %v, want NOT_FOUND", err)
	}
}
