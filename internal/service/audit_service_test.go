package service

import (
	"context"
	"testing"

	"github.com/spec-kit/vendor-finance/internal/domain"
	"github.com/spec-kit/vendor-finance/internal/repository"
	apperrors "github.com/spec-kit/vendor-finance/pkg/util"
)

func seedAuditTrail(t *testing.T, store *memStore) *domain.WorkflowEntity {
	t.Helper()
	vendor := store.addVendor(&domain.Vendor{Email: "acme@example.com", Status: domain.VendorStatusActive, KYCStatus: domain.StatePending})
	svc := NewWorkflowService(WorkflowDependencies{
		WorkflowRepo: store,
		VendorRepo:   vendorRepo{store: store},
	})
	ctx := context.Background()
	entity, err := svc.CreateEntity(ctx, asVendor(vendor), CreateInput{EntityType: domain.EntityIdentityVerification})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ApplyTransition(ctx, asVendor(vendor), TransitionInput{
		EntityType:      domain.EntityIdentityVerification,
		EntityID:        entity.ID,
		Event:           domain.EventSubmit,
		ExpectedVersion: 1,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	return entity
}

func TestAuditQueryRequiresAuditPermission(t *testing.T) {
	store := newMemStore()
	seedAuditTrail(t, store)
	svc := NewAuditService(auditRepo{store: store})
	ctx := context.Background()

	analyst := store.addStaff(&domain.StaffMember{Role: domain.RoleCreditOpsAnalyst, Active: true})
	if _, err := svc.Query(ctx, asStaff(analyst), repository.AuditFilter{}); !apperrors.HasCode(err, "FORBIDDEN") {
		t.Fatalf("analyst query: got %v, want FORBIDDEN", err)
	}

	admin := store.addStaff(&domain.StaffMember{Role: domain.RoleAdmin, Active: true})
	entries, err := svc.Query(ctx, asStaff(admin), repository.AuditFilter{})
	if err != nil {
		t.Fatalf("admin query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

func TestEntityHistoryRequiresQueuePermission(t *testing.T) {
	store := newMemStore()
	entity := seedAuditTrail(t, store)
	svc := NewAuditService(auditRepo{store: store})
	ctx := context.Background()

	vendor := store.addVendor(&domain.Vendor{Email: "peek@example.com", Status: domain.VendorStatusActive})
	if _, err := svc.EntityHistory(ctx, asVendor(vendor), entity.Type, entity.ID); !apperrors.HasCode(err, "FORBIDDEN") {
		t.Fatalf("vendor history: got %v, want FORBIDDEN", err)
	}

	analyst := store.addStaff(&domain.StaffMember{Role: domain.RoleCreditOpsAnalyst, Active: true})
	entries, err := svc.EntityHistory(ctx, asStaff(analyst), entity.Type, entity.ID)
	if err != nil {
		t.Fatalf("analyst history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].NewState != domain.StateSubmitted {
		t.Errorf("new_state = %s, want SUBMITTED", entries[0].NewState)
	}
}
