package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coverscope/docintel/core"
	"github.com/coverscope/docintel/storage"
)

func TestCoreRecordLifecycle(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docID := core.ID(11)
	effective := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	premium := 24500.0

	record := &core.CoreRecord{
		DocumentId:    docID,
		PolicyNumber:  "GL-2025-88341",
		EffectiveDate: &effective,
		InsuredName:   "Acme Fabrication LLC",
		TotalPremium:  &premium,
		Confidence:    0.92,
		RawResponse:   `{"policy_number": "GL-2025-88341"}`,
	}
	saved, err := repos.Records.SaveCoreRecord(ctx, record)
	if err != nil {
		t.Fatalf("Failed to save core record: %v", err)
	}
	if saved.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	got, err := repos.Records.GetCoreRecord(ctx, docID)
	if err != nil {
		t.Fatalf("Failed to get core record: %v", err)
	}
	if got.PolicyNumber != "GL-2025-88341" {
		t.Fatalf("Expected policy number to round-trip, got '%s'", got.PolicyNumber)
	}
	if got.EffectiveDate == nil || !got.EffectiveDate.Equal(effective) {
		t.Fatalf("Expected effective date to round-trip, got %v", got.EffectiveDate)
	}
	if got.ExpirationDate != nil {
		t.Fatal("Expected nil expiration date to round-trip as nil")
	}
	if got.TotalPremium == nil || *got.TotalPremium != premium {
		t.Fatalf("Expected premium to round-trip, got %v", got.TotalPremium)
	}

	// Saving again replaces, never duplicates
	record.PolicyNumber = "GL-2025-88341-A"
	if _, err := repos.Records.SaveCoreRecord(ctx, record); err != nil {
		t.Fatalf("Failed to re-save core record: %v", err)
	}
	got, _ = repos.Records.GetCoreRecord(ctx, docID)
	if got.PolicyNumber != "GL-2025-88341-A" {
		t.Fatalf("Expected replacement, got '%s'", got.PolicyNumber)
	}

	if err := repos.Records.DeleteCoreRecord(ctx, docID); err != nil {
		t.Fatalf("Failed to delete core record: %v", err)
	}
	if _, err := repos.Records.GetCoreRecord(ctx, docID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestCategoryRecordLifecycle(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docID := core.ID(12)
	limit := 1000000.0
	retro := time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)

	records := []*core.CategoryRecord{
		{
			DocumentId: docID,
			CategoryId: core.CategoryGeneralLiability,
			Subtype:    "occurrence",
			Common:     core.CommonFields{EachOccurrenceLimit: &limit},
			Details:    map[string]any{"medical_expense_limit": 10000.0},
			Confidence: 0.88,
		},
		{
			DocumentId: docID,
			CategoryId: core.CategoryCyberLiability,
			Common:     core.CommonFields{ClaimsMade: true, RetroactiveDate: &retro},
			Details:    map[string]any{},
			Confidence: 0.81,
		},
	}
	if _, err := repos.Records.AddCategoryRecords(ctx, records...); err != nil {
		t.Fatalf("Failed to add category records: %v", err)
	}

	got, err := repos.Records.GetCategoryRecords(ctx, docID)
	if err != nil {
		t.Fatalf("Failed to get category records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 category records, got %d", len(got))
	}

	// Ordered by category ID: cyber_liability before general_liability
	if got[0].CategoryId != core.CategoryCyberLiability {
		t.Fatalf("Expected cyber_liability first, got %s", got[0].CategoryId)
	}
	if !got[0].Common.ClaimsMade {
		t.Fatal("Expected claims-made flag to round-trip")
	}
	if got[0].Common.RetroactiveDate == nil || !got[0].Common.RetroactiveDate.Equal(retro) {
		t.Fatalf("Expected retroactive date to round-trip, got %v", got[0].Common.RetroactiveDate)
	}
	if got[1].Details["medical_expense_limit"] != 10000.0 {
		t.Fatalf("Expected details map to round-trip, got %v", got[1].Details)
	}

	if err := repos.Records.DeleteCategoryRecords(ctx, docID); err != nil {
		t.Fatalf("Failed to delete category records: %v", err)
	}
	got, err = repos.Records.GetCategoryRecords(ctx, docID)
	if err != nil {
		t.Fatalf("Failed to get category records: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Expected 0 category records after delete, got %d", len(got))
	}
}

func TestCategoryRecordReplacesSameCategory(t *testing.T) {
	repos, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Close()

	ctx := context.Background()
	docID := core.ID(13)

	for i := 0; i < 2; i++ {
		record := &core.CategoryRecord{
			DocumentId: docID,
			CategoryId: core.CategoryFlood,
			Details:    map[string]any{},
		}
		if _, err := repos.Records.AddCategoryRecords(ctx, record); err != nil {
			t.Fatalf("Failed to add category record: %v", err)
		}
	}

	got, err := repos.Records.GetCategoryRecords(ctx, docID)
	if err != nil {
		t.Fatalf("Failed to get category records: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected same category to overwrite, got %d records", len(got))
	}
}
