package domain

import "testing"

func TestNewRecord(t *testing.T) {
	rec, err := NewRecord("poi-1", RecordFields{
		Name:      "Tea House",
		Category:  "teashop",
		City:      "Nantou",
		Town:      "Lugu",
		Address:   "No. 1, Mountain Rd",
		Tel:       "049-1234567",
		CreatedAt: 1651334400,
		Document:  "high mountain oolong tastings",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "poi-1" {
		t.Errorf("ID = %q, want poi-1", rec.ID())
	}
	if rec.Name() != "Tea House" {
		t.Errorf("Name = %q, want Tea House", rec.Name())
	}
	if rec.DisplayName() != "" {
		t.Errorf("DisplayName = %q, want empty", rec.DisplayName())
	}
}

func TestNewRecord_Validation(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		fields RecordFields
	}{
		{"missing id", "", RecordFields{Name: "x", CreatedAt: 1}},
		{"missing name", "poi-1", RecordFields{CreatedAt: 1}},
		{"zero createdAt", "poi-1", RecordFields{Name: "x"}},
		{"negative createdAt", "poi-1", RecordFields{Name: "x", CreatedAt: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRecord(tt.id, tt.fields); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestRecord_PresentationName(t *testing.T) {
	rec, err := NewRecord("poi-1", RecordFields{Name: "Tea House", CreatedAt: 1})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	if got := rec.PresentationName(); got != "Tea House" {
		t.Errorf("PresentationName = %q, want Tea House", got)
	}

	renamed := rec.WithDisplayName("Mountain Tea House")
	if got := renamed.PresentationName(); got != "Mountain Tea House" {
		t.Errorf("PresentationName after override = %q, want Mountain Tea House", got)
	}

	// The override never touches the canonical name.
	if renamed.Name() != "Tea House" {
		t.Errorf("Name after override = %q, want Tea House", renamed.Name())
	}

	// The original value is unchanged (copy semantics).
	if rec.DisplayName() != "" {
		t.Errorf("original DisplayName = %q, want empty", rec.DisplayName())
	}
}

func TestRecord_WithVector(t *testing.T) {
	rec, err := NewRecord("poi-1", RecordFields{Name: "x", CreatedAt: 1})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	withVec := rec.WithVector([]float32{0.1, 0.2})
	if len(withVec.Vector()) != 2 {
		t.Errorf("Vector len = %d, want 2", len(withVec.Vector()))
	}
	if rec.Vector() != nil {
		t.Error("original record should have no vector")
	}
}
