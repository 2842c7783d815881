package leads

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
)

func TestWriteCSVFlattensFieldData(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	name := "Jane Doe"
	email := "jane@example.com"
	rows := []models.Lead{
		{
			ID:          uuid.New(),
			LeadID:      "lead-1",
			FormID:      "form-1",
			FullName:    &name,
			Email:       &email,
			CreatedTime: created,
			FieldData: dbtypes.LeadFieldList{
				{Name: "email", Value: email},
				{Name: "company", Value: "Acme"},
			},
			Status:       enums.LeadStatusNew,
			LastSyncedAt: created,
		},
		{
			ID:          uuid.New(),
			LeadID:      "lead-2",
			FormID:      "form-1",
			CreatedTime: created.Add(time.Minute),
			FieldData: dbtypes.LeadFieldList{
				{Name: "budget", Value: "1000"},
			},
			Status:       enums.LeadStatusContacted,
			LastSyncedAt: created,
		},
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(records))
	}

	header := records[0]
	wantTail := []string{"email", "company", "budget"}
	if len(header) != len(csvBaseHeader)+len(wantTail) {
		t.Fatalf("unexpected header width %d", len(header))
	}
	for i, name := range wantTail {
		if got := header[len(csvBaseHeader)+i]; got != name {
			t.Fatalf("expected field column %q at position %d, got %q", name, i, got)
		}
	}

	// first row has email and company set, budget empty
	first := records[1]
	if first[0] != "lead-1" {
		t.Fatalf("expected lead-1 first, got %s", first[0])
	}
	if first[len(csvBaseHeader)] != email || first[len(csvBaseHeader)+1] != "Acme" {
		t.Fatalf("unexpected flattened values: %v", first[len(csvBaseHeader):])
	}
	if first[len(csvBaseHeader)+2] != "" {
		t.Fatalf("expected empty budget for lead-1, got %q", first[len(csvBaseHeader)+2])
	}

	second := records[2]
	if second[len(csvBaseHeader)+2] != "1000" {
		t.Fatalf("expected budget 1000 for lead-2, got %q", second[len(csvBaseHeader)+2])
	}
	if second[8] != "contacted" {
		t.Fatalf("expected status column, got %q", second[8])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv back: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}
