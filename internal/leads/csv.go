package leads

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
)

var csvBaseHeader = []string{
	"lead_id",
	"form_id",
	"form_name",
	"page_id",
	"page_name",
	"full_name",
	"email",
	"phone",
	"status",
	"notes",
	"created_time",
	"last_synced_at",
}

// writeCSV renders leads as CSV: the fixed columns first, then one column per
// distinct submitted field name in first-seen order.
func writeCSV(w io.Writer, rows []models.Lead) error {
	fieldNames := collectFieldNames(rows)

	cw := csv.NewWriter(w)
	if err := cw.Write(append(append([]string{}, csvBaseHeader...), fieldNames...)); err != nil {
		return err
	}

	for i := range rows {
		record := baseRecord(&rows[i])
		record = append(record, fieldValues(&rows[i], fieldNames)...)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func collectFieldNames(rows []models.Lead) []string {
	seen := map[string]bool{}
	var names []string
	for i := range rows {
		for _, field := range rows[i].FieldData {
			if !seen[field.Name] {
				seen[field.Name] = true
				names = append(names, field.Name)
			}
		}
	}
	return names
}

func baseRecord(l *models.Lead) []string {
	return []string{
		l.LeadID,
		l.FormID,
		deref(l.FormName),
		deref(l.PageID),
		deref(l.PageName),
		deref(l.FullName),
		deref(l.Email),
		deref(l.Phone),
		l.Status.String(),
		deref(l.Notes),
		l.CreatedTime.UTC().Format(time.RFC3339),
		l.LastSyncedAt.UTC().Format(time.RFC3339),
	}
}

func fieldValues(l *models.Lead, names []string) []string {
	byName := map[string]string{}
	for _, field := range l.FieldData {
		byName[field.Name] = field.Value
	}

	values := make([]string, 0, len(names))
	for _, name := range names {
		values = append(values, byName[name])
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
