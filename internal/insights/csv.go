package insights

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	pkgerrors "github.com/Questdigiflex/META-CRM/pkg/errors"
)

// csvBaseHeader fixes the column order for the metrics the Graph query always
// requests. Breakdown columns vary per query and are appended after these.
var csvBaseHeader = []string{
	"campaign_name",
	"adset_name",
	"ad_name",
	"impressions",
	"clicks",
	"spend",
	"cpc",
	"cpm",
	"ctr",
	"reach",
	"frequency",
	"date_start",
	"date_stop",
}

// writeInsightsCSV renders the raw insights rows as CSV: the fixed metric
// columns first, then any extra keys (breakdowns) sorted by name.
func writeInsightsCSV(w io.Writer, data json.RawMessage) error {
	var rows []map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode insights data")
		}
	}

	extras := collectExtraColumns(rows)
	header := append(append([]string{}, csvBaseHeader...), extras...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		for _, key := range header {
			record = append(record, cellString(row[key]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func collectExtraColumns(rows []map[string]any) []string {
	base := map[string]bool{}
	for _, key := range csvBaseHeader {
		base[key] = true
	}

	seen := map[string]bool{}
	var extras []string
	for _, row := range rows {
		for key, value := range row {
			if base[key] || seen[key] {
				continue
			}
			// nested structures like action lists do not flatten into a cell
			if _, ok := value.([]any); ok {
				continue
			}
			if _, ok := value.(map[string]any); ok {
				continue
			}
			seen[key] = true
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	return extras
}

func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}
