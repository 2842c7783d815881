package leadsync

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Questdigiflex/META-CRM/pkg/db/models"
	dbtypes "github.com/Questdigiflex/META-CRM/pkg/db/types"
	"github.com/Questdigiflex/META-CRM/pkg/enums"
	"github.com/Questdigiflex/META-CRM/pkg/graph"
)

// fieldAliases maps the well-known contact columns to the field names
// advertisers actually use on their forms. Matching is case-insensitive.
var fieldAliases = map[string][]string{
	"full_name": {"full_name", "name", "full name"},
	"email":     {"email", "email address"},
	"phone":     {"phone", "phone number", "mobile", "contact"},
}

// createdTimeLayouts covers the timestamp shapes the Graph API emits.
var createdTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// normalizeLead converts one raw Graph lead into the stored model. It fails
// when the lead id is missing or the submission time cannot be parsed; the
// caller drops such leads and records the error.
func normalizeLead(userID uuid.UUID, form *models.Form, raw graph.RawLead, syncedAt time.Time) (*models.Lead, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("lead has no id")
	}

	createdTime, err := parseCreatedTime(raw.CreatedTime)
	if err != nil {
		return nil, fmt.Errorf("lead %s: %w", raw.ID, err)
	}

	fields := make(dbtypes.LeadFieldList, 0, len(raw.FieldData))
	for _, field := range raw.FieldData {
		fields = append(fields, dbtypes.LeadField{
			Name:  field.Name,
			Value: strings.Join(field.Values, ", "),
		})
	}

	lead := &models.Lead{
		UserID:       userID,
		FormID:       form.FormID,
		FormName:     form.FormName,
		PageID:       form.PageID,
		PageName:     form.PageName,
		LeadID:       raw.ID,
		FullName:     extractField(fields, "full_name"),
		Email:        extractField(fields, "email"),
		Phone:        extractField(fields, "phone"),
		CreatedTime:  createdTime,
		FieldData:    fields,
		RawData:      rawDataMap(raw),
		Status:       enums.LeadStatusNew,
		LastSyncedAt: syncedAt,
	}
	return lead, nil
}

func parseCreatedTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing created_time")
	}
	for _, layout := range createdTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable created_time %q", value)
}

func extractField(fields dbtypes.LeadFieldList, canonical string) *string {
	aliases := fieldAliases[canonical]
	for _, field := range fields {
		name := strings.ToLower(strings.TrimSpace(field.Name))
		for _, alias := range aliases {
			if name == alias {
				if field.Value == "" {
					return nil
				}
				value := field.Value
				return &value
			}
		}
	}
	return nil
}

func rawDataMap(raw graph.RawLead) dbtypes.JSONMap {
	data := dbtypes.JSONMap{
		"id":           raw.ID,
		"created_time": raw.CreatedTime,
		"is_organic":   raw.IsOrganic,
	}
	setIfPresent := func(key, value string) {
		if value != "" {
			data[key] = value
		}
	}
	setIfPresent("ad_id", raw.AdID)
	setIfPresent("ad_name", raw.AdName)
	setIfPresent("adset_id", raw.AdsetID)
	setIfPresent("adset_name", raw.AdsetName)
	setIfPresent("campaign_id", raw.CampaignID)
	setIfPresent("campaign_name", raw.CampaignName)
	setIfPresent("form_id", raw.FormID)
	setIfPresent("platform", raw.Platform)
	return data
}
