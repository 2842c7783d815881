package enums

import "fmt"

// DatePreset is the fixed set of reporting windows accepted by the insights API.
type DatePreset string

const (
	DatePresetToday     DatePreset = "today"
	DatePresetYesterday DatePreset = "yesterday"
	DatePresetLast7d    DatePreset = "last_7d"
	DatePresetLast30d   DatePreset = "last_30d"
	DatePresetLast90d   DatePreset = "last_90d"
	DatePresetThisMonth DatePreset = "this_month"
	DatePresetLastMonth DatePreset = "last_month"
)

var validDatePresets = []DatePreset{
	DatePresetToday,
	DatePresetYesterday,
	DatePresetLast7d,
	DatePresetLast30d,
	DatePresetLast90d,
	DatePresetThisMonth,
	DatePresetLastMonth,
}

// String implements fmt.Stringer.
func (p DatePreset) String() string {
	return string(p)
}

// IsValid reports whether the value is an accepted date preset.
func (p DatePreset) IsValid() bool {
	for _, candidate := range validDatePresets {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseDatePreset converts raw input into DatePreset.
func ParseDatePreset(value string) (DatePreset, error) {
	for _, candidate := range validDatePresets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid date preset %q", value)
}
