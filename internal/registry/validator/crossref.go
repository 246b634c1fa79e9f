package validator

import (
	"fmt"
	"sort"

	"ecoregistry/internal/registry/confidence"
	"ecoregistry/internal/registry/models"
)

func crossChecks(entries []entry) []string {
	var errs []string
	errs = append(errs, checkUniqueIDs(entries)...)
	errs = append(errs, checkIDFormat(entries)...)
	errs = append(errs, checkPartnerships(entries)...)
	errs = append(errs, checkConfidence(entries)...)
	errs = append(errs, checkDates(entries)...)
	return errs
}

func checkUniqueIDs(entries []entry) []string {
	var errs []string
	first := make(map[string]int)
	for _, e := range entries {
		if !e.hasID {
			continue
		}
		if idx, ok := first[e.id]; ok {
			errs = append(errs, fmt.Sprintf("duplicate project_id %q at record[%d] (first seen at record[%d])", e.id, e.index, idx))
			continue
		}
		first[e.id] = e.index
	}
	return errs
}

func checkIDFormat(entries []entry) []string {
	var errs []string
	for _, e := range entries {
		if !e.hasID {
			continue
		}
		if !ProjectIDPattern.MatchString(e.id) {
			errs = append(errs, fmt.Sprintf("record[%d]: project_id %q must be lowercase letters, digits and inner hyphens", e.index, e.id))
		}
	}
	return errs
}

func checkPartnerships(entries []entry) []string {
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.hasID {
			ids[e.id] = true
		}
	}
	var errs []string
	for _, e := range entries {
		if !e.decoded {
			continue
		}
		for _, p := range e.record.Partnerships {
			if !ids[p] {
				errs = append(errs, fmt.Sprintf("%s: partnership %q does not match any project_id", e.label(), p))
			}
		}
	}
	return errs
}

func checkConfidence(entries []entry) []string {
	var errs []string
	for _, e := range entries {
		// Without a confidence map every tracked value would be reported again.
		if !e.decoded || e.absent[models.FieldConfidence] {
			continue
		}
		errs = append(errs, prefix(e.label(), confidence.ValidateMap(e.record))...)
	}
	return errs
}

func checkDates(entries []entry) []string {
	var errs []string
	for _, e := range entries {
		if !e.decoded {
			continue
		}
		errs = append(errs, prefix(e.label(), dateErrors(e.record))...)
	}
	return errs
}

func dateErrors(r *models.Record) []string {
	var errs []string
	for _, f := range models.Fields() {
		if f.Kind == models.KindOther {
			continue
		}
		s, ok := f.Value(r).(string)
		if !ok {
			continue
		}
		if msg := checkDateValue(f.Name, s, f.Kind); msg != "" {
			errs = append(errs, msg)
		}
	}
	if r.SecurityAudit != nil {
		if msg := checkDateValue("security_audit.date", r.SecurityAudit.Date, models.KindDate); msg != "" {
			errs = append(errs, msg)
		}
	}
	return errs
}

func checkDateValue(name, value string, kind models.Kind) string {
	switch kind {
	case models.KindDate:
		if _, err := models.ParseDate(value); err != nil {
			return fmt.Sprintf("field %q is not a valid date (YYYY-MM-DD): %q", name, value)
		}
	case models.KindTimestamp:
		if _, err := models.ParseTimestamp(value); err != nil {
			return fmt.Sprintf("field %q is not a valid date-time (RFC 3339): %q", name, value)
		}
	}
	return ""
}

func sortedTierKeys(m map[string]*models.Tier) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
