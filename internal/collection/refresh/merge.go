package refresh

import (
	"fmt"
	"sort"

	"ecoregistry/internal/registry/models"
)

// mergeOutcome lists what happened to each collected field.
type mergeOutcome struct {
	Updated []string
	Kept    []string
	Notes   []string
}

// mergeFields writes collected values into r. A value replaces the stored one
// only when the field has no tier yet or is itself auto-detected; replacing a
// verified or self-reported value with an automatic one would move the field
// into auto_detected, which is not a legal transition.
func mergeFields(r *models.Record, collected map[string]any) mergeOutcome {
	var out mergeOutcome

	names := make([]string, 0, len(collected))
	for name := range collected {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := collected[name]
		field, ok := models.LookupField(name)
		if !ok || field.Managed {
			out.Notes = append(out.Notes, fmt.Sprintf("ignored collected value for %s: not a collectable field", name))
			continue
		}
		if models.ValuesEqual(field.Value(r), value) {
			continue
		}

		tier := r.Confidence[name]
		if tier != nil && *tier != models.TierAutoDetected {
			out.Kept = append(out.Kept, name)
			out.Notes = append(out.Notes, fmt.Sprintf("kept %s value of %s; detected value differs", *tier, name))
			continue
		}
		if err := r.SetField(name, value); err != nil {
			out.Notes = append(out.Notes, err.Error())
			continue
		}
		out.Updated = append(out.Updated, name)
	}
	return out
}
