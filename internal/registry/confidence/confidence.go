// Package confidence maintains the provenance tier of every tracked record
// field and the invariant that a field holds a value iff it holds a tier.
package confidence

import (
	"fmt"
	"sort"

	"ecoregistry/internal/registry/models"
)

// Source is the actor that asserted a field value.
type Source string

const (
	SourceAutomatic    Source = "automatic"
	SourceStaff        Source = "staff"
	SourceSelfReported Source = "self_reported"
)

// IsValid checks if the source is one of the supported enum values.
func (s Source) IsValid() bool {
	switch s {
	case SourceAutomatic, SourceStaff, SourceSelfReported:
		return true
	}
	return false
}

// Tier maps a source to the tier it grants.
func (s Source) Tier() models.Tier {
	switch s {
	case SourceAutomatic:
		return models.TierAutoDetected
	case SourceStaff:
		return models.TierVerified
	default:
		return models.TierSelfReported
	}
}

// AutoDetectedFields are produced by the collectors.
var AutoDetectedFields = []string{
	models.FieldSDKVersion,
	models.FieldLastVerifiedActivity,
	models.FieldLicenseType,
	models.FieldHasTests,
	models.FieldTestCount,
	models.FieldHasCI,
	models.FieldCIStatus,
	models.FieldHasDocumentation,
	models.FieldDocumentationURL,
	models.FieldTechStack,
}

// StaffFields may only be asserted by registry staff.
var StaffFields = []string{
	models.FieldFoundationMember,
	models.FieldValidatorStatus,
	models.FieldFeatured,
	models.FieldSecurityAudit,
	models.FieldStatus,
}

var defaultSources = func() map[string]Source {
	m := make(map[string]Source, len(AutoDetectedFields)+len(StaffFields))
	for _, f := range AutoDetectedFields {
		m[f] = SourceAutomatic
	}
	for _, f := range StaffFields {
		m[f] = SourceStaff
	}
	return m
}()

// DefaultSource returns the source a field is attributed to when the caller
// does not say otherwise. Anything not auto-detected or staff-only is
// self-reported by the claimant.
func DefaultSource(field string) Source {
	if s, ok := defaultSources[field]; ok {
		return s
	}
	return SourceSelfReported
}

// AssignTier returns the tier for a field value asserted by source, or nil when
// the value is null or the field is registry-managed.
func AssignTier(field string, value any, source Source) *models.Tier {
	if value == nil || models.IsManaged(field) {
		return nil
	}
	return models.TierPtr(source.Tier())
}

// IsValidTransition reports whether a field's tier may move from one tier to
// another when it is re-verified. A field without a tier may take any tier.
//
// Allowed:
//   - any tier to itself
//   - any tier to verified
//   - verified to self_reported (evidence revoked)
//   - auto_detected to self_reported (claimant override)
func IsValidTransition(from *models.Tier, to models.Tier) bool {
	if from == nil {
		return true
	}
	switch {
	case *from == to:
		return true
	case to == models.TierVerified:
		return true
	case to == models.TierSelfReported:
		return *from == models.TierVerified || *from == models.TierAutoDetected
	}
	return false
}

// BuildMap computes a fresh confidence map for r, ignoring r.Confidence.
// Every tracked field gets an entry: null values map to a null tier; otherwise
// the tier from existing is kept when present, else the field's default
// source decides.
func BuildMap(r *models.Record, existing map[string]*models.Tier) map[string]*models.Tier {
	out := make(map[string]*models.Tier)
	for _, f := range models.TrackedFields() {
		value := f.Value(r)
		if value == nil {
			out[f.Name] = nil
			continue
		}
		if prior, ok := existing[f.Name]; ok && prior != nil {
			out[f.Name] = models.TierPtr(*prior)
			continue
		}
		out[f.Name] = AssignTier(f.Name, value, DefaultSource(f.Name))
	}
	return out
}

// ValidateMap checks r.Confidence against r's values. Each problem is reported
// as its own field-scoped message, sorted for stable output.
func ValidateMap(r *models.Record) []string {
	var errs []string

	keys := make([]string, 0, len(r.Confidence))
	for k := range r.Confidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f, ok := models.LookupField(k)
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("confidence key %q is not a record field", k))
		case f.Managed:
			errs = append(errs, fmt.Sprintf("confidence key %q is a registry-managed field and must not carry a tier", k))
		}
	}

	for _, f := range models.TrackedFields() {
		tier := r.Confidence[f.Name]
		null := f.IsNull(r)
		switch {
		case null && tier != nil:
			errs = append(errs, fmt.Sprintf("field %q is null but has confidence %q", f.Name, *tier))
		case !null && tier == nil:
			errs = append(errs, fmt.Sprintf("field %q has a value but no confidence tier", f.Name))
		}
	}
	return errs
}

// Reverify changes the tier of one field to the tier granted by source. The
// field must hold a value and the transition must be legal.
func Reverify(r *models.Record, field string, source Source) error {
	f, ok := models.LookupField(field)
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}
	if f.Managed {
		return fmt.Errorf("field %q is registry-managed", field)
	}
	if f.IsNull(r) {
		return fmt.Errorf("field %q is null and cannot carry a tier", field)
	}
	to := source.Tier()
	from := r.Confidence[field]
	if !IsValidTransition(from, to) {
		return fmt.Errorf("illegal tier transition for %q: %s -> %s", field, *from, to)
	}
	if r.Confidence == nil {
		r.Confidence = make(map[string]*models.Tier)
	}
	r.Confidence[field] = models.TierPtr(to)
	return nil
}
