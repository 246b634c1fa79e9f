package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ecoregistry/internal/registry/models"
)

var securityAuditKeys = []string{"auditor", "date", "report_url", "scope"}

// decodeEntry checks the raw shape of one element (object, required keys,
// unknown keys, nulls in non-nullable fields, JSON types) and decodes it.
// Shape errors do not stop decoding: a record that unmarshals cleanly still
// goes through every rule and cross-record check.
func decodeEntry(index int, raw json.RawMessage) (entry, []string) {
	e := entry{index: index}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return e, []string{fmt.Sprintf("%s: must be a JSON object", e.label())}
	}

	if rawID, ok := obj[models.FieldProjectID]; ok {
		if err := json.Unmarshal(rawID, &e.id); err == nil && !isNull(rawID) {
			e.hasID = true
		}
	}
	label := e.label()

	var errs []string
	for _, f := range models.Fields() {
		v, ok := obj[f.Name]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("%s: missing required field %q", label, f.Name))
			e.markAbsent(f.Name)
		case isNull(v) && !f.Nullable:
			errs = append(errs, fmt.Sprintf("%s: field %q must not be null", label, f.Name))
			e.markAbsent(f.Name)
		}
	}
	for _, k := range sortedKeys(obj) {
		if _, ok := models.LookupField(k); !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown field %q", label, k))
		}
	}
	if audit, ok := obj[models.FieldSecurityAudit]; ok && !isNull(audit) {
		errs = append(errs, prefix(label, checkAuditShape(audit))...)
	}

	var record models.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		errs = append(errs, fmt.Sprintf("%s: %s", label, describeDecodeError(err)))
		return e, errs
	}
	e.record = &record
	e.decoded = true
	return e, errs
}

func checkAuditShape(raw json.RawMessage) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return []string{`field "security_audit" must be an object or null`}
	}
	var errs []string
	for _, k := range securityAuditKeys {
		v, ok := obj[k]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf(`field "security_audit" is missing %q`, k))
		case isNull(v) && k != "report_url":
			errs = append(errs, fmt.Sprintf(`field "security_audit.%s" must not be null`, k))
		}
	}
	for _, k := range sortedKeys(obj) {
		known := false
		for _, allowed := range securityAuditKeys {
			known = known || k == allowed
		}
		if !known {
			errs = append(errs, fmt.Sprintf(`field "security_audit" has unknown key %q`, k))
		}
	}
	return errs
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q has invalid type %s, expected %s", typeErr.Field, typeErr.Value, typeErr.Type)
	}
	return fmt.Sprintf("cannot decode record: %v", err)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
