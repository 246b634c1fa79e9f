// Package validator is the publication gate for a dataset of project records.
//
// Checks run in a fixed order and accumulate: one bad record never hides the
// problems of another, so a caller can print every error at once.
//
//  1. structural conformance (required keys, types, enums, lengths, formats)
//  2. the dataset must be a JSON array (otherwise stop after step 1)
//  3. project_id uniqueness
//  4. project_id format
//  5. partnership references resolve
//  6. confidence keys and the value/tier null biconditional
//  7. date and timestamp parseability
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"ecoregistry/internal/registry/models"
)

// ProjectIDPattern is the accepted project_id format.
var ProjectIDPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Result is the outcome of a validation run. Errors is empty iff Valid.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// entry is one dataset element as seen by the cross-record checks. Records
// that failed to decode still contribute their id, if it was a string.
type entry struct {
	index   int
	id      string
	hasID   bool
	record  *models.Record
	decoded bool
	// absent holds required fields that were missing or null in the raw
	// element; they are already reported.
	absent map[string]bool
}

func (e *entry) markAbsent(field string) {
	if e.absent == nil {
		e.absent = make(map[string]bool)
	}
	e.absent[field] = true
}

func (e entry) label() string {
	if e.hasID && e.id != "" {
		return fmt.Sprintf("project %q", e.id)
	}
	return fmt.Sprintf("record[%d]", e.index)
}

// ValidateJSON validates a serialized dataset.
func ValidateJSON(data []byte) Result {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return newResult([]string{"dataset is not valid JSON"})
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return newResult([]string{"dataset must be a JSON array of project records"})
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return newResult([]string{fmt.Sprintf("dataset is not a JSON array: %v", err)})
	}

	var errs []string
	entries := make([]entry, 0, len(elements))
	for i, raw := range elements {
		e, structural := decodeEntry(i, raw)
		errs = append(errs, structural...)
		if e.decoded {
			errs = append(errs, prefix(e.label(), checkRules(e.record))...)
		}
		entries = append(entries, e)
	}

	errs = append(errs, crossChecks(entries)...)
	return newResult(errs)
}

// Validate runs the typed rules and the cross-record checks over records that
// are already in memory, for example before a refreshed dataset is saved.
func Validate(records []models.Record) Result {
	var errs []string
	entries := make([]entry, 0, len(records))
	for i := range records {
		e := entry{index: i, id: records[i].ProjectID, hasID: true, record: &records[i], decoded: true}
		errs = append(errs, prefix(e.label(), checkRules(e.record))...)
		entries = append(entries, e)
	}
	errs = append(errs, crossChecks(entries)...)
	return newResult(errs)
}

func prefix(label string, msgs []string) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = label + ": " + m
	}
	return out
}
