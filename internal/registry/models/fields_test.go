package models

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFieldRegistryCoversRecord guards against the registry drifting from the
// struct: every JSON key on Record must have exactly one descriptor.
func TestFieldRegistryCoversRecord(t *testing.T) {
	typ := reflect.TypeOf(Record{})
	seen := make(map[string]bool)
	for i := 0; i < typ.NumField(); i++ {
		tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		_, ok := LookupField(tag)
		assert.True(t, ok, "no descriptor for %q", tag)
		seen[tag] = true
	}
	assert.Len(t, Fields(), len(seen))
}

func TestManagedFields(t *testing.T) {
	managed := []string{
		FieldProjectID, FieldCategory, FieldCreatedAt, FieldUpdatedAt,
		FieldClaimed, FieldClaimedBy, FieldClaimedAt, FieldConfidence,
		FieldLastAutoRefresh, FieldNotes, FieldPartnerships,
	}
	for _, name := range managed {
		assert.True(t, IsManaged(name), name)
	}
	assert.False(t, IsManaged(FieldLicenseType))
	assert.False(t, IsManaged("no_such_field"))

	for _, f := range TrackedFields() {
		assert.False(t, f.Managed, f.Name)
	}
}

func TestFieldValue(t *testing.T) {
	r := Record{Name: "Alpha", Status: StatusProduction}
	name, _ := LookupField(FieldName)
	license, _ := LookupField(FieldLicenseType)
	stack, _ := LookupField(FieldTechStack)

	assert.Equal(t, "Alpha", name.Value(&r))
	assert.True(t, license.IsNull(&r))
	assert.True(t, stack.IsNull(&r))

	r.LicenseType = String("MIT")
	r.TechStack = []string{}
	assert.Equal(t, "MIT", license.Value(&r))
	assert.False(t, stack.IsNull(&r), "empty list is a value, not null")
}

func TestSetField(t *testing.T) {
	t.Run("assigns and clears collected values", func(t *testing.T) {
		var r Record
		require.NoError(t, r.SetField(FieldSDKVersion, "2.9.0"))
		require.NoError(t, r.SetField(FieldHasTests, true))
		require.NoError(t, r.SetField(FieldTestCount, 12))
		require.NoError(t, r.SetField(FieldCIStatus, CIPassing))
		require.NoError(t, r.SetField(FieldTechStack, []string{"Daml", "TypeScript"}))

		assert.Equal(t, "2.9.0", *r.SDKVersion)
		assert.True(t, *r.HasTests)
		assert.Equal(t, 12, *r.TestCount)
		assert.Equal(t, CIPassing, *r.CIStatus)
		assert.Equal(t, []string{"Daml", "TypeScript"}, r.TechStack)

		require.NoError(t, r.SetField(FieldTestCount, nil))
		assert.Nil(t, r.TestCount)
	})

	t.Run("rejects wrong value types", func(t *testing.T) {
		var r Record
		assert.Error(t, r.SetField(FieldTestCount, "12"))
		assert.Error(t, r.SetField(FieldHasCI, "yes"))
	})

	t.Run("rejects fields outside collection", func(t *testing.T) {
		var r Record
		err := r.SetField(FieldFeatured, true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be set")
	})
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, ValuesEqual(nil, nil))
	assert.False(t, ValuesEqual(nil, "x"))
	assert.True(t, ValuesEqual([]string{"a"}, []string{"a"}))
	assert.False(t, ValuesEqual([]string{"a"}, []string{"b"}))
	assert.True(t, ValuesEqual(CIStatus("passing"), "passing"))
	assert.True(t, ValuesEqual(3, 3))
	assert.False(t, ValuesEqual(true, false))
}

func TestClone(t *testing.T) {
	r := Record{
		ProjectID:  "alpha",
		TechStack:  []string{"Go"},
		TestCount:  Int(3),
		Confidence: map[string]*Tier{FieldTestCount: TierPtr(TierAutoDetected)},
	}
	c := r.Clone()
	c.TechStack[0] = "Rust"
	*c.TestCount = 9
	*c.Confidence[FieldTestCount] = TierVerified

	assert.Equal(t, "Go", r.TechStack[0])
	assert.Equal(t, 3, *r.TestCount)
	assert.Equal(t, TierAutoDetected, *r.Confidence[FieldTestCount])
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{Status: StatusProduction, Category: []Category{CategoryDeFi, CategoryWallet}, OpenSource: Bool(true), Featured: true},
		{Status: StatusProduction, Category: []Category{CategoryDeFi}, Claimed: true},
		{Status: StatusTestnet, Category: []Category{CategoryData}, OpenSource: Bool(false)},
	}

	s := Summarize(records, now)

	assert.Equal(t, 3, s.TotalProjects)
	assert.Equal(t, 2, s.ByStatus[StatusProduction])
	assert.Equal(t, 1, s.ByStatus[StatusTestnet])
	assert.Equal(t, 2, s.ByCategory[CategoryDeFi])
	assert.Equal(t, 1, s.ByCategory[CategoryWallet])
	assert.Equal(t, 1, s.OpenSource)
	assert.Equal(t, 1, s.Claimed)
	assert.Equal(t, 1, s.Featured)
	assert.Equal(t, "2025-03-01T12:00:00Z", s.GeneratedAt)
}
