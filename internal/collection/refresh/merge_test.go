package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/models/modelstest"
	"ecoregistry/pkg/testutil"
)

func TestMergeFields(t *testing.T) {
	testutil.Given(t, "a record with a self-reported license and no SDK version", func(t *testing.T) {
		newRecord := func() models.Record {
			r := modelstest.Record("alpha")
			r.LicenseType = models.String("MIT")
			r.Confidence[models.FieldLicenseType] = models.TierPtr(models.TierSelfReported)
			return r
		}

		testutil.When(t, "collection detects a new SDK version and a different license", func(t *testing.T) {
			r := newRecord()
			out := mergeFields(&r, map[string]any{
				models.FieldSDKVersion:  "2.9.0",
				models.FieldLicenseType: "Apache-2.0",
			})

			testutil.Then(t, "the untiered field is updated", func(t *testing.T) {
				require.NotNil(t, r.SDKVersion)
				assert.Equal(t, "2.9.0", *r.SDKVersion)
				assert.Equal(t, []string{models.FieldSDKVersion}, out.Updated)
			})
			testutil.Then(t, "the self-reported value is kept with a note", func(t *testing.T) {
				assert.Equal(t, "MIT", *r.LicenseType)
				assert.Equal(t, []string{models.FieldLicenseType}, out.Kept)
				assert.Contains(t, out.Notes, "kept self_reported value of license_type; detected value differs")
			})
		})

		testutil.When(t, "collection confirms the stored license", func(t *testing.T) {
			r := newRecord()
			out := mergeFields(&r, map[string]any{models.FieldLicenseType: "MIT"})

			testutil.Then(t, "nothing is updated or kept", func(t *testing.T) {
				assert.Empty(t, out.Updated)
				assert.Empty(t, out.Kept)
				assert.Empty(t, out.Notes)
			})
		})

		testutil.When(t, "collection returns a registry-managed field", func(t *testing.T) {
			r := newRecord()
			out := mergeFields(&r, map[string]any{models.FieldProjectID: "hijacked", "not_a_field": 1})

			testutil.Then(t, "the values are ignored with notes", func(t *testing.T) {
				assert.Equal(t, "alpha", r.ProjectID)
				assert.Empty(t, out.Updated)
				assert.Len(t, out.Notes, 2)
			})
		})
	})
}
