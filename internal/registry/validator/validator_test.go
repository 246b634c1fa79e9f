package validator

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoregistry/internal/registry/models"
	"ecoregistry/internal/registry/models/modelstest"
	"ecoregistry/pkg/testutil"
)

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// mutateJSON marshals records, lets fn edit the generic form of each element,
// and returns the re-encoded dataset. Used to build shapes a typed record
// cannot express (missing keys, wrong types).
func mutateJSON(t *testing.T, records []models.Record, fn func(i int, obj map[string]any)) []byte {
	t.Helper()
	var generic []map[string]any
	require.NoError(t, json.Unmarshal(marshal(t, records), &generic))
	for i := range generic {
		fn(i, generic[i])
	}
	return marshal(t, generic)
}

func assertHasError(t *testing.T, res Result, substrings ...string) {
	t.Helper()
	for _, e := range res.Errors {
		match := true
		for _, s := range substrings {
			match = match && strings.Contains(e, s)
		}
		if match {
			return
		}
	}
	t.Errorf("no error containing %q in %q", substrings, res.Errors)
}

func TestValidateJSON_Shape(t *testing.T) {
	testutil.Given(t, "an empty array", func(t *testing.T) {
		res := ValidateJSON([]byte(`[]`))
		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	testutil.Given(t, "a valid dataset", func(t *testing.T) {
		res := ValidateJSON(marshal(t, modelstest.Dataset("alpha", "beta")))
		assert.True(t, res.Valid, res.Errors)
	})

	testutil.Given(t, "a top-level object", func(t *testing.T) {
		res := ValidateJSON([]byte(`{"project_id": "alpha"}`))
		assert.False(t, res.Valid)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0], "must be a JSON array")
	})

	testutil.Given(t, "malformed JSON", func(t *testing.T) {
		res := ValidateJSON([]byte(`[{"project_id": `))
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors[0], "not valid JSON")
	})

	testutil.Given(t, "an element that is not an object", func(t *testing.T) {
		res := ValidateJSON([]byte(`[42]`))
		assert.False(t, res.Valid)
		assertHasError(t, res, "record[0]", "must be a JSON object")
	})
}

func TestValidateJSON_Structure(t *testing.T) {
	records := modelstest.Dataset("alpha")

	t.Run("missing required field", func(t *testing.T) {
		data := mutateJSON(t, records, func(_ int, obj map[string]any) { delete(obj, "notes") })
		res := ValidateJSON(data)
		assert.False(t, res.Valid)
		assertHasError(t, res, `project "alpha"`, `missing required field "notes"`)
	})

	t.Run("unknown field", func(t *testing.T) {
		data := mutateJSON(t, records, func(_ int, obj map[string]any) { obj["score"] = 10 })
		res := ValidateJSON(data)
		assertHasError(t, res, `unknown field "score"`)
	})

	t.Run("null in non-nullable field", func(t *testing.T) {
		data := mutateJSON(t, records, func(_ int, obj map[string]any) { obj["featured"] = nil })
		res := ValidateJSON(data)
		assertHasError(t, res, `field "featured" must not be null`)
	})

	t.Run("wrong type", func(t *testing.T) {
		data := mutateJSON(t, records, func(_ int, obj map[string]any) { obj["test_count"] = "many" })
		res := ValidateJSON(data)
		assertHasError(t, res, `"test_count" has invalid type string`)
	})

	t.Run("incomplete security audit", func(t *testing.T) {
		data := mutateJSON(t, records, func(_ int, obj map[string]any) {
			obj["security_audit"] = map[string]any{"auditor": "Acme", "date": "2024-01-01"}
		})
		res := ValidateJSON(data)
		assertHasError(t, res, `"security_audit" is missing "report_url"`)
		assertHasError(t, res, `"security_audit" is missing "scope"`)
	})
}

func TestValidateJSON_StructuralErrorsDoNotHideOtherChecks(t *testing.T) {
	testutil.Given(t, "a record missing a key that also breaks rules and cross-record checks", func(t *testing.T) {
		records := modelstest.Dataset("alpha")
		records[0].Partnerships = []string{"ghost"}
		records[0].LicenseType = models.String("MIT")
		records[0].LaunchDate = models.String("2024-02-30")
		records[0].Confidence[models.FieldLaunchDate] = models.TierPtr(models.TierSelfReported)
		records[0].Description = models.String(strings.Repeat("d", 300))
		data := mutateJSON(t, records, func(_ int, obj map[string]any) { delete(obj, "notes") })

		res := ValidateJSON(data)

		testutil.Then(t, "every error is reported in one pass", func(t *testing.T) {
			assert.False(t, res.Valid)
			assertHasError(t, res, `missing required field "notes"`)
			assertHasError(t, res, `partnership "ghost" does not match any project_id`)
			assertHasError(t, res, `"license_type" has a value but no confidence tier`)
			assertHasError(t, res, `"launch_date" is not a valid date`)
			assertHasError(t, res, `field "description" is 300 characters`)
		})
	})

	testutil.Given(t, "a record with an unknown key and an incomplete security audit", func(t *testing.T) {
		records := modelstest.Dataset("alpha")
		records[0].Partnerships = []string{"ghost"}
		data := mutateJSON(t, records, func(_ int, obj map[string]any) {
			obj["score"] = 10
			obj["security_audit"] = map[string]any{"auditor": "Acme", "date": "2024-01-01"}
		})

		res := ValidateJSON(data)

		testutil.Then(t, "cross-record checks still run", func(t *testing.T) {
			assertHasError(t, res, `unknown field "score"`)
			assertHasError(t, res, `"security_audit" is missing "scope"`)
			assertHasError(t, res, `partnership "ghost"`)
		})
	})

	testutil.Given(t, "a record without a confidence map", func(t *testing.T) {
		data := mutateJSON(t, modelstest.Dataset("alpha"), func(_ int, obj map[string]any) { delete(obj, "confidence") })

		res := ValidateJSON(data)

		testutil.Then(t, "only the missing key is reported, not every tracked field", func(t *testing.T) {
			assertHasError(t, res, `missing required field "confidence"`)
			for _, e := range res.Errors {
				assert.NotContains(t, e, "no confidence tier")
			}
		})
	})
}

func TestValidate_Rules(t *testing.T) {
	t.Run("description length", func(t *testing.T) {
		r := modelstest.Record("alpha")
		r.Description = models.String(strings.Repeat("x", models.MaxDescriptionLength+1))
		r.Confidence[models.FieldDescription] = models.TierPtr(models.TierSelfReported)

		res := Validate([]models.Record{r})
		assertHasError(t, res, `"description" is 281 characters`)

		r.Description = models.String(strings.Repeat("x", models.MaxDescriptionLength))
		assert.True(t, Validate([]models.Record{r}).Valid)
	})

	t.Run("category must be non-empty and known", func(t *testing.T) {
		r := modelstest.Record("alpha")
		r.Category = nil
		assertHasError(t, Validate([]models.Record{r}), "at least one category")

		r.Category = []models.Category{"memes"}
		assertHasError(t, Validate([]models.Record{r}), `unknown category "memes"`)
	})

	t.Run("enums and minimums", func(t *testing.T) {
		r := modelstest.Record("alpha")
		r.Status = "abandoned"
		r.TestCount = models.Int(-1)
		r.Confidence[models.FieldTestCount] = models.TierPtr(models.TierAutoDetected)

		res := Validate([]models.Record{r})
		assertHasError(t, res, `"status" has invalid value "abandoned"`)
		assertHasError(t, res, `"test_count" must be >= 0`)
	})

	t.Run("urls must be absolute", func(t *testing.T) {
		r := modelstest.Record("alpha")
		r.RepositoryURL = models.String("github.com/example/alpha")
		assertHasError(t, Validate([]models.Record{r}), `"repository_url" is not an absolute http(s) URL`)
	})

	t.Run("invalid tier value", func(t *testing.T) {
		r := modelstest.Record("alpha")
		r.Confidence[models.FieldName] = models.TierPtr("guessed")
		assertHasError(t, Validate([]models.Record{r}), `confidence["name"] has invalid tier "guessed"`)
	})
}

func TestValidate_CrossRecord(t *testing.T) {
	t.Run("duplicate ids", func(t *testing.T) {
		res := Validate(modelstest.Dataset("alpha", "beta", "alpha"))
		assert.False(t, res.Valid)
		assertHasError(t, res, `duplicate project_id "alpha" at record[2]`)
	})

	t.Run("id format", func(t *testing.T) {
		for _, id := range []string{"Bad-Id", "-bad", "bad-", "bad id"} {
			res := Validate(modelstest.Dataset(id))
			assert.False(t, res.Valid, id)
			assertHasError(t, res, "project_id "+`"`+id+`"`, "must be lowercase")
		}
		for _, id := range []string{"a", "canton-patterns"} {
			assert.True(t, ProjectIDPattern.MatchString(id), id)
			assert.True(t, Validate(modelstest.Dataset(id)).Valid, id)
		}
	})

	t.Run("partnerships resolve", func(t *testing.T) {
		records := modelstest.Dataset("alpha", "beta")
		records[0].Partnerships = []string{"beta", "gamma"}

		res := Validate(records)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, `project "alpha": partnership "gamma" does not match any project_id`, res.Errors[0])
	})

	t.Run("confidence biconditional", func(t *testing.T) {
		records := modelstest.Dataset("alpha")
		records[0].LicenseType = models.String("MIT")

		res := Validate(records)
		assertHasError(t, res, `project "alpha"`, `"license_type" has a value but no confidence tier`)
	})

	t.Run("dates and timestamps", func(t *testing.T) {
		records := modelstest.Dataset("alpha")
		records[0].LaunchDate = models.String("2024-02-30")
		records[0].Confidence[models.FieldLaunchDate] = models.TierPtr(models.TierSelfReported)
		records[0].UpdatedAt = "yesterday"

		res := Validate(records)
		assertHasError(t, res, `"launch_date" is not a valid date`)
		assertHasError(t, res, `"updated_at" is not a valid date-time`)
	})

	t.Run("errors accumulate across records", func(t *testing.T) {
		records := modelstest.Dataset("alpha", "beta")
		records[0].Name = ""
		records[1].Category = nil

		res := Validate(records)
		assertHasError(t, res, `project "alpha"`, `"name" must not be empty`)
		assertHasError(t, res, `project "beta"`, "at least one category")
	})
}
