package collectors

import (
	"context"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"ecoregistry/internal/registry/models"
)

// testConvention is one ecosystem's test naming rules. Name patterns apply to
// the file name without its extension; dirs mark every file of the
// ecosystem below them as a test.
type testConvention struct {
	suffixes []string
	prefixes []string
	dirs     []string
}

var (
	jvmConvention = testConvention{
		suffixes: []string{"Test", "Tests"},
		prefixes: []string{"Test"},
		dirs:     []string{"src/test/"},
	}
	scalaConvention = testConvention{
		suffixes: []string{"Test", "Tests", "Spec", "Suite"},
		prefixes: []string{"Test"},
		dirs:     []string{"src/test/"},
	}
	jsConvention = testConvention{
		suffixes: []string{".test", ".spec"},
		dirs:     []string{"__tests__/", "test/", "tests/"},
	}
)

// testConventions maps code file extensions to their ecosystem's rules.
// Files with other extensions never count.
var testConventions = map[string]testConvention{
	".daml": {
		suffixes: []string{"Test", "Tests"},
		prefixes: []string{"Test"},
		dirs:     []string{"daml/test/", "daml/Test/", "test/", "Test/"},
	},
	".go":    {suffixes: []string{"_test"}},
	".py":    {suffixes: []string{"_test"}, prefixes: []string{"test_"}, dirs: []string{"tests/", "test/"}},
	".rs":    {dirs: []string{"tests/"}},
	".hs":    {suffixes: []string{"Spec"}, dirs: []string{"test/"}},
	".java":  jvmConvention,
	".kt":    jvmConvention,
	".scala": scalaConvention,
	".ts":    jsConvention,
	".tsx":   jsConvention,
	".js":    jsConvention,
	".jsx":   jsConvention,
}

// Tests counts test files in the tree by naming convention. It makes no API
// calls.
func Tests() Collector {
	return Collector{
		Name:    "tests",
		Fields:  []string{models.FieldHasTests, models.FieldTestCount},
		Collect: collectTests,
	}
}

func collectTests(_ context.Context, _ API, in Input) (Result, error) {
	res := newResult()

	count := 0
	for _, entry := range in.Tree.Blobs() {
		if isTestFile(entry.Path) {
			count++
		}
	}

	res.set(models.FieldHasTests, count > 0)
	switch {
	case in.Tree.Truncated:
		res.set(models.FieldTestCount, nil)
		res.note("File tree truncated by GitHub; test scan incomplete, count unknown")
	case count > 0:
		res.set(models.FieldTestCount, count)
		res.note("Test count is approximate (%d files matched naming conventions)", count)
	default:
		res.set(models.FieldTestCount, 0)
	}
	return res, nil
}

func isTestFile(p string) bool {
	ext := path.Ext(p)
	conv, ok := testConventions[ext]
	if !ok {
		return false
	}
	stem := strings.TrimSuffix(path.Base(p), ext)
	for _, suffix := range conv.suffixes {
		if strings.HasSuffix(stem, suffix) && stem != suffix {
			return true
		}
	}
	for _, prefix := range conv.prefixes {
		if hasWordPrefix(stem, prefix) {
			return true
		}
	}
	return inTestDir(p, conv.dirs)
}

// hasWordPrefix reports whether stem starts with prefix followed by a new
// word: "TestWidget" and "test_widget" match, "TestnetConfig" does not.
func hasWordPrefix(stem, prefix string) bool {
	if !strings.HasPrefix(stem, prefix) || stem == prefix {
		return false
	}
	if strings.HasSuffix(prefix, "_") {
		return true
	}
	next, _ := utf8.DecodeRuneInString(stem[len(prefix):])
	return unicode.IsUpper(next) || unicode.IsDigit(next) || next == '_'
}

func inTestDir(p string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.HasPrefix(p, dir) || strings.Contains(p, "/"+dir) {
			return true
		}
	}
	return false
}
