package collectors

import (
	"context"
	"path"

	"ecoregistry/internal/collection/github"
	"ecoregistry/internal/registry/models"
	strutil "ecoregistry/pkg/platform/strings"
)

// LanguageShareThreshold is the fraction of repository bytes a language must
// exceed to be listed.
const LanguageShareThreshold = 0.05

// manifestTags maps build manifest file names to the ecosystem they imply.
var manifestTags = map[string]string{
	"daml.yaml":        "Daml",
	"package.json":     "Node.js",
	"go.mod":           "Go",
	"Cargo.toml":       "Rust",
	"pom.xml":          "Maven",
	"build.gradle":     "Gradle",
	"build.gradle.kts": "Gradle",
	"build.sbt":        "sbt",
	"requirements.txt": "Python",
	"pyproject.toml":   "Python",
	"Gemfile":          "Ruby",
	"Dockerfile":       "Docker",
	"composer.json":    "PHP",
}

// TechStack combines the dominant languages with ecosystems implied by
// manifest files anywhere in the tree.
func TechStack() Collector {
	return Collector{
		Name:    "tech_stack",
		Fields:  []string{models.FieldTechStack},
		Collect: collectTechStack,
	}
}

func collectTechStack(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()
	var tags []string

	var languages github.Languages
	if _, err := api.Get(ctx, in.Repo.Path("languages"), &languages); err != nil {
		res.note("Could not fetch language breakdown: %v", err)
	} else {
		tags = append(tags, dominantLanguages(languages)...)
	}

	for _, entry := range in.Tree.Blobs() {
		if tag, ok := manifestTags[path.Base(entry.Path)]; ok {
			tags = append(tags, tag)
		}
	}

	res.set(models.FieldTechStack, strutil.SortedUnique(tags))
	return res, nil
}

func dominantLanguages(languages github.Languages) []string {
	var total int64
	for _, n := range languages {
		total += n
	}
	if total == 0 {
		return nil
	}
	var out []string
	for lang, n := range languages {
		if float64(n)/float64(total) > LanguageShareThreshold {
			out = append(out, lang)
		}
	}
	return out
}
