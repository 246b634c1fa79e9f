package collectors

import (
	"context"
	"fmt"
	"path"
	"strings"

	"ecoregistry/internal/registry/models"
)

// MinReadmeBytes is the size a root README must exceed to count as
// documentation.
const MinReadmeBytes = 500

var placeholderFiles = map[string]struct{}{
	".gitkeep":   {},
	".keep":      {},
	".gitignore": {},
	".DS_Store":  {},
}

var apiSpecFiles = map[string]struct{}{
	"openapi.yaml": {}, "openapi.yml": {}, "openapi.json": {},
	"swagger.yaml": {}, "swagger.yml": {}, "swagger.json": {},
}

// Documentation looks for documentation in priority order: a docs directory
// with content, a substantial README, an API spec file, then GitHub Pages.
func Documentation() Collector {
	return Collector{
		Name:    "documentation",
		Fields:  []string{models.FieldHasDocumentation, models.FieldDocumentationURL},
		Collect: collectDocumentation,
	}
}

func collectDocumentation(ctx context.Context, api API, in Input) (Result, error) {
	res := newResult()
	found := func(url string) (Result, error) {
		res.set(models.FieldHasDocumentation, true)
		if url == "" {
			res.set(models.FieldDocumentationURL, nil)
		} else {
			res.set(models.FieldDocumentationURL, url)
		}
		return res, nil
	}

	blobs := in.Tree.Blobs()

	for _, entry := range blobs {
		if strings.HasPrefix(entry.Path, "docs/") && isContentFile(entry.Path, entry.Size) {
			return found(blobURL(in, "tree", "docs"))
		}
	}

	for _, entry := range blobs {
		if !isRootFile(entry.Path) || !strings.HasPrefix(strings.ToLower(entry.Path), "readme") {
			continue
		}
		body, ok, err := api.GetFileContent(ctx, in.Repo, entry.Path)
		if err != nil {
			res.note("Could not read %s: %v", entry.Path, err)
			break
		}
		if ok && len(body) > MinReadmeBytes {
			return found(repoURL(in) + "#readme")
		}
		break
	}

	for _, entry := range blobs {
		if _, ok := apiSpecFiles[strings.ToLower(entry.Path)]; ok {
			return found(blobURL(in, "blob", entry.Path))
		}
	}

	if in.Metadata.HasPages {
		return found(fmt.Sprintf("https://%s.github.io/%s", strings.ToLower(in.Repo.Owner), in.Repo.Name))
	}

	res.set(models.FieldHasDocumentation, false)
	res.set(models.FieldDocumentationURL, nil)
	return res, nil
}

func isContentFile(p string, size int64) bool {
	if size == 0 {
		return false
	}
	_, placeholder := placeholderFiles[path.Base(p)]
	return !placeholder
}

func repoURL(in Input) string {
	if in.Metadata.HTMLURL != "" {
		return in.Metadata.HTMLURL
	}
	return "https://github.com/" + in.Repo.String()
}

func blobURL(in Input, kind, p string) string {
	branch := in.Metadata.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return repoURL(in) + "/" + kind + "/" + branch + "/" + p
}
