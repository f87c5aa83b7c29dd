package docs2pdf

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Directories never descended into during discovery. Underscore-prefixed
// directories are also skipped (Astro convention for non-routable content).
var excludedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"dist":         true,
	"temp":         true,
}

// discoverDocuments walks root and returns the relative slash-separated
// paths of all Markdown and MDX files, in lexical walk order.
func discoverDocuments(root string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if excludedDirs[name] || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return paths, nil
}
