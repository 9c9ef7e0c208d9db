package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks migration filenames and goose headers in every dialect
// directory under root, and that each dialect carries the same set of files.
func ValidateDir(root string) error {
	if root == "" {
		return fmt.Errorf("root is required")
	}

	byDialect := map[string][]string{}
	for _, dialect := range dialectDirs {
		names, err := validateDialectDir(filepath.Join(root, dialect))
		if err != nil {
			return err
		}
		byDialect[dialect] = names
	}

	reference := byDialect[dialectDirs[0]]
	for _, dialect := range dialectDirs[1:] {
		if missing := difference(reference, byDialect[dialect]); len(missing) > 0 {
			return fmt.Errorf("%s migrations missing in %s: %s", dialectDirs[0], dialect, strings.Join(missing, ", "))
		}
		if extra := difference(byDialect[dialect], reference); len(extra) > 0 {
			return fmt.Errorf("%s migrations missing in %s: %s", dialect, dialectDirs[0], strings.Join(extra, ", "))
		}
	}
	return nil
}

func validateDialectDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		full := filepath.Join(dir, name)
		b, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", full, err)
		}
		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Up\"", full)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return nil, fmt.Errorf("migration %q missing \"-- +goose Down\"", full)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
