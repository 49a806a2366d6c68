package migrate

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations in an on-disk directory.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	sub, err := fs.Sub(migrationsFS, embeddedDir)
	if err != nil {
		return err
	}
	return ValidateFS(sub)
}

// ValidateFS requires every .sql file at the root of fsys to be named
// YYYYMMDDHHMMSS_name.sql with a unique version, and to carry an Up section
// followed by a Down section.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		if err := checkSections(fsys, name); err != nil {
			return err
		}
	}
	return nil
}

func checkSections(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open %q: %w", name, err)
	}
	defer f.Close()

	upLine, downLine, lineNo := 0, 0, 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		switch strings.TrimSpace(scanner.Text()) {
		case upMarker:
			if upLine == 0 {
				upLine = lineNo
			}
		case downMarker:
			if downLine == 0 {
				downLine = lineNo
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %q: %w", name, err)
	}

	switch {
	case upLine == 0:
		return fmt.Errorf("migration %q missing %q", name, upMarker)
	case downLine == 0:
		return fmt.Errorf("migration %q missing %q", name, downMarker)
	case downLine < upLine:
		return fmt.Errorf("migration %q has its Down section before Up", name)
	}
	return nil
}
