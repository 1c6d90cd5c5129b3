package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Migration is one numbered step of the social graph schema.
type Migration struct {
	Version    int
	Name       string
	UpScript   string
	DownScript string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var (
	embeddedOnce sync.Once
	embedded     []Migration
	embeddedErr  error
)

// Migrations returns the embedded migrations in version order. A malformed
// migration set is reported on every call.
func Migrations() ([]Migration, error) {
	embeddedOnce.Do(func() {
		embedded, embeddedErr = loadMigrations(migrationFS, "migrations")
	})
	return embedded, embeddedErr
}

// migrationByVersion finds version in all.
func migrationByVersion(all []Migration, version int) (Migration, bool) {
	i := sort.Search(len(all), func(i int) bool { return all[i].Version >= version })
	if i < len(all) && all[i].Version == version {
		return all[i], true
	}
	return Migration{}, false
}

// loadMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from
// dir. Every version needs both halves under one name, and versions run
// 1, 2, 3... without gaps, since later steps alter tables earlier ones made.
func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()

		var up bool
		var base string
		switch {
		case strings.HasSuffix(file, ".up.sql"):
			up, base = true, strings.TrimSuffix(file, ".up.sql")
		case strings.HasSuffix(file, ".down.sql"):
			base = strings.TrimSuffix(file, ".down.sql")
		default:
			return nil, fmt.Errorf("migration %s: expected a .up.sql or .down.sql suffix", file)
		}

		digits, name, ok := strings.Cut(base, "_")
		if !ok || name == "" || len(digits) != 6 {
			return nil, fmt.Errorf("migration %s: expected NNNNNN_name", file)
		}
		version, err := strconv.Atoi(digits)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", file, digits)
		}

		body, err := fs.ReadFile(fsys, path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(body)) == "" {
			return nil, fmt.Errorf("migration %s is empty", file)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %06d has two names: %s and %s", version, m.Name, name)
		}
		if up {
			m.UpScript = string(body)
		} else {
			m.DownScript = string(body)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	for i, m := range out {
		if m.Version != i+1 {
			return nil, fmt.Errorf("migration %s: expected version %06d, versions must be contiguous from 1", m, i+1)
		}
		if m.UpScript == "" || m.DownScript == "" {
			return nil, fmt.Errorf("migration %s needs both an up and a down script", m)
		}
	}
	return out, nil
}
