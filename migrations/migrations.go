// Package migrations содержит схему базы данных, встроенную в бинарник.
package migrations

import (
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed *.up.sql
var files embed.FS

// Migration - один шаг схемы.
type Migration struct {
	Name string
	SQL  string
}

// Up возвращает миграции в порядке применения (по имени файла).
func Up() ([]Migration, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		data, readErr := files.ReadFile(name)
		if readErr != nil {
			return nil, readErr
		}
		out = append(out, Migration{Name: strings.TrimSuffix(name, ".up.sql"), SQL: string(data)})
	}
	return out, nil
}
