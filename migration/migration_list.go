package migration

import (
	"embed"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode010201 = e.Code0102 + "01"
	ECode010202 = e.Code0102 + "02"
	ECode010203 = e.Code0102 + "03"
	ECode010204 = e.Code0102 + "04"
	ECode010205 = e.Code0102 + "05"
)

// File is one embedded migration file, parsed and ready to apply
type File struct {
	Name    string
	Version int
	SQL     []byte
}

// List is the set of migration files one package ships. Packages hand
// these to the migrator through their GetMigrationList functions
type List struct {
	code       string
	path       string
	migrations embed.FS
	files      []*File
}

// NewList binds a migration code to the embedded directory holding its
// SQL files
func NewList(code, dir string, migrations embed.FS) (l *List) {
	return &List{
		code:       code,
		path:       dir,
		migrations: migrations,
	}
}

// versionFromName parses the leading zero padded number off a file
// name like 003_add_index.sql
func versionFromName(name string) (v int, err error) {
	prefix, _, found := strings.Cut(name, "_")
	if !found {
		prefix, _, _ = strings.Cut(name, ".")
	}

	v, err = strconv.Atoi(prefix)
	if err != nil {
		return 0, e.WWM(err, ECode010201, e.MsgMigrationFileNameInvalid)
	}

	if v <= 0 {
		return 0, e.WWM(nil, ECode010202, e.MsgMigrationFileNameVersionInvalid)
	}

	return v, nil
}

// filesSince loads every migration file at or above the version,
// sorted ascending so they apply in order
func (l *List) filesSince(v int) (fList []*File, err error) {
	dirList, err := l.migrations.ReadDir(l.path)
	if err != nil {
		return nil, e.W(err, ECode010203)
	}

	fList = make([]*File, 0, len(dirList))
	for _, entry := range dirList {
		if entry.IsDir() {
			continue
		}

		version, err := versionFromName(entry.Name())
		if err != nil {
			return nil, e.W(err, ECode010204, entry.Name())
		}

		if version < v {
			continue
		}

		b, err := l.migrations.ReadFile(path.Join(l.path, entry.Name()))
		if err != nil {
			return nil, e.W(err, ECode010205, entry.Name())
		}

		fList = append(fList, &File{
			Name:    entry.Name(),
			Version: version,
			SQL:     b,
		})
	}

	sort.Slice(fList, func(i, j int) bool {
		return fList[i].Version < fList[j].Version
	})

	return fList, nil
}
