package postgres

import (
	"reflect"
	"testing"
	"testing/fstest"

	"easyapt/backend/migrations"
)

func TestExtractGooseUp(t *testing.T) {
	src := "-- +goose Up\nCREATE TABLE a (id int);\nCREATE TABLE b (id int);\n\n-- +goose Down\nDROP TABLE b;\n"
	up, err := extractGooseUp(src)
	if err != nil {
		t.Fatalf("extractGooseUp error: %v", err)
	}
	got := splitSQLStatements(up)
	want := []string{"CREATE TABLE a (id int)", "CREATE TABLE b (id int)"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("statements = %q, want %q", got, want)
	}

	if _, err := extractGooseUp("CREATE TABLE a (id int);"); err == nil {
		t.Fatalf("expected error for missing marker")
	}
}

func TestNormalizeExtensionStatement(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"CREATE EXTENSION IF NOT EXISTS btree_gist", "CREATE EXTENSION IF NOT EXISTS btree_gist SCHEMA public", true},
		{"CREATE EXTENSION IF NOT EXISTS btree_gist SCHEMA ext", "", false},
		{"CREATE EXTENSION IF NOT EXISTS pgcrypto", "", false},
		{"CREATE TABLE t (id int)", "", false},
	}
	for _, tt := range tests {
		got, ok := normalizeExtensionStatement(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("normalizeExtensionStatement(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMigrationNames_SortedSQLOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_more.sql": {Data: []byte("-- +goose Up\n")},
		"0001_init.sql": {Data: []byte("-- +goose Up\n")},
		"README.md":     {Data: []byte("docs")},
	}
	got, err := migrationNames(fsys)
	if err != nil {
		t.Fatalf("migrationNames error: %v", err)
	}
	want := []string{"0001_init.sql", "0002_more.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	names, err := migrationNames(migrations.FS)
	if err != nil {
		t.Fatalf("migrationNames error: %v", err)
	}
	if len(names) == 0 {
		t.Fatalf("no embedded migrations")
	}
	for _, name := range names {
		b, err := migrations.FS.ReadFile(name)
		if err != nil {
			t.Fatalf("ReadFile(%s) error: %v", name, err)
		}
		up, err := extractGooseUp(string(b))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(splitSQLStatements(up)) == 0 {
			t.Fatalf("%s: no statements", name)
		}
	}
}
