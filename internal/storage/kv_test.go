package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestSQLiteKVReadWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "classroom.db")

	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer kv.Close()

	if _, ok, err := kv.Read(ctx, KeySettings); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Write(ctx, KeySettings, []byte(`{"dailyQuota":5}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := kv.Write(ctx, KeySettings, []byte(`{"dailyQuota":7}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := kv.Read(ctx, KeySettings)
	if err != nil || !ok {
		t.Fatalf("read: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"dailyQuota":7}` {
		t.Fatalf("unexpected value %s", got)
	}

	if err := kv.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestSQLiteKVReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "classroom.db")

	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Write(ctx, KeyStudents, []byte(`[]`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	kv.Close()

	// Migrations must be idempotent on an existing database.
	kv, err = NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()

	got, ok, err := kv.Read(ctx, KeyStudents)
	if err != nil || !ok || string(got) != `[]` {
		t.Fatalf("unexpected read after reopen: %q ok=%v err=%v", got, ok, err)
	}
}

func TestSchemaVersionAfterOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classroom.db")

	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	kv.Close()

	version, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", version, dirty)
	}

	// A second run is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
}
