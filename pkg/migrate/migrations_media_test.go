package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMediaMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_media.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS media",
		"cloudinary_public_id TEXT NOT NULL UNIQUE",
		"CHECK (file_size >= 0)",
		"CHECK (media_type IN ('image', 'video'))",
		"idx_media_context_created_at",
		"DROP TABLE IF EXISTS media",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMediaAssociationMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_media_associations.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS product_media",
		"CREATE TABLE IF NOT EXISTS collection_media",
		"UNIQUE (product_id, media_id)",
		"UNIQUE (collection_id, media_id)",
		"FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE",
		"idx_collection_media_order",
		"DROP TABLE IF EXISTS product_media",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMediaVariantMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_media_variants.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS media_variants",
		"UNIQUE (media_id, name)",
		"FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS media_variants",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
