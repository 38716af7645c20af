package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesAreOrdered(t *testing.T) {
	names, err := migrationFiles(FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	assert.Equal(t, "0001_create_users_and_receipts.sql", names[0])
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestExtractUp(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no markers", "CREATE TABLE a();", "CREATE TABLE a();"},
		{"up only", "-- +migrate Up\nCREATE TABLE a();", "\nCREATE TABLE a();"},
		{"up and down", "-- +migrate Up\nCREATE TABLE a();\n-- +migrate Down\nDROP TABLE a;", "\nCREATE TABLE a();\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractUp(tt.content))
		})
	}
}

func TestNotifyTriggerMigration(t *testing.T) {
	content, err := FS.ReadFile("0003_create_campaign_notify_trigger.sql")
	require.NoError(t, err)

	up := ExtractUp(string(content))
	assert.Contains(t, up, "pg_notify('new_campaign', NEW.id::text)")
	assert.Contains(t, up, "CREATE TRIGGER campaign_insert_trigger")
	assert.False(t, strings.Contains(up, "DROP FUNCTION"))
}
