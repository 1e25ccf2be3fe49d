package erasure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeleteStatement(t *testing.T) {
	got := DeleteStatement("iceberg_athena_analytics", "silver_user_daily", "user_id", []string{"a", "b", "c"})
	want := "DELETE FROM iceberg_athena_analytics.silver_user_daily WHERE user_id IN " +
		"(SELECT guid FROM UNNEST(SPLIT(TRIM('a,b,c'), ',')) AS t(guid) WHERE guid <> '')"
	assert.Equal(t, want, got)
}

func TestDeleteStatementSingleGuid(t *testing.T) {
	got := DeleteStatement("db", "t", "user_id", []string{"only"})
	assert.Contains(t, got, "TRIM('only')")
	assert.Contains(t, got, "DELETE FROM db.t WHERE user_id IN")
}

func TestDeleteStatementCustomColumn(t *testing.T) {
	got := DeleteStatement("db", "events", "member_guid", []string{"x"})
	assert.Contains(t, got, "WHERE member_guid IN")
}
