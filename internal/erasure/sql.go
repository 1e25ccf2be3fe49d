package erasure

import (
	"fmt"
	"strings"
)

// DeleteStatement builds the DELETE issued against one table. The
// identifiers are comma-joined and embedded verbatim in the statement
// text: values containing quotes, commas, or other SQL metacharacters
// would render it malformed. The pipeline only ever feeds it
// machine-generated GUIDs.
func DeleteStatement(database, table, column string, guids []string) string {
	csv := strings.Join(guids, ",")
	return fmt.Sprintf(
		"DELETE FROM %s.%s WHERE %s IN (SELECT guid FROM UNNEST(SPLIT(TRIM('%s'), ',')) AS t(guid) WHERE guid <> '')",
		database, table, column, csv,
	)
}
