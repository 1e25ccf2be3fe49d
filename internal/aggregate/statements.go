// Package aggregate builds and sequences the medallion rollup: bronze chat
// events into per-user daily silver rows, silver into the gold time series.
package aggregate

import "fmt"

// Medallion table names.
const (
	BronzeTable = "bronze_chat_events"
	SilverTable = "silver_user_daily"
	GoldTable   = "gold_time_series"
)

// CreateSilverTable returns the idempotent DDL for the silver layer. The
// warehouse base is the s3:// location under which table data lives.
func CreateSilverTable(database, s3Base string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    dt DATE,
    platform STRING,
    user_id STRING,
    messages_cnt BIGINT,
    rooms_cnt BIGINT,
    tokens BIGINT,
    cost DECIMAL(10,4)
)
USING ICEBERG
PARTITIONED BY (dt)
LOCATION '%s/silver/%s'
TBLPROPERTIES (
    'write.target-file-size-bytes'='134217728',
    'write.parquet.compression-codec'='snappy'
)`, database, SilverTable, s3Base, SilverTable)
}

// CreateGoldTable returns the idempotent DDL for the gold layer.
func CreateGoldTable(database, s3Base string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    grain STRING,
    period_start DATE,
    platform STRING,
    active_users BIGINT,
    total_messages BIGINT,
    total_tokens BIGINT,
    total_cost DECIMAL(10,4)
)
USING ICEBERG
PARTITIONED BY (grain, period_start)
LOCATION '%s/gold/%s'
TBLPROPERTIES (
    'write.target-file-size-bytes'='134217728',
    'write.parquet.compression-codec'='snappy'
)`, database, GoldTable, s3Base, GoldTable)
}

// InsertSilverDaily rolls one day of bronze events up into silver. Date is
// YYYY-MM-DD.
func InsertSilverDaily(database, date string) string {
	return fmt.Sprintf(`INSERT INTO %s.%s
SELECT
    dt,
    platform,
    user_id,
    COUNT(DISTINCT chat_id) as messages_cnt,
    COUNT(DISTINCT room_id) as rooms_cnt,
    SUM(tokens) as tokens,
    SUM(cost) as cost
FROM %s.%s
WHERE dt = DATE '%s'
GROUP BY dt, platform, user_id`, database, SilverTable, database, BronzeTable, date)
}

// InsertGoldDaily rolls one day of silver rows up into the gold time
// series at DAILY grain.
func InsertGoldDaily(database, date string) string {
	return fmt.Sprintf(`INSERT INTO %s.%s
SELECT
    'DAILY' as grain,
    dt as period_start,
    platform,
    COUNT(DISTINCT user_id) as active_users,
    SUM(messages_cnt) as total_messages,
    SUM(tokens) as total_tokens,
    SUM(cost) as total_cost
FROM %s.%s
WHERE dt = DATE '%s'
GROUP BY dt, platform`, database, GoldTable, database, SilverTable, date)
}

// VerifyGoldDaily counts what landed in gold for the day.
func VerifyGoldDaily(database, date string) string {
	return fmt.Sprintf(`SELECT
    'Gold Data' as layer,
    COUNT(*) as row_count,
    SUM(active_users) as total_active_users,
    SUM(total_messages) as total_messages,
    SUM(total_tokens) as total_tokens
FROM %s.%s
WHERE grain = 'DAILY' AND period_start = DATE '%s'`, database, GoldTable, date)
}
