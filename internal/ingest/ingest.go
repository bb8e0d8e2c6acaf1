// Package ingest loads the raw event CSVs into the materialized detail
// table, casting types and deriving the calendar columns the rollups and
// queries key on.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jetpham/calhacks25/internal/domain"
	"github.com/jetpham/calhacks25/internal/query"
)

// FilePrefix selects which CSVs in the data directory are event parts.
const FilePrefix = "events_part_"

// Load materializes events_table from the events_part_*.csv files under
// dataDir. All columns are read as VARCHAR and cast explicitly: the raw
// dumps carry empty strings for missing prices and epoch-millis timestamps.
// Safe to re-run; the table is replaced.
func Load(ctx context.Context, exec domain.Executor, dataDir string) error {
	start := time.Now()

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return fmt.Errorf("read data dir: %w", err)
	}
	parts := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), FilePrefix) && strings.HasSuffix(e.Name(), ".csv") {
			parts++
		}
	}
	if parts == 0 {
		return fmt.Errorf("no %s*.csv files found in %s", FilePrefix, dataDir)
	}
	slog.Info("loading event files", "dir", dataDir, "files", parts)

	pattern := filepath.Join(dataDir, FilePrefix+"*.csv")
	createSQL := fmt.Sprintf(`
CREATE OR REPLACE TABLE %s AS
WITH raw AS (
  SELECT *
  FROM read_csv(
    '%s',
    AUTO_DETECT = FALSE,
    HEADER = TRUE,
    union_by_name = TRUE,
    COLUMNS = {
      'ts': 'VARCHAR',
      'type': 'VARCHAR',
      'auction_id': 'VARCHAR',
      'advertiser_id': 'VARCHAR',
      'publisher_id': 'VARCHAR',
      'bid_price': 'VARCHAR',
      'user_id': 'VARCHAR',
      'total_price': 'VARCHAR',
      'country': 'VARCHAR'
    }
  )
),
casted AS (
  SELECT
    to_timestamp(TRY_CAST(ts AS DOUBLE) / 1000.0) AS ts,
    type,
    auction_id,
    TRY_CAST(advertiser_id AS INTEGER) AS advertiser_id,
    TRY_CAST(publisher_id AS INTEGER)  AS publisher_id,
    NULLIF(bid_price, '')::DOUBLE      AS bid_price,
    TRY_CAST(user_id AS BIGINT)        AS user_id,
    NULLIF(total_price, '')::DOUBLE    AS total_price,
    country
  FROM raw
)
SELECT
  ts,
  DATE_TRUNC('week', ts)         AS week,
  CAST(ts AS DATE)               AS day,
  DATE_TRUNC('hour', ts)         AS hour,
  STRFTIME(ts, '%%Y-%%m-%%d %%H:%%M') AS minute,
  type,
  auction_id,
  advertiser_id,
  publisher_id,
  bid_price,
  user_id,
  total_price,
  country
FROM casted`, query.DefaultTable, pattern)

	if err := exec.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("materialize %s: %w", query.DefaultTable, err)
	}

	// Refresh statistics and touch the table once so the first benchmarked
	// query does not pay the cold-start cost.
	if err := exec.Exec(ctx, "ANALYZE "+query.DefaultTable); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	rs, err := exec.Execute(ctx, "SELECT COUNT(*) FROM "+query.DefaultTable)
	if err != nil {
		return fmt.Errorf("pre-warm: %w", err)
	}
	count := ""
	if len(rs.Rows) > 0 && len(rs.Rows[0]) > 0 {
		count = rs.Rows[0][0]
	}
	slog.Info("event table materialized", "table", query.DefaultTable, "rows", count, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
