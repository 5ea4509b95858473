package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kart-io/ragserve/internal/model"
	metricsopts "github.com/kart-io/ragserve/pkg/options/metrics"
)

// Sink 持久化每次成功查询的指标记录。
type Sink interface {
	// Append 追加一条查询记录。
	Append(ctx context.Context, record *model.QueryRecord) error

	// Recent 返回最近的 limit 条记录，按时间倒序。
	Recent(ctx context.Context, limit int) ([]*model.QueryRecord, error)

	// Close 关闭底层存储。
	Close() error
}

// SQLiteSink 基于 SQLite 的查询记录存储。
type SQLiteSink struct {
	db       *sql.DB
	truncate int
}

var _ Sink = (*SQLiteSink)(nil)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS query_records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp       TEXT    NOT NULL,
	query           TEXT    NOT NULL,
	response        TEXT    NOT NULL,
	latency_ms      REAL    NOT NULL,
	tokens_used     INTEGER NOT NULL,
	cost_usd        REAL    NOT NULL,
	model           TEXT    NOT NULL,
	retrieval_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_query_records_timestamp ON query_records(timestamp);
`

// NewSQLiteSink 打开（必要时创建）SQLite 记录库。
func NewSQLiteSink(opts *metricsopts.Options) (*SQLiteSink, error) {
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create metrics directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open metrics database: %w", err)
	}

	// SQLite 单写者模型
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createRecordsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create metrics schema: %w", err)
	}

	return &SQLiteSink{
		db:       db,
		truncate: opts.TruncateResponse,
	}, nil
}

// Append 追加一条查询记录，响应文本按配置截断。
func (s *SQLiteSink) Append(ctx context.Context, record *model.QueryRecord) error {
	response := record.Response
	if s.truncate > 0 {
		runes := []rune(response)
		if len(runes) > s.truncate {
			response = string(runes[:s.truncate]) + "..."
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_records
			(timestamp, query, response, latency_ms, tokens_used, cost_usd, model, retrieval_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.Query,
		response,
		record.LatencyMs,
		record.TokensUsed,
		record.CostUSD,
		record.Model,
		record.RetrievalCount,
	)
	if err != nil {
		return fmt.Errorf("insert query record: %w", err)
	}
	return nil
}

// Recent 返回最近的 limit 条记录，按时间倒序。
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]*model.QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, query, response, latency_ms, tokens_used, cost_usd, model, retrieval_count
		FROM query_records
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*model.QueryRecord, 0, limit)
	for rows.Next() {
		var r model.QueryRecord
		var ts string
		if err := rows.Scan(&r.ID, &ts, &r.Query, &r.Response, &r.LatencyMs,
			&r.TokensUsed, &r.CostUSD, &r.Model, &r.RetrievalCount); err != nil {
			return nil, fmt.Errorf("scan query record: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, ts); parseErr == nil {
			r.Timestamp = parsed
		}
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query records: %w", err)
	}
	return records, nil
}

// Close 关闭底层数据库。
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// NopSink 丢弃所有记录，用于禁用持久化指标的部署。
type NopSink struct{}

var _ Sink = (*NopSink)(nil)

// Append 丢弃记录。
func (NopSink) Append(ctx context.Context, record *model.QueryRecord) error { return nil }

// Recent 返回空集。
func (NopSink) Recent(ctx context.Context, limit int) ([]*model.QueryRecord, error) {
	return []*model.QueryRecord{}, nil
}

// Close 无资源可释放。
func (NopSink) Close() error { return nil }
