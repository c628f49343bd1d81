// internal/store/sql.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/metrics"
	"resource-scheduling/internal/models"
)

// Dialect holds the syntax differences between the SQL backends.
type Dialect struct {
	Name        string
	placeholder func(n int) string
	dateColumn  string
}

var (
	PostgresDialect = Dialect{
		Name:        config.BackendPostgres,
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		dateColumn:  "CAST(date AS DATE)",
	}

	SQLiteDialect = Dialect{
		Name:        config.BackendSQLite,
		placeholder: func(int) string { return "?" },
		dateColumn:  "date(date)",
	}
)

const selectColumns = "user_email, first_name, CAST(date AS TEXT), weekday, " +
	"CAST(start_time AS TEXT), CAST(end_time AS TEXT), meeting_subject, load_percentage, summary_sentence"

// SQLStore runs query specs against the meetings table.
type SQLStore struct {
	db           *sql.DB
	dialect      Dialect
	table        string
	queryTimeout time.Duration
	logger       logger.Logger
}

type SQLOption func(*SQLStore)

// WithQueryTimeout bounds every query; zero leaves the caller's deadline.
func WithQueryTimeout(d time.Duration) SQLOption {
	return func(s *SQLStore) { s.queryTimeout = d }
}

func NewSQLStore(db *sql.DB, dialect Dialect, table string, log logger.Logger, opts ...SQLOption) (*SQLStore, error) {
	if !config.ValidateIdentifier(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		table:   table,
		logger:  log.WithFields(map[string]interface{}{"store": dialect.Name, "table": table}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLStore) FetchMeetings(ctx context.Context, spec querybuilder.QuerySpec) ([]models.MeetingRecord, error) {
	query, args, err := s.Compile(spec)
	if err != nil {
		return nil, err
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query meetings: %w", err)
	}
	defer rows.Close()

	var records []models.MeetingRecord
	for rows.Next() {
		record, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}

	elapsed := time.Since(start)
	metrics.StoreQueryDuration.WithLabelValues(s.dialect.Name).Observe(elapsed.Seconds())
	metrics.StoreQueryRows.WithLabelValues(s.dialect.Name).Observe(float64(len(records)))

	s.logger.Debug("meetings fetched", map[string]interface{}{
		"rows":       len(records),
		"durationMs": elapsed.Milliseconds(),
	})

	return records, nil
}

// Compile renders the spec as dialect SQL with positional arguments. Field
// and table names come from fixed allowlists; values are only ever args.
func (s *SQLStore) Compile(spec querybuilder.QuerySpec) (string, []interface{}, error) {
	if err := spec.Validate(); err != nil {
		return "", nil, err
	}

	var (
		b     strings.Builder
		args  []interface{}
		conds []string
	)

	for _, p := range spec.Predicates() {
		column, err := s.column(p.Field)
		if err != nil {
			return "", nil, err
		}
		value, _ := spec.Param(p.Param)
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s %s %s", column, p.Operator, s.dialect.placeholder(len(args))))
	}

	b.WriteString("SELECT ")
	b.WriteString(selectColumns)
	b.WriteString(" FROM ")
	b.WriteString(s.table)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	if order := spec.OrderBy(); len(order) > 0 {
		terms := make([]string, 0, len(order))
		for _, o := range order {
			column, err := s.column(o.Field)
			if err != nil {
				return "", nil, err
			}
			terms = append(terms, column+" "+string(o.Direction))
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(terms, ", "))
	}

	args = append(args, spec.Limit())
	b.WriteString(" LIMIT ")
	b.WriteString(s.dialect.placeholder(len(args)))

	return b.String(), args, nil
}

func (s *SQLStore) column(f querybuilder.Field) (string, error) {
	switch f {
	case querybuilder.FieldDate:
		return s.dialect.dateColumn, nil
	case querybuilder.FieldFirstName, querybuilder.FieldWeekday,
		querybuilder.FieldStartTime, querybuilder.FieldLoadPercentage:
		return string(f), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedField, f)
	}
}

func scanMeeting(rows *sql.Rows) (models.MeetingRecord, error) {
	var (
		email, firstName, date, weekday      sql.NullString
		startTime, endTime, subject, summary sql.NullString
		load                                 sql.NullFloat64
	)
	if err := rows.Scan(&email, &firstName, &date, &weekday, &startTime, &endTime, &subject, &load, &summary); err != nil {
		return models.MeetingRecord{}, err
	}

	record := models.MeetingRecord{
		UserEmail: email.String,
		FirstName: firstName.String,
		Date:      normalizeDate(date.String),
		Weekday:   weekday.String,
		StartTime: startTime.String,
		EndTime:   endTime.String,
		Subject:   subject.String,
		Summary:   summary.String,
	}
	if load.Valid {
		v := load.Float64
		record.LoadPercentage = &v
	}
	return record, nil
}

// normalizeDate trims a timestamp rendering down to its date part.
func normalizeDate(s string) string {
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}
