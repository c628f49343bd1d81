// internal/workers/data-access/query-meetings/models.go
package querymeetings

import (
	"resource-scheduling/internal/assistant/querybuilder"
	"resource-scheduling/internal/models"
)

type Input struct {
	QuerySpec      querybuilder.QuerySpec `json:"querySpec"`
	MaxContextRows int                    `json:"maxContextRows,omitempty"`
}

type Output struct {
	Records            []models.MeetingRecord `json:"records"`
	RowCount           int                    `json:"rowCount"`
	FormattedContext   string                 `json:"formattedContext"`
	QueryExecutionTime int64                  `json:"queryExecutionTime"` // milliseconds
}
