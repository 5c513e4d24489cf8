// pkg/api/report_v1.go
package api

import "bamstats/pkg/report"

// SchemaV1 identifies the report envelope below.
const SchemaV1 = "bamstats/report/v1"

// ReportV1 is the stable JSON/JSONL envelope around one rendered tree.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	Schema  string           `json:"schema"`
	RunID   string           `json:"run_id"`
	Input   string           `json:"input,omitempty"`
	Records uint64           `json:"records"`
	Skipped uint64           `json:"skipped,omitempty"`
	Final   bool             `json:"final"`
	Stats   *report.Document `json:"stats"`
}
