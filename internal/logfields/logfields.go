package logfields

import "log/slog"

// Canonical log field names.
const (
	KeyRunID      = "run_id"
	KeyInput      = "input"
	KeyFormat     = "format"
	KeyNode       = "node"
	KeyRecords    = "records"
	KeySkipped    = "skipped"
	KeyReadName   = "read_name"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Input(path string) slog.Attr     { return slog.String(KeyInput, path) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Node(name string) slog.Attr      { return slog.String(KeyNode, name) }
func Records(n uint64) slog.Attr      { return slog.Uint64(KeyRecords, n) }
func Skipped(n uint64) slog.Attr      { return slog.Uint64(KeySkipped, n) }
func ReadName(n string) slog.Attr     { return slog.String(KeyReadName, n) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
