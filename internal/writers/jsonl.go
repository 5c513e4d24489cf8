// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"bamstats/internal/jsonlutil"
	"bamstats/pkg/api"
)

// StartJSONLWriter streams each report as one JSON line (v1).
func StartJSONLWriter(out io.Writer, bufSize int) (chan<- api.ReportV1, <-chan error) {
	return jsonlutil.Start[api.ReportV1](out, bufSize,
		func(enc *json.Encoder, r api.ReportV1) error {
			return enc.Encode(r)
		},
		IsBrokenPipe,
	)
}

// StartJSONWriter writes each report as an indented JSON object.
func StartJSONWriter(out io.Writer, bufSize int) (chan<- api.ReportV1, <-chan error) {
	return jsonlutil.Start[api.ReportV1](out, bufSize,
		func(enc *json.Encoder, r api.ReportV1) error {
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		},
		IsBrokenPipe,
	)
}

func init() {
	Register("jsonl", StartJSONLWriter)
	Register("json", StartJSONWriter)
}
