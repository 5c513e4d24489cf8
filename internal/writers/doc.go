// Package writers turns reports into serialized outputs.
//
// Design:
//   - Writers own all presentation knowledge (indented JSON, JSONL).
//   - The pipeline stays orchestration-only and hands over finished reports.
//   - Everything goes through pkg/api (v1) for a stable wire format.
package writers
