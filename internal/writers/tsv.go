// internal/writers/tsv.go
package writers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bamstats/pkg/api"
	"bamstats/pkg/report"
)

// TSVHeader is the header row of the tsv format. Each report contributes one
// row per leaf of its stats document, keyed by the dotted path to the leaf.
const TSVHeader = "run_id\trecords\tfinal\tpath\tvalue"

// StartTSVWriter flattens reports into path/value rows for spreadsheet and
// awk consumers. The header is written once, before the first row.
func StartTSVWriter(out io.Writer, bufSize int) (chan<- api.ReportV1, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.ReportV1, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bufio.NewWriter(out)
		var err error
		header := false
		for r := range in {
			if err != nil {
				continue
			}
			if !header {
				_, err = fmt.Fprintln(bw, TSVHeader)
				header = true
			}
			if err == nil {
				err = WriteTSVRows(bw, r)
			}
			if err == nil {
				err = bw.Flush()
			}
		}
		if err == nil {
			err = bw.Flush()
		}
		if IsBrokenPipe(err) {
			err = nil
		}
		done <- err
	}()
	return in, done
}

// WriteTSVRows writes the rows of one report (no header).
func WriteTSVRows(w io.Writer, r api.ReportV1) error {
	prefix := r.RunID + "\t" + strconv.FormatUint(r.Records, 10) + "\t" + strconv.FormatBool(r.Final) + "\t"
	return walkLeaves(r.Stats, "", func(path, value string) error {
		_, err := io.WriteString(w, prefix+path+"\t"+value+"\n")
		return err
	})
}

func walkLeaves(d *report.Document, path string, fn func(path, value string) error) error {
	if d == nil {
		return nil
	}
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		p := k
		if path != "" {
			p = path + "." + k
		}
		if sub, ok := v.(*report.Document); ok {
			if err := walkLeaves(sub, p, fn); err != nil {
				return err
			}
			continue
		}
		s, err := cell(v)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if err := fn(p, s); err != nil {
			return err
		}
	}
	return nil
}

func cell(v any) (string, error) {
	if s, ok := v.(string); ok {
		return strings.NewReplacer("\t", " ", "\n", " ").Replace(s), nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func init() { Register("tsv", StartTSVWriter) }
