// internal/bamio/reader.go
package bamio

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
)

// Input formats.
const (
	FormatAuto = "auto"
	FormatSAM  = "sam"
	FormatBAM  = "bam"
)

// Source yields decoded alignment records and the reference context they
// are aligned against.
type Source interface {
	Read() (*sam.Record, error) // io.EOF at end of input
	References() []*sam.Reference
	Close() error
}

// Reader is a Source over a SAM or BAM stream.
type Reader struct {
	Format string // resolved format: sam or bam

	read  func() (*sam.Record, error)
	refs  []*sam.Reference
	close func() error
}

func (r *Reader) Read() (*sam.Record, error)   { return r.read() }
func (r *Reader) References() []*sam.Reference { return r.refs }
func (r *Reader) Close() error                 { return r.close() }

// Open opens path ("-" is stdin) and decodes it as format. FormatAuto sniffs
// the gzip magic that starts every BAM (BGZF) stream.
func Open(path, format string) (*Reader, error) {
	var (
		f   io.ReadCloser
		err error
	)
	if path == "-" {
		f = io.NopCloser(os.Stdin)
	} else if f, err = os.Open(path); err != nil {
		return nil, err
	}
	r, err := NewReader(f, format)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	inner := r.close
	r.close = func() error {
		err := inner()
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return r, nil
}

// NewReader decodes r as format. Closing the returned Reader does not
// close r.
func NewReader(r io.Reader, format string) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	if format == "" || format == FormatAuto {
		magic, err := br.Peek(2)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("sniff input: %w", err)
		}
		format = FormatSAM
		if bytes.Equal(magic, []byte{0x1f, 0x8b}) {
			format = FormatBAM
		}
	}
	switch strings.ToLower(format) {
	case FormatBAM:
		br2, err := bam.NewReader(br, 1)
		if err != nil {
			return nil, fmt.Errorf("open bam: %w", err)
		}
		return &Reader{Format: FormatBAM, read: br2.Read, refs: br2.Header().Refs(), close: br2.Close}, nil
	case FormatSAM:
		var src io.Reader = br
		if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
			gz, err := gzip.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("open gzipped sam: %w", err)
			}
			src = gz
		}
		sr, err := sam.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("open sam: %w", err)
		}
		return &Reader{Format: FormatSAM, read: sr.Read, refs: sr.Header().Refs(), close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", format)
	}
}
