package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/metalake-labs/dremiometa/pkg/meta"
)

// envelope wraps a record with its kind so consumers can route lines
// without sniffing the payload shape.
type envelope struct {
	Kind   meta.RecordKind `json:"kind"`
	Entity meta.Record     `json:"entity"`
}

type jsonlSink struct {
	path   string
	logger *slog.Logger

	file *os.File
	w    *bufio.Writer
	enc  *json.Encoder
}

func newJSONLSink(path string, logger *slog.Logger) *jsonlSink {
	if path == "" {
		path = "-"
	}
	return &jsonlSink{path: path, logger: logger}
}

func (s *jsonlSink) Open(ctx context.Context) error {
	var out io.Writer
	if s.path == "-" {
		out = os.Stdout
	} else {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("opening sink file: %w", err)
		}
		s.file = f
		out = f
	}
	s.w = bufio.NewWriter(out)
	s.enc = json.NewEncoder(s.w)
	return nil
}

func (s *jsonlSink) Write(_ context.Context, rec meta.Record) error {
	return s.enc.Encode(envelope{Kind: rec.RecordKind(), Entity: rec})
}

func (s *jsonlSink) Close() error {
	if s.w == nil {
		return nil
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
