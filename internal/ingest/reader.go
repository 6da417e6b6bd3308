package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mzhdanov/finsent/internal/model"
)

// Options controls how the raw corpus file is parsed.
type Options struct {
	Separator string // field separator between sentence and label
	Encoding  string // character encoding name, see decoderFor
}

// Result is the outcome of one ingestion pass. Dropped-row counts are
// surfaced so callers can report them instead of losing rows silently.
type Result struct {
	Records           []model.Record
	RowsRead          int
	DroppedMalformed  int // rows with a missing field
	DroppedDuplicates int // exact text+label duplicates
}

// ReadFile ingests a delimiter-separated corpus file into records.
func ReadFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return res, nil
}

// Read ingests records from r.
//
// Rows with a missing field are dropped and counted, never propagated as
// failures. A row whose label is present but unrecognized aborts the whole
// pass. Exact duplicates are dropped so the later partition union equals
// the deduplicated record set.
func Read(r io.Reader, opts Options) (*Result, error) {
	sep := opts.Separator
	if sep == "" {
		sep = "@"
	}

	dec, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, err
	}
	scanner := bufio.NewScanner(transform.NewReader(r, dec))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	res := &Result{}
	seen := make(map[string]struct{})

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.RowsRead++

		// The sentence may legitimately contain the separator; the label is
		// always the final field.
		idx := strings.LastIndex(line, sep)
		if idx < 0 {
			res.DroppedMalformed++
			continue
		}
		text := strings.TrimSpace(line[:idx])
		labelStr := strings.TrimSpace(line[idx+len(sep):])
		if text == "" || labelStr == "" {
			res.DroppedMalformed++
			continue
		}

		label, err := model.ParseLabel(labelStr)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", res.RowsRead, err)
		}

		key := text + "\x00" + labelStr
		if _, dup := seen[key]; dup {
			res.DroppedDuplicates++
			continue
		}
		seen[key] = struct{}{}

		res.Records = append(res.Records, model.Record{Text: text, Label: label})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan dataset: %w", err)
	}

	return res, nil
}

// decoderFor maps an encoding name to a decoder. The PhraseBank corpus
// ships as Latin-1, so UTF-8 is not assumed.
func decoderFor(name string) (transform.Transformer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	case "utf-8", "utf8":
		return encoding.Nop.NewDecoder(), nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (supported: latin-1, windows-1252, utf-8, utf-16)", name)
	}
}
