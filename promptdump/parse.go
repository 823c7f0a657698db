package promptdump

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ParsedRecord is one call read back from a run artifact. Raw holds the
// record's full text, headers and token counts are extracted for tooling
// that aggregates across runs.
type ParsedRecord struct {
	Seq       int
	Timestamp time.Time
	Model     string
	Usage     Usage
	Raw       string
}

// ParseFile reads every record from a run artifact on disk.
func ParseFile(path string) ([]ParsedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()
	return ParseRecords(f)
}

// ParseRecords scans a run artifact stream. Records are delimited by their
// "=== Prompt Call #N ===" headers; lines before the first header are
// ignored.
func ParseRecords(r io.Reader) ([]ParsedRecord, error) {
	var records []ParsedRecord
	var cur *ParsedRecord
	var raw strings.Builder

	flush := func() {
		if cur != nil {
			cur.Raw = raw.String()
			records = append(records, *cur)
		}
		raw.Reset()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if n, ok := parseCallHeader(line); ok {
			flush()
			cur = &ParsedRecord{Seq: n}
		}
		if cur == nil {
			continue
		}

		raw.WriteString(line)
		raw.WriteByte('\n')

		switch {
		case strings.HasPrefix(line, "Timestamp: "):
			if cur.Timestamp.IsZero() {
				ts, err := time.Parse(timestampLayout, strings.TrimPrefix(line, "Timestamp: "))
				if err == nil {
					cur.Timestamp = ts
				}
			}
		case strings.HasPrefix(line, "Model: ") && cur.Model == "":
			cur.Model = strings.TrimPrefix(line, "Model: ")
		case strings.HasPrefix(line, "Prompt Tokens: "):
			cur.Usage.PromptTokens, _ = strconv.Atoi(strings.TrimPrefix(line, "Prompt Tokens: "))
		case strings.HasPrefix(line, "Completion Tokens: "):
			cur.Usage.CompletionTokens, _ = strconv.Atoi(strings.TrimPrefix(line, "Completion Tokens: "))
		case strings.HasPrefix(line, "Total Tokens: "):
			cur.Usage.TotalTokens, _ = strconv.Atoi(strings.TrimPrefix(line, "Total Tokens: "))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	flush()
	return records, nil
}

func parseCallHeader(line string) (int, bool) {
	if !strings.HasPrefix(line, "=== Prompt Call #") || !strings.HasSuffix(line, " ===") {
		return 0, false
	}
	num := strings.TrimSuffix(strings.TrimPrefix(line, "=== Prompt Call #"), " ===")
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
