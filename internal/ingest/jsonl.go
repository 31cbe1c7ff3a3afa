package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ai_hoi/src/vectorstore"

	"github.com/bytedance/sonic"
)

const maxLineSize = 4 << 20

// JSONLOptions selects how a text is built from each JSON line
type JSONLOptions struct {
	// TextFields, when set, compose the text as "field: value" lines
	TextFields []string
	// TextField is read when TextFields yield nothing; "content" and
	// "page_content" are tried after it
	TextField     string
	MetadataField string
}

// ReadJSONL reads one document per non-empty line. Lines without usable text
// are skipped; a line that is not a JSON object is an error.
func ReadJSONL(r io.Reader, opts JSONLOptions) ([]Document, error) {
	if opts.TextField == "" {
		opts.TextField = "text"
	}
	if opts.MetadataField == "" {
		opts.MetadataField = "metadata"
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var docs []Document
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := sonic.UnmarshalString(line, &obj); err != nil {
			return nil, fmt.Errorf("line %d: invalid json: %w", lineNo, err)
		}

		text := composeText(obj, opts)
		if text == "" {
			continue
		}
		metadata := lineMetadata(obj, opts)
		metadata[vectorstore.TextKey] = text

		docs = append(docs, Document{
			ID:       fmt.Sprintf("doc-%d", len(docs)),
			Text:     text,
			Metadata: metadata,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading jsonl: %w", err)
	}
	return docs, nil
}

func composeText(obj map[string]any, opts JSONLOptions) string {
	var parts []string
	for _, field := range opts.TextFields {
		switch v := obj[field].(type) {
		case string, float64:
			parts = append(parts, field+": "+scalarString(v))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}

	for _, key := range []string{opts.TextField, "content", "page_content"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func lineMetadata(obj map[string]any, opts JSONLOptions) map[string]string {
	metadata := map[string]string{}
	if nested, ok := obj[opts.MetadataField].(map[string]any); ok {
		for k, v := range nested {
			if s, ok := scalar(v); ok {
				metadata[k] = s
			}
		}
		return metadata
	}

	exclude := map[string]bool{opts.TextField: true}
	for _, f := range opts.TextFields {
		exclude[f] = true
	}
	for k, v := range obj {
		if exclude[k] {
			continue
		}
		if s, ok := scalar(v); ok {
			metadata[k] = s
		}
	}
	return metadata
}

func scalar(v any) (string, bool) {
	switch v.(type) {
	case nil, string, float64, bool:
		return scalarString(v), true
	}
	return "", false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
