package loki

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// noResults is returned whenever a query envelope carries no entries.
const noResults = "No results found"

// Result type discriminators used by the Loki query API.
const (
	ResultTypeStreams = "streams"
	ResultTypeVector  = "vector"
	ResultTypeMatrix  = "matrix"
)

// QueryResponse is the envelope returned by /loki/api/v1/query_range.
// The resultType discriminator fully determines the shape of Result.
type QueryResponse struct {
	Status string    `json:"status"`
	Data   QueryData `json:"data"`
}

// QueryData holds the discriminator and the raw result payload, decoded
// lazily per result type.
type QueryData struct {
	ResultType string          `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

// StreamResult is one log stream: a label set plus ordered
// (nanosecond-timestamp, line) pairs.
type StreamResult struct {
	Stream LabelSet    `json:"stream"`
	Values [][2]string `json:"values"`
}

// VectorResult is one instantaneous metric sample.
type VectorResult struct {
	Metric LabelSet   `json:"metric"`
	Value  SamplePair `json:"value"`
}

// MatrixResult is one metric time series.
type MatrixResult struct {
	Metric LabelSet     `json:"metric"`
	Values []SamplePair `json:"values"`
}

// SamplePair is a (unix-seconds, value) pair as serialized by the API:
// a two-element array of a number and a string.
type SamplePair struct {
	Timestamp float64
	Value     string
}

func (p *SamplePair) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("expected [timestamp, value] pair, got %d elements", len(parts))
	}
	if err := json.Unmarshal(parts[0], &p.Timestamp); err != nil {
		return fmt.Errorf("invalid sample timestamp: %w", err)
	}
	if err := json.Unmarshal(parts[1], &p.Value); err != nil {
		return fmt.Errorf("invalid sample value: %w", err)
	}
	return nil
}

func (p SamplePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{p.Timestamp, p.Value})
}

// Label is a single name/value pair.
type Label struct {
	Name  string
	Value string
}

// LabelSet is an ordered label mapping. Unlike a map it preserves the
// key order of the source JSON object, so renderings and jsonl output
// keep the payload's own ordering.
type LabelSet []Label

func (ls *LabelSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*ls = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected label object, got %v", tok)
	}
	out := LabelSet{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected label name, got %v", keyTok)
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("invalid value for label %q: %w", key, err)
		}
		out = append(out, Label{Name: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ls = out
	return nil
}

func (ls LabelSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range ls {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(label.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(label.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the label set as {k1="v1", k2="v2"} in payload order.
func (ls LabelSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, label := range ls {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", label.Name, label.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// jsonlEntry is one line of jsonl output.
type jsonlEntry struct {
	Timestamp string   `json:"timestamp"`
	Labels    LabelSet `json:"labels"`
	Line      string   `json:"line"`
}

// FormatQueryResponse normalizes a query envelope into the single text
// contract shared by all backends. It is deterministic for a given input.
func FormatQueryResponse(resp *QueryResponse, opts QueryOptions) (string, error) {
	var entries []json.RawMessage
	if len(resp.Data.Result) > 0 {
		if err := json.Unmarshal(resp.Data.Result, &entries); err != nil {
			return "", fmt.Errorf("failed to parse result payload: %w", err)
		}
	}
	if len(entries) == 0 {
		return noResults, nil
	}

	switch resp.Data.ResultType {
	case ResultTypeStreams:
		var streams []StreamResult
		if err := json.Unmarshal(resp.Data.Result, &streams); err != nil {
			return "", fmt.Errorf("failed to parse streams result: %w", err)
		}
		return formatStreams(streams, opts)
	case ResultTypeVector:
		var vector []VectorResult
		if err := json.Unmarshal(resp.Data.Result, &vector); err != nil {
			return "", fmt.Errorf("failed to parse vector result: %w", err)
		}
		return formatVector(vector), nil
	case ResultTypeMatrix:
		var matrix []MatrixResult
		if err := json.Unmarshal(resp.Data.Result, &matrix); err != nil {
			return "", fmt.Errorf("failed to parse matrix result: %w", err)
		}
		return formatMatrix(matrix), nil
	default:
		// Unknown result type: hand back the whole envelope pretty-printed
		// rather than guessing at a shape.
		raw, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

func formatStreams(streams []StreamResult, opts QueryOptions) (string, error) {
	var b strings.Builder
	for _, stream := range streams {
		if !opts.Quiet {
			b.WriteString(stream.Stream.String())
			b.WriteByte('\n')
		}
		for _, pair := range stream.Values {
			switch opts.Output {
			case OutputJSONL:
				line, err := json.Marshal(jsonlEntry{
					Timestamp: isoFromNanos(pair[0]),
					Labels:    stream.Stream,
					Line:      pair[1],
				})
				if err != nil {
					return "", err
				}
				b.Write(line)
				b.WriteByte('\n')
			case OutputRaw:
				b.WriteString(pair[1])
				b.WriteByte('\n')
			default:
				b.WriteString(isoFromNanos(pair[0]))
				b.WriteByte(' ')
				b.WriteString(pair[1])
				b.WriteByte('\n')
			}
		}
		if !opts.Quiet {
			b.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

func formatVector(vector []VectorResult) string {
	var b strings.Builder
	for _, sample := range vector {
		b.WriteString(sample.Metric.String())
		b.WriteByte(' ')
		b.WriteString(sample.Value.Value)
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatMatrix(matrix []MatrixResult) string {
	var b strings.Builder
	for _, series := range matrix {
		b.WriteString(series.Metric.String())
		b.WriteByte('\n')
		for _, pair := range series.Values {
			b.WriteString("  ")
			b.WriteString(isoFromMillis(int64(pair.Timestamp * 1000)))
			b.WriteByte(' ')
			b.WriteString(pair.Value)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// isoFromNanos converts a nanosecond epoch string to ISO-8601 at
// millisecond precision.
func isoFromNanos(ns string) string {
	n, err := strconv.ParseInt(ns, 10, 64)
	if err != nil {
		return ns
	}
	return isoFromMillis(n / 1_000_000)
}

func isoFromMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
