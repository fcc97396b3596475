package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
)

// MarshalResult encodes a layout result as indented JSON.
func MarshalResult(r layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteResult writes a layout result as indented JSON to w.
func WriteResult(w io.Writer, r layout.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteResultFile writes a layout result to a JSON file.
func WriteResultFile(r layout.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteResult(f, r)
}

// ReadResult decodes a layout result written by [WriteResult].
func ReadResult(r io.Reader) (layout.Result, error) {
	var res layout.Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return layout.Result{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout result")
	}
	return res, nil
}

// UnmarshalResult decodes a layout result from JSON bytes.
func UnmarshalResult(data []byte) (layout.Result, error) {
	return ReadResult(bytes.NewReader(data))
}
