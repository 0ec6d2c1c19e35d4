// internal/processor/batch.go
package processor

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cmatc13/tender/internal/payment"
)

// ReadBatch decodes a JSON array of payment requests
func ReadBatch(r io.Reader) ([]payment.Request, error) {
	var reqs []payment.Request

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}

	return reqs, nil
}

// LoadBatch reads the batch file at path, or the demonstration batch when
// path is empty
func LoadBatch(path string) ([]payment.Request, error) {
	if path == "" {
		return DefaultBatch(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	return ReadBatch(f)
}
