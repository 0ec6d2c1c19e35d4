package processor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadBatch(t *testing.T) {
	reqs, err := ReadBatch(strings.NewReader(`[
		{"method": "credit_card", "identifier": "1234567898765432", "amount": 100},
		{"method": "paypal", "identifier": "bad-email", "amount": 150}
	]`))
	if err != nil {
		t.Fatalf("ReadBatch() error = %v", err)
	}
	if len(reqs) != 2 || reqs[1].Identifier != "bad-email" || reqs[0].Amount != 100 {
		t.Fatalf("reqs = %+v", reqs)
	}

	for _, input := range []string{`{"method":"paypal"}`, `[{"method":"paypal","pin":1}]`, `[`} {
		if _, err := ReadBatch(strings.NewReader(input)); err == nil {
			t.Errorf("ReadBatch(%q) succeeded", input)
		}
	}
}

func TestLoadBatch(t *testing.T) {
	reqs, err := LoadBatch("")
	if err != nil || len(reqs) != 3 {
		t.Fatalf("LoadBatch(\"\") = %v, %v", reqs, err)
	}

	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(`[{"method":"bank_transfer","identifier":"12345","amount":200}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	reqs, err = LoadBatch(path)
	if err != nil || len(reqs) != 1 || reqs[0].Identifier != "12345" {
		t.Fatalf("LoadBatch() = %v, %v", reqs, err)
	}

	if _, err := LoadBatch(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing batch file accepted")
	}
}
