package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUploadRecord_PassThrough(t *testing.T) {
	in := `{"name":"r.pdf","size":12,"lastModified":1700000000000,"type":"application/pdf","path":"/u/r.pdf"}`

	var rec UploadRecord
	if err := json.Unmarshal([]byte(in), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Key() != "r.pdf_12_1700000000000" {
		t.Errorf("unexpected key %q", rec.Key())
	}
	if len(rec.Extra) != 2 {
		t.Fatalf("expected 2 extra members, got %v", rec.Extra)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), `"type":"application/pdf"`) {
		t.Errorf("extra member lost: %s", out)
	}
	if !strings.Contains(string(out), `"lastModified":1700000000000`) {
		t.Errorf("lastModified lost: %s", out)
	}
}

func TestUploadRecord_RejectsBadSize(t *testing.T) {
	var rec UploadRecord
	if err := json.Unmarshal([]byte(`{"name":"x","size":"big"}`), &rec); err == nil {
		t.Fatal("expected error for non-numeric size")
	}
}
