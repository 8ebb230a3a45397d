package drive

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFilePayloadResolve(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, err := FilePayload{Path: path}.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	defer resolved.cleanup()

	if resolved.name != "report.csv" {
		t.Errorf("name = %q, want report.csv", resolved.name)
	}
	if resolved.mimeType == "" || resolved.mimeType == "application/octet-stream" {
		t.Errorf("mimeType = %q, want a csv type from the extension", resolved.mimeType)
	}

	data, err := io.ReadAll(resolved.content)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("content = %q", data)
	}
}

func TestFilePayloadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, err := FilePayload{Path: path, Name: "renamed.bin", MIMEType: "application/x-test"}.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	defer resolved.cleanup()

	if resolved.name != "renamed.bin" {
		t.Errorf("name = %q, want renamed.bin", resolved.name)
	}
	if resolved.mimeType != "application/x-test" {
		t.Errorf("mimeType = %q, want the override", resolved.mimeType)
	}
}

func TestFilePayloadMissingFile(t *testing.T) {
	if _, err := (FilePayload{Path: filepath.Join(t.TempDir(), "absent")}).resolve(); err == nil {
		t.Fatal("resolving a missing file must fail")
	}
}

func TestRawPayloadResolve(t *testing.T) {
	resolved, err := RawPayload{Name: "notes.txt", Data: []byte("hello")}.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if resolved.mimeType != "application/octet-stream" {
		t.Errorf("mimeType = %q, want the octet-stream default", resolved.mimeType)
	}
	data, _ := io.ReadAll(resolved.content)
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}

func TestRawPayloadRequiresName(t *testing.T) {
	if _, err := (RawPayload{Data: []byte("x")}).resolve(); err == nil {
		t.Fatal("a raw payload without a name must fail")
	}
}

func TestTabularPayloadResolve(t *testing.T) {
	p := TabularPayload{
		Name:   "scores",
		Header: []string{"name", "score"},
		Rows: [][]string{
			{"alice", "10"},
			{"bob, jr.", "7"},
		},
	}

	resolved, err := p.resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if resolved.mimeType != "text/csv" {
		t.Errorf("mimeType = %q, want text/csv", resolved.mimeType)
	}

	data, _ := io.ReadAll(resolved.content)
	want := "name,score\nalice,10\n\"bob, jr.\",7\n"
	if string(data) != want {
		t.Errorf("content = %q, want %q", data, want)
	}
}

func TestEscapeQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report", "'report'"},
		{"bob's files", `'bob\'s files'`},
		{"", "''"},
	}

	for _, tt := range tests {
		if got := escapeQuery(tt.in); got != tt.want {
			t.Errorf("escapeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
