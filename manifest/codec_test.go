package manifest_test

import (
	"strings"
	"testing"

	"github.com/stratts/vaultbak/manifest"
)

func TestEncodeDecodeInfoRoundTrip(t *testing.T) {
	id := "bak"
	info := manifest.Info{
		ID:      &id,
		Src:     "/home/user/src",
		Include: []string{"**/*.go"},
		Exclude: nil,
	}

	data, err := manifest.EncodeInfo(info)
	if err != nil {
		t.Fatalf("EncodeInfo: %v", err)
	}

	got, err := manifest.DecodeInfo(data)
	if err != nil {
		t.Fatalf("DecodeInfo: %v", err)
	}
	if got.Src != info.Src || *got.ID != *info.ID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, info)
	}
	if got.Exclude != nil {
		t.Fatalf("expected exclude to stay nil, got %v", got.Exclude)
	}
}

func TestDecodeInfoRejectsMissingFields(t *testing.T) {
	_, err := manifest.DecodeInfo([]byte(`{"src": "x"}`))
	if err == nil {
		t.Fatal("expected validation error for missing include/exclude")
	}
}

func TestEncodeVersionSortsFileKeys(t *testing.T) {
	v := manifest.Version{
		ID:        "2026-01-02-030405",
		Time:      1767322245,
		Size:      10,
		SizeDelta: 10,
		Files: map[string]manifest.FileRecord{
			"z.txt": {Mod: 1.5, Size: 5, Location: "2026-01-02-030405"},
			"a.txt": {Mod: 2.5, Size: 5, Location: "2026-01-02-030405"},
		},
	}

	data, err := manifest.EncodeVersion(v)
	if err != nil {
		t.Fatalf("EncodeVersion: %v", err)
	}

	s := string(data)
	if strings.Index(s, `"a.txt"`) > strings.Index(s, `"z.txt"`) {
		t.Fatalf("expected a.txt to sort before z.txt, got:\n%s", s)
	}
	if !strings.Contains(s, "\n    \"id\"") {
		t.Fatalf("expected 4-space indentation, got:\n%s", s)
	}
}

func TestDecodeVersionRejectsBadLocationPattern(t *testing.T) {
	bad := `{"id":"2026-01-02-030405","time":1,"size":1,"sizedelta":1,"files":{"a":{"mod":1.0,"size":1,"location":"not-a-version-id"}}}`
	_, err := manifest.DecodeVersion([]byte(bad))
	if err == nil {
		t.Fatal("expected validation error for malformed location")
	}
}
