package rooms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDeclaration(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DeclarationFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestParseFile(t *testing.T) {
	path := writeDeclaration(t, `
version = 1

[[room]]
name = "storefront"
description = "Customer-facing storefront"
owner = "@storefront-team"
tags = ["production"]

[room.thresholds]
severity_threshold = 6
risk_threshold = 40

[[room]]
id = "mend:room:cafe0123"
name = "admin-console"
`)

	file, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if file.Version != 1 || len(file.Rooms) != 2 {
		t.Fatalf("file = %+v", file)
	}

	first := file.Rooms[0]
	if first.Name != "storefront" || first.Owner != "@storefront-team" {
		t.Errorf("first room = %+v", first)
	}
	if first.Thresholds == nil || first.Thresholds.SeverityThreshold != 6 || first.Thresholds.RiskThreshold != 40 {
		t.Errorf("thresholds = %+v", first.Thresholds)
	}
	if file.Rooms[1].ID != "mend:room:cafe0123" {
		t.Errorf("second room id = %q", file.Rooms[1].ID)
	}
}

func TestParseFileRejectsDuplicateIDs(t *testing.T) {
	path := writeDeclaration(t, `
[[room]]
name = "storefront"

[[room]]
name = "Storefront"
`)
	// Names differing only in case hash to the same stable id
	_, err := ParseFile(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate room id") {
		t.Errorf("err = %v, want duplicate id error", err)
	}
}

func TestParseFileRejectsBadThresholds(t *testing.T) {
	cases := []struct {
		name string
		toml string
	}{
		{"severity above range", "[[room]]\nname = \"a\"\n[room.thresholds]\nseverity_threshold = 11\n"},
		{"risk above range", "[[room]]\nname = \"a\"\n[room.thresholds]\nrisk_threshold = 101\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFile(writeDeclaration(t, tc.toml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseFileRejectsNamelessRoom(t *testing.T) {
	_, err := ParseFile(writeDeclaration(t, "[[room]]\ndescription = \"anonymous\"\n"))
	if err == nil {
		t.Error("expected error for room without id or name")
	}
}

func TestLoadMissingFileYieldsNoRooms(t *testing.T) {
	rooms, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rooms != nil {
		t.Errorf("rooms = %v, want nil", rooms)
	}
}

func TestLoadFillsGeneratedIDs(t *testing.T) {
	root := t.TempDir()
	content := "[[room]]\nname = \"storefront\"\n"
	if err := os.WriteFile(filepath.Join(root, DeclarationFile), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rooms, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rooms) != 1 {
		t.Fatalf("rooms = %d, want 1", len(rooms))
	}
	if rooms[0].ID != StableRoomID("storefront") {
		t.Errorf("id = %q, want generated stable id", rooms[0].ID)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DeclarationFile)
	if err := CreateExampleFile(path); err != nil {
		t.Fatalf("CreateExampleFile: %v", err)
	}

	file, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(file.Rooms) != 2 {
		t.Errorf("example rooms = %d, want 2", len(file.Rooms))
	}
	if file.Rooms[0].Thresholds == nil {
		t.Error("example thresholds missing")
	}
}

func TestStableRoomID(t *testing.T) {
	id := StableRoomID("Storefront")
	if id != StableRoomID("storefront") || id != StableRoomID("  storefront  ") {
		t.Error("id not stable across case and whitespace")
	}
	if id == StableRoomID("admin-console") {
		t.Error("distinct names collide")
	}
	if !strings.HasPrefix(id, "mend:room:") || len(id) != len("mend:room:")+16 {
		t.Errorf("id = %q", id)
	}
}

func TestParseRoomID(t *testing.T) {
	hash, ok := ParseRoomID(StableRoomID("storefront"))
	if !ok || len(hash) != 16 {
		t.Errorf("hash = %q ok = %v", hash, ok)
	}

	for _, bad := range []string{"", "room-1", "mend:room:", "mend:other:abc"} {
		if _, ok := ParseRoomID(bad); ok {
			t.Errorf("ParseRoomID(%q) accepted", bad)
		}
	}
}
