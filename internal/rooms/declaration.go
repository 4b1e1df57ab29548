package rooms

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// DeclarationFile is the default filename for room declarations
const DeclarationFile = "ROOMS.toml"

// Declaration describes one room in ROOMS.toml. A room is the tenant
// boundary: every graph edge, capture and session belongs to exactly one.
type Declaration struct {
	// ID is the unique room identifier (generated from name if empty)
	ID string `toml:"id"`

	// Name is the human-readable room name
	Name string `toml:"name"`

	// Description is a one-line summary of the room's project
	Description string `toml:"description,omitempty"`

	// Owner is the owner reference (e.g. @team-name or user@email.com)
	Owner string `toml:"owner,omitempty"`

	// Tags are classification tags for the room
	Tags []string `toml:"tags,omitempty"`

	// Thresholds overrides the room's healing thresholds
	Thresholds *ThresholdDeclaration `toml:"thresholds,omitempty"`
}

// ThresholdDeclaration overrides healing thresholds per room.
// Zero values fall back to the global configured values.
type ThresholdDeclaration struct {
	// SeverityThreshold is the minimum prediction severity the planner
	// acts on (1-10)
	SeverityThreshold int `toml:"severity_threshold,omitempty"`

	// RiskThreshold is the minimum overall risk that triggers automatic
	// healing (0-100)
	RiskThreshold int `toml:"risk_threshold,omitempty"`
}

// File represents the root structure of ROOMS.toml
type File struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Rooms is the list of declared rooms
	Rooms []Declaration `toml:"room"`
}

// ParseFile parses a ROOMS.toml file from the given path
func ParseFile(filePath string) (*File, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROOMS.toml: %w", err)
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse ROOMS.toml: %w", err)
	}

	if file.Version < 1 {
		file.Version = 1
	}

	if err := validate(&file); err != nil {
		return nil, err
	}

	return &file, nil
}

// Load loads room declarations from the project root if the file exists.
// A missing file is not an error; it yields no rooms.
func Load(root string, declarationFile string) ([]Declaration, error) {
	if declarationFile == "" {
		declarationFile = DeclarationFile
	}

	filePath := filepath.Join(root, declarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	file, err := ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	rooms := make([]Declaration, 0, len(file.Rooms))
	for _, decl := range file.Rooms {
		if decl.ID == "" {
			decl.ID = StableRoomID(decl.Name)
		}
		rooms = append(rooms, decl)
	}
	return rooms, nil
}

func validate(file *File) error {
	seen := make(map[string]bool, len(file.Rooms))
	for i, decl := range file.Rooms {
		if decl.Name == "" && decl.ID == "" {
			return fmt.Errorf("room declaration %d missing both 'id' and 'name'", i)
		}

		id := decl.ID
		if id == "" {
			id = StableRoomID(decl.Name)
		}
		if seen[id] {
			return fmt.Errorf("duplicate room id %q", id)
		}
		seen[id] = true

		if t := decl.Thresholds; t != nil {
			if t.SeverityThreshold < 0 || t.SeverityThreshold > 10 {
				return fmt.Errorf("room %q: severity_threshold must be between 1 and 10", id)
			}
			if t.RiskThreshold < 0 || t.RiskThreshold > 100 {
				return fmt.Errorf("room %q: risk_threshold must be between 0 and 100", id)
			}
		}
	}
	return nil
}

// WriteFile writes a ROOMS.toml to the given path
func WriteFile(filePath string, file *File) error {
	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal ROOMS.toml: %w", err)
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write ROOMS.toml: %w", err)
	}
	return nil
}

// CreateExampleFile creates a starter ROOMS.toml
func CreateExampleFile(filePath string) error {
	example := &File{
		Version: 1,
		Rooms: []Declaration{
			{
				Name:        "storefront",
				Description: "Customer-facing storefront app",
				Owner:       "@storefront-team",
				Tags:        []string{"production"},
				Thresholds: &ThresholdDeclaration{
					SeverityThreshold: 6,
					RiskThreshold:     40,
				},
			},
			{
				Name:        "admin-console",
				Description: "Internal admin console",
				Owner:       "@platform-team",
			},
		},
	}
	return WriteFile(filePath, example)
}

// StableRoomID generates a deterministic room ID from its name.
// Format: mend:room:<hash>. The hash survives description and owner edits.
func StableRoomID(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("mend:room:%s", hex.EncodeToString(hash[:8]))
}

// ParseRoomID extracts the hash from a room ID, reporting validity
func ParseRoomID(roomID string) (hash string, isValid bool) {
	if !strings.HasPrefix(roomID, "mend:room:") {
		return "", false
	}
	parts := strings.Split(roomID, ":")
	if len(parts) != 3 || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
