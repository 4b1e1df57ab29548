package graph

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

// LanguagePattern defines the scan patterns for one language
type LanguagePattern struct {
	// Language name
	Language string

	// Extensions lists file extensions for this language
	Extensions []string

	// ImportPatterns extract imported module paths (first capture group)
	ImportPatterns []*regexp.Regexp

	// CallPatterns extract outbound HTTP/API endpoints (first capture group)
	CallPatterns []*regexp.Regexp
}

// Shared outbound-call patterns. These catch fetch/axios style HTTP calls
// regardless of language.
var httpCallPatterns = []*regexp.Regexp{
	regexp.MustCompile(`fetch\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`),
	regexp.MustCompile(`axios\.\w+\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`),
	regexp.MustCompile(`https?\.(?:get|post|put|delete|request)\s*\(\s*['"]([^'"]+)['"]`),
}

// builtinPatterns covers the languages the app-builder platform emits.
// This is best-effort static analysis, not a parser; missed matches are
// expected.
var builtinPatterns = map[string]*LanguagePattern{
	"typescript": {
		Language:   "typescript",
		Extensions: []string{".ts", ".tsx"},
		ImportPatterns: []*regexp.Regexp{
			regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`export\s+.*?from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
			regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`), // Dynamic import
		},
		CallPatterns: httpCallPatterns,
	},
	"javascript": {
		Language:   "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		ImportPatterns: []*regexp.Regexp{
			regexp.MustCompile(`import\s+.*?from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`export\s+.*?from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`require\s*\(\s*['"]([^'"]+)['"]\s*\)`),
			regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`),
		},
		CallPatterns: httpCallPatterns,
	},
	"python": {
		Language:   "python",
		Extensions: []string{".py"},
		ImportPatterns: []*regexp.Regexp{
			regexp.MustCompile(`from\s+([^\s]+)\s+import`),
			regexp.MustCompile(`^import\s+([^\s,;]+)`),
		},
		CallPatterns: []*regexp.Regexp{
			regexp.MustCompile(`requests\.\w+\s*\(\s*['"]([^'"]+)['"]`),
			regexp.MustCompile(`httpx\.\w+\s*\(\s*['"]([^'"]+)['"]`),
		},
	},
	"go": {
		Language:   "go",
		Extensions: []string{".go"},
		ImportPatterns: []*regexp.Regexp{
			// Single line: import "path"
			regexp.MustCompile(`^\s*import\s+"([^"]+)"`),
			// Multi-line block: whitespace + optional alias + "path"
			regexp.MustCompile(`^\s*(?:\w+\s+)?"([^"]+)"\s*$`),
		},
		CallPatterns: []*regexp.Regexp{
			regexp.MustCompile(`http\.(?:Get|Post|Head)\s*\(\s*"([^"]+)"`),
		},
	},
	"css": {
		Language:   "css",
		Extensions: []string{".css", ".scss", ".less"},
		ImportPatterns: []*regexp.Regexp{
			regexp.MustCompile(`@import\s+['"]([^'"]+)['"]`),
		},
	},
}

// patternFile is the on-disk shape of a custom pattern declaration
type patternFile struct {
	Languages []patternDecl `toml:"language"`
}

type patternDecl struct {
	Name       string   `toml:"name"`
	Extensions []string `toml:"extensions"`
	Imports    []string `toml:"imports"`
	Calls      []string `toml:"calls"`
}

// LoadPatternFile reads additional language patterns from a TOML file and
// merges them over the builtins. Declarations with a known language name
// replace the builtin entry.
func LoadPatternFile(path string) (map[string]*LanguagePattern, error) {
	patterns := make(map[string]*LanguagePattern, len(builtinPatterns))
	for name, p := range builtinPatterns {
		patterns[name] = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file: %w", err)
	}

	var file patternFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file: %w", err)
	}

	for _, decl := range file.Languages {
		if decl.Name == "" || len(decl.Extensions) == 0 {
			return nil, fmt.Errorf("pattern declaration requires name and extensions")
		}

		lp := &LanguagePattern{
			Language:   decl.Name,
			Extensions: decl.Extensions,
		}
		for _, raw := range decl.Imports {
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid import pattern for %s: %w", decl.Name, err)
			}
			lp.ImportPatterns = append(lp.ImportPatterns, re)
		}
		for _, raw := range decl.Calls {
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid call pattern for %s: %w", decl.Name, err)
			}
			lp.CallPatterns = append(lp.CallPatterns, re)
		}

		patterns[decl.Name] = lp
	}

	return patterns, nil
}
