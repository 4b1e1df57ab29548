package graph

import (
	"bufio"
	"context"
	"path"
	"strings"

	"mend/internal/logging"
)

// Scanner bulk-loads the dependency graph by regex-scanning source files
// for import statements and outbound HTTP/API calls. It is a convenience
// loader, not a parser: partial or missed matches are not errors.
type Scanner struct {
	store            *Store
	patterns         map[string]*LanguagePattern
	maxFileSizeBytes int
	logger           *logging.Logger
}

// ScannerOptions configures a Scanner
type ScannerOptions struct {
	// PatternFile optionally merges custom language patterns over builtins
	PatternFile string

	// MaxFileSizeBytes skips files larger than this (0 = 1MB default)
	MaxFileSizeBytes int
}

// ScanResult summarizes one ScanCodebase run
type ScanResult struct {
	FilesScanned int `json:"filesScanned"`
	FilesSkipped int `json:"filesSkipped"`
	EdgesTracked int `json:"edgesTracked"`
}

// NewScanner creates a scanner that feeds the given graph store
func NewScanner(store *Store, opts ScannerOptions, logger *logging.Logger) (*Scanner, error) {
	patterns := builtinPatterns
	if opts.PatternFile != "" {
		loaded, err := LoadPatternFile(opts.PatternFile)
		if err != nil {
			return nil, err
		}
		patterns = loaded
	}

	maxSize := opts.MaxFileSizeBytes
	if maxSize <= 0 {
		maxSize = 1024 * 1024
	}

	return &Scanner{
		store:            store,
		patterns:         patterns,
		maxFileSizeBytes: maxSize,
		logger:           logger,
	}, nil
}

// ScanCodebase walks the provided files and tracks one edge per import or
// outbound call match. Persistence failures abort the scan; match misses
// do not.
func (s *Scanner) ScanCodebase(ctx context.Context, files map[string]string) (*ScanResult, error) {
	result := &ScanResult{}

	for filePath, content := range files {
		pattern := s.patternForFile(filePath)
		if pattern == nil || len(content) > s.maxFileSizeBytes {
			result.FilesSkipped++
			continue
		}

		tracked, err := s.scanFile(ctx, filePath, content, pattern)
		if err != nil {
			return nil, err
		}
		result.FilesScanned++
		result.EdgesTracked += tracked
	}

	s.logger.Info("Codebase scan finished", map[string]interface{}{
		"scanned": result.FilesScanned,
		"skipped": result.FilesSkipped,
		"edges":   result.EdgesTracked,
	})
	return result, nil
}

func (s *Scanner) scanFile(ctx context.Context, filePath, content string, pattern *LanguagePattern) (int, error) {
	tracked := 0
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		for _, re := range pattern.ImportPatterns {
			for _, match := range re.FindAllStringSubmatch(line, -1) {
				target := normalizeImport(filePath, match[1])
				if target == "" || seen["file:"+target] {
					continue
				}
				seen["file:"+target] = true

				if _, err := s.store.TrackDependency(ctx, TrackRequest{
					SourceType:       "file",
					SourceID:         filePath,
					TargetType:       "file",
					TargetID:         target,
					RelationshipType: RelImports,
					Metadata:         map[string]interface{}{"scanned": true},
				}); err != nil {
					return tracked, err
				}
				tracked++
			}
		}

		for _, re := range pattern.CallPatterns {
			for _, match := range re.FindAllStringSubmatch(line, -1) {
				endpoint := normalizeEndpoint(match[1])
				if endpoint == "" || seen["api:"+endpoint] {
					continue
				}
				seen["api:"+endpoint] = true

				if _, err := s.store.TrackDependency(ctx, TrackRequest{
					SourceType:       "file",
					SourceID:         filePath,
					TargetType:       "api",
					TargetID:         endpoint,
					RelationshipType: RelCalls,
					Metadata:         map[string]interface{}{"scanned": true},
				}); err != nil {
					return tracked, err
				}
				tracked++
			}
		}
	}
	// Scanner errors on oversized lines are a skip, not a failure
	if err := scanner.Err(); err != nil {
		s.logger.Warn("File scan truncated", map[string]interface{}{
			"file":  filePath,
			"error": err.Error(),
		})
	}

	return tracked, nil
}

func (s *Scanner) patternForFile(filePath string) *LanguagePattern {
	ext := strings.ToLower(path.Ext(filePath))
	if ext == "" {
		return nil
	}
	for _, pattern := range s.patterns {
		for _, candidate := range pattern.Extensions {
			if candidate == ext {
				return pattern
			}
		}
	}
	return nil
}

// normalizeImport resolves a relative import against the importing file and
// strips any extension, so "./util" from "src/app.ts" becomes "src/util".
// Bare module specifiers (packages) are kept as-is.
func normalizeImport(fromFile, spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return ""
	}

	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		resolved := path.Join(path.Dir(fromFile), spec)
		if ext := path.Ext(resolved); ext != "" {
			resolved = strings.TrimSuffix(resolved, ext)
		}
		return resolved
	}
	return spec
}

// normalizeEndpoint reduces an HTTP call target to its path, dropping
// scheme, host and query string.
func normalizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if idx := strings.Index(raw, "://"); idx >= 0 {
		rest := raw[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			raw = rest[slash:]
		} else {
			return ""
		}
	}
	if idx := strings.Index(raw, "?"); idx >= 0 {
		raw = raw[:idx]
	}
	if !strings.HasPrefix(raw, "/") {
		return ""
	}
	return raw
}
