package model

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// recognizedSections maps a bracketed header to the Model field it feeds.
var recognizedSections = map[string]func(*Model) map[string]string{
	SectionRequest:  func(m *Model) map[string]string { return m.Request },
	SectionPolicy:   func(m *Model) map[string]string { return m.Policy },
	SectionRole:     func(m *Model) map[string]string { return m.Role },
	SectionEffect:   func(m *Model) map[string]string { return m.Effect },
	SectionMatchers: func(m *Model) map[string]string { return m.Matchers },
}

// LoadFile reads and parses a Casbin-style model file from disk.
// I/O errors are returned wrapped; malformed lines inside a recognized
// section are logged as warnings via logger and otherwise skipped, per the
// parser's "never hard-fail on a bad line" contract. A nil logger disables
// warning output.
func LoadFile(path string, logger *slog.Logger) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read %s: %w", path, err)
	}
	return Parse(string(raw), logger)
}

// Parse parses Casbin-style INI model text into a [Model].
//
// Lines are trimmed; blank lines and lines starting with "#" are skipped.
// Each line inside a recognized section must be "key = value", split on the
// first "=" only, both sides trimmed. A line with no "=" inside a recognized
// section triggers a warning on logger and is otherwise ignored; parsing
// never aborts because of it. Unknown section headers are accepted but
// their contents are discarded.
func Parse(text string, logger *slog.Logger) (*Model, error) {
	m := newModel()
	warnUnrecognizedLine(text, logger)

	cfg, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: true,
		AllowShadows:            true,
	}, []byte(text))
	if err != nil {
		// ini.v1 only fails this hard on structural issues (e.g. an
		// unterminated section header); any plain malformed data line
		// was already tolerated by SkipUnrecognizableLines.
		return nil, fmt.Errorf("model: parse: %w", err)
	}

	for _, section := range cfg.Sections() {
		name := normalizeSectionName(section.Name())
		dest, ok := recognizedSections[name]
		if !ok {
			continue
		}
		target := dest(m)
		for _, key := range section.Keys() {
			target[key.Name()] = strings.TrimSpace(key.Value())
		}
	}

	return m, nil
}

// normalizeSectionName strips whitespace and lower-cases a section header
// so "[ROLE_DEFINITION]" and "[role_definition]" are treated identically.
func normalizeSectionName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// warnUnrecognizedLine scans raw model text for lines inside a recognized
// section that are neither blank, a comment, nor a "key = value" pair, and
// logs one warning per offending line. The ini library already tolerates
// these silently; this duplicates that scan so the warning reaches the host
// logger instead of being swallowed.
func warnUnrecognizedLine(text string, logger *slog.Logger) {
	if logger == nil {
		return
	}
	currentSection := ""
	inRecognized := false
	for i, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				// Mismatched bracket: treat as a data line in whatever
				// section we were previously in.
			} else {
				currentSection = normalizeSectionName(line[1:end])
				_, inRecognized = recognizedSections[currentSection]
				continue
			}
		}
		if !inRecognized {
			continue
		}
		if !strings.Contains(line, "=") {
			logger.Warn("model: malformed line in recognized section, ignoring",
				"section", currentSection, "line", i+1, "text", line)
		}
	}
}
