package classify

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// synonymsFile is the on-disk shape of a synonym override file:
//
//	synonyms:
//	  Games: ["网游", "主机游戏"]
//	  Music: ["偶像歌曲"]
//
// Keys must be canonical category labels. Entries are layered on top of
// the built-in table; an entry for an existing term overrides it.
type synonymsFile struct {
	Synonyms map[string][]string `yaml:"synonyms"`
}

// LoadSynonyms builds the synonym table, optionally extended from a YAML
// file. An empty path returns the built-in table.
func LoadSynonyms(path string) (SynonymTable, error) {
	table := DefaultSynonyms()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonyms file: %w", err)
	}

	var file synonymsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse synonyms file: %w", err)
	}

	added := 0
	for label, terms := range file.Synonyms {
		category, ok := categoryByName(label)
		if !ok {
			return nil, fmt.Errorf("unknown category %q in synonyms file", label)
		}
		for _, term := range terms {
			norm := normalizeLabel(term)
			if norm == "" {
				continue
			}
			table[norm] = category
			added++
		}
	}

	slog.Debug("Synonym table loaded", "path", path, "added", added, "total", len(table))
	return table, nil
}

func categoryByName(name string) (Category, bool) {
	norm := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories() {
		if norm == strings.ToLower(c.String()) {
			return c, true
		}
	}
	return FallbackCategory, false
}
