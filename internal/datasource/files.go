package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DefaultMaxLineSize is the longest JSONL line accepted before the line is
// skipped.
const DefaultMaxLineSize = 4 * 1024 * 1024

// WarnFunc receives non-fatal problems found while parsing.
type WarnFunc func(msg string)

// document is the object form of a JSON or YAML source.
type document struct {
	Nodes []Item `json:"nodes" yaml:"nodes"`
}

// LoadJSONFile reads a JSON document. The document is either an array of
// items, an object with a "nodes" array, or a single item with children.
func LoadJSONFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	items, err := ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

// ParseJSON decodes the JSON document forms accepted by LoadJSONFile.
func ParseJSON(data []byte) ([]Item, error) {
	data = bytes.TrimSpace(stripBOM(data))
	if len(data) == 0 {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	case '{':
		var doc struct {
			Nodes *[]Item `json:"nodes"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Nodes != nil {
			return *doc.Nodes, nil
		}
		var single Item
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, err
		}
		return []Item{single}, nil
	default:
		return nil, fmt.Errorf("unexpected leading %q: %w", data[0], ErrUnknownFormat)
	}
}

// LoadJSONLFile reads one item per line.
func LoadJSONLFile(path string, warn WarnFunc) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	items, err := ParseJSONL(f, warn)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

// ParseJSONL reads items line by line. Malformed lines, lines without an id
// and lines longer than DefaultMaxLineSize are skipped with a warning.
func ParseJSONL(r io.Reader, warn WarnFunc) ([]Item, error) {
	if warn == nil {
		warn = func(string) {}
	}
	reader := bufio.NewReaderSize(r, DefaultMaxLineSize)

	var items []Item
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("reading line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, DefaultMaxLineSize))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("skipping long line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var it Item
		if err := json.Unmarshal(line, &it); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if it.ID == "" {
			warn(fmt.Sprintf("skipping line %d: missing id", lineNum))
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// LoadYAMLFile reads a YAML document in the same forms as LoadJSONFile.
func LoadYAMLFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	items, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return items, nil
}

// ParseYAML decodes a YAML sequence of items, a mapping with "nodes", or a
// single item.
func ParseYAML(data []byte) ([]Item, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return nil, nil
	}
	top := node.Content[0]
	switch top.Kind {
	case yaml.SequenceNode:
		var items []Item
		if err := top.Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(top.Content); i += 2 {
			if top.Content[i].Value == "nodes" {
				var doc document
				if err := top.Decode(&doc); err != nil {
					return nil, err
				}
				return doc.Nodes, nil
			}
		}
		var single Item
		if err := top.Decode(&single); err != nil {
			return nil, err
		}
		return []Item{single}, nil
	default:
		return nil, fmt.Errorf("unexpected YAML %v: %w", top.Tag, ErrUnknownFormat)
	}
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
