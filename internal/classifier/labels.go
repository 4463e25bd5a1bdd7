package classifier

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oceanecho/oceanecho/internal/errors"
)

// labelFile is the JSON/YAML label encoder format.
type labelFile struct {
	Classes []string `json:"classes" yaml:"classes"`
}

// LabelEncoder maps class indices back to species labels.
type LabelEncoder struct {
	classes []string
}

// NewLabelEncoder creates an encoder over classes, in index order.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder has no classes")
	}
	seen := make(map[string]int, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("class %d has an empty label", i)
		}
		if prev, ok := seen[c]; ok {
			return nil, fmt.Errorf("class %q appears at both %d and %d", c, prev, i)
		}
		seen[c] = i
	}
	return &LabelEncoder{classes: append([]string(nil), classes...)}, nil
}

// LoadLabelEncoder reads class labels from a .txt file with one label per
// line, or a JSON/YAML document with a "classes" list.
func LoadLabelEncoder(path string) (*LabelEncoder, error) {
	var classes []string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		classes, err = readLabelLines(path)
	} else {
		var doc labelFile
		err = decodeDocument(path, &doc)
		classes = doc.Classes
	}
	if err != nil {
		return nil, artifactError("label encoder", path, errors.CategoryLabelLoad, err)
	}

	enc, err := NewLabelEncoder(classes)
	if err != nil {
		return nil, artifactError("label encoder", path, errors.CategoryLabelLoad, err)
	}
	return enc, nil
}

func readLabelLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var classes []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		classes = append(classes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading labels: %w", err)
	}
	return classes, nil
}

// NumClasses returns the number of known classes.
func (e *LabelEncoder) NumClasses() int { return len(e.classes) }

// Classes returns a copy of the labels in index order.
func (e *LabelEncoder) Classes() []string { return append([]string(nil), e.classes...) }

// InverseTransform returns the label for a class index.
func (e *LabelEncoder) InverseTransform(index int) (string, error) {
	if index < 0 || index >= len(e.classes) {
		return "", unknownClassError(index, len(e.classes))
	}
	return e.classes[index], nil
}
