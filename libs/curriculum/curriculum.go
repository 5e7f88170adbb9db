// Package curriculum holds the static lesson content written to the store by
// the seed job.
package curriculum

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"pylearn/libs/lessons"
)

//go:embed lessons.yaml
var embedded []byte

type file struct {
	Lessons []lessons.Lesson `yaml:"lessons"`
}

// Load returns the curriculum shipped with the binary.
func Load() ([]lessons.Lesson, error) {
	return Parse(bytes.NewReader(embedded))
}

// Parse decodes a curriculum document. Unknown fields, duplicate ids and
// invalid steps are errors.
func Parse(r io.Reader) ([]lessons.Lesson, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("curriculum is empty")
		}
		return nil, fmt.Errorf("decode curriculum: %w", err)
	}
	if len(f.Lessons) == 0 {
		return nil, errors.New("curriculum has no lessons")
	}

	seen := make(map[string]struct{}, len(f.Lessons))
	for _, lesson := range f.Lessons {
		if _, dup := seen[lesson.ID]; dup {
			return nil, fmt.Errorf("duplicate lesson id %q", lesson.ID)
		}
		seen[lesson.ID] = struct{}{}
		if err := lesson.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Lessons, nil
}
