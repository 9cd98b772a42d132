package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

var ErrRubricFile = errors.New("cannot load rubric file")

// LoadRubric читает рубрику из YAML:
//
//	overall_threshold: 0.8
//	dimensions:
//	  - name: accuracy
//	    weight: 0.4
//	    threshold: 0.8
func LoadRubric(path string) (domain.Rubric, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Rubric{}, fmt.Errorf("%w: %w", ErrRubricFile, err)
	}
	defer f.Close()

	return ParseRubric(f)
}

func ParseRubric(r io.Reader) (domain.Rubric, error) {
	var rubric domain.Rubric

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rubric); err != nil {
		return domain.Rubric{}, fmt.Errorf("%w: %w: %v", domain.ErrConfiguration, ErrRubricFile, err)
	}
	if err := rubric.Validate(); err != nil {
		return domain.Rubric{}, err
	}
	return rubric, nil
}
