package lessons

import (
	"errors"
	"fmt"
	"strings"
)

// CollectionName is the document store collection holding lesson documents.
const CollectionName = "lessons"

// DefaultTitle is reported for lessons stored without a usable title.
const DefaultTitle = "Untitled Lesson"

// StepType discriminates the variants of a Step.
type StepType string

const (
	StepText StepType = "text"
	StepQuiz StepType = "quiz"
	StepCode StepType = "code"
)

// Lesson is a titled, ordered sequence of steps keyed by a human-assigned id
// such as "lesson-01".
type Lesson struct {
	ID    string `json:"id" firestore:"id" yaml:"id"`
	Title string `json:"title" firestore:"title" yaml:"title"`
	Steps []Step `json:"steps" firestore:"steps" yaml:"steps"`
}

// Step is one unit of lesson content. Only the fields belonging to Type are
// meaningful; the rest stay empty and are omitted when stored.
type Step struct {
	Type    StepType `json:"type" firestore:"type" yaml:"type"`
	Heading string   `json:"heading,omitempty" firestore:"heading,omitempty" yaml:"heading,omitempty"`

	// text
	Content     string `json:"content,omitempty" firestore:"content,omitempty" yaml:"content,omitempty"`
	ExampleCode string `json:"example_code,omitempty" firestore:"example_code,omitempty" yaml:"example_code,omitempty"`

	// quiz
	Question string   `json:"question,omitempty" firestore:"question,omitempty" yaml:"question,omitempty"`
	Options  []string `json:"options,omitempty" firestore:"options,omitempty" yaml:"options,omitempty"`
	Answer   string   `json:"answer,omitempty" firestore:"answer,omitempty" yaml:"answer,omitempty"`

	// code
	Instruction    string `json:"instruction,omitempty" firestore:"instruction,omitempty" yaml:"instruction,omitempty"`
	InitialCode    string `json:"initial_code,omitempty" firestore:"initial_code,omitempty" yaml:"initial_code,omitempty"`
	ExpectedOutput string `json:"expected_output,omitempty" firestore:"expected_output,omitempty" yaml:"expected_output,omitempty"`
}

// Validate checks that the fields required by the step's variant are set.
// A quiz answer is not required to appear among the options.
func (s Step) Validate() error {
	switch s.Type {
	case StepText:
		if strings.TrimSpace(s.Content) == "" {
			return errors.New("text step requires content")
		}
	case StepQuiz:
		if strings.TrimSpace(s.Question) == "" {
			return errors.New("quiz step requires a question")
		}
		if len(s.Options) < 2 {
			return fmt.Errorf("quiz step requires at least 2 options, got %d", len(s.Options))
		}
		if strings.TrimSpace(s.Answer) == "" {
			return errors.New("quiz step requires an answer")
		}
	case StepCode:
		if strings.TrimSpace(s.Instruction) == "" {
			return errors.New("code step requires an instruction")
		}
	case "":
		return errors.New("step type is missing")
	default:
		return fmt.Errorf("unknown step type %q", s.Type)
	}
	return nil
}

// Validate checks the lesson and every one of its steps.
func (l Lesson) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("lesson id is required")
	}
	if strings.ContainsRune(l.ID, '/') {
		return fmt.Errorf("lesson %q: id must not contain '/'", l.ID)
	}
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("lesson %q: title is required", l.ID)
	}
	if len(l.Steps) == 0 {
		return fmt.Errorf("lesson %q: at least one step is required", l.ID)
	}
	for i, step := range l.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("lesson %q step %d: %w", l.ID, i, err)
		}
	}
	return nil
}

// Document is a lesson document exactly as the store returned it.
type Document struct {
	ID   string
	Data map[string]any
}

// HasSteps reports whether the document carries a steps field at all.
func (d Document) HasSteps() bool {
	_, ok := d.Data["steps"]
	return ok
}

// Summary is the list projection of a lesson document.
type Summary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StepCount int    `json:"step_count"`
}

// Summarize projects a stored document, tolerating a missing or malformed
// title and steps field.
func Summarize(doc Document) Summary {
	title, ok := doc.Data["title"].(string)
	if !ok {
		title = DefaultTitle
	}
	return Summary{
		ID:        doc.ID,
		Title:     title,
		StepCount: countSteps(doc.Data["steps"]),
	}
}

func countSteps(raw any) int {
	switch steps := raw.(type) {
	case []any:
		return len(steps)
	case []map[string]any:
		return len(steps)
	default:
		return 0
	}
}
