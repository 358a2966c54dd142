package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/vitaliisemenov/selector-engine/internal/selector"
)

// loadSubjects reads a JSON array of subjects from path.
func loadSubjects(path string) ([]*selector.Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subjects file: %w", err)
	}
	var subjects []*selector.Subject
	if err := json.Unmarshal(data, &subjects); err != nil {
		return nil, fmt.Errorf("parsing subjects file: %w", err)
	}
	return subjects, nil
}

// loadSubject reads a single JSON subject from path.
func loadSubject(path string) (*selector.Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading subject file: %w", err)
	}
	var subject selector.Subject
	if err := json.Unmarshal(data, &subject); err != nil {
		return nil, fmt.Errorf("parsing subject file: %w", err)
	}
	return &subject, nil
}

// queryOptions builds the parse options implied by the --kind flag.
func queryOptions() []selector.Option {
	if kind == "" {
		return nil
	}
	return []selector.Option{selector.WithDefaultKind(kind)}
}

// subjectLabel prints the most identifying attribute a subject carries.
func subjectLabel(s *selector.Subject) string {
	if s.HasID() {
		return s.IDValue()
	}
	if s.HasFQDN() {
		return s.FQDNValue()
	}
	return "<unidentified subject>"
}

// printSubjects renders a subject list in the configured output format.
func printSubjects(subjects []*selector.Subject) error {
	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(subjects)
	}
	for _, s := range subjects {
		fmt.Println(subjectLabel(s))
	}
	return nil
}
