// Package questionbank holds the fixed pool of practice questions.
package questionbank

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"practicecoach/internal/model"
)

//go:embed bank.yaml
var defaultBank []byte

const bankKind = "QuestionBank"

type bankFile struct {
	Kind  string           `yaml:"kind"`
	Items []model.BankItem `yaml:"items"`
}

// Default returns the embedded bank.
func Default() ([]model.BankItem, error) {
	return Parse(defaultBank)
}

// LoadFromFile reads a bank from a YAML file with the same layout as the embedded one.
func LoadFromFile(path string) ([]model.BankItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]model.BankItem, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("invalid question bank: %w", err)
	}
	return f.Items, nil
}

func validate(f *bankFile) error {
	if f.Kind != bankKind {
		return fmt.Errorf("kind must be '%s', got '%s'", bankKind, f.Kind)
	}
	if len(f.Items) == 0 {
		return fmt.Errorf("items must contain at least one question")
	}

	seen := make(map[string]struct{}, len(f.Items))
	for i, item := range f.Items {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("items[%d].id is required", i)
		}
		if strings.TrimSpace(item.Text) == "" {
			return fmt.Errorf("items[%d].text is required", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate item id '%s'", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}
