package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

// CompTask is one unit of batch comparable selection: a subject and the sales
// to search. An empty Sales list means "use the shared sales pool".
type CompTask struct {
	ID      string                  `json:"id"`
	Subject domain.SubjectProperty  `json:"subject"`
	Sales   []domain.ComparableSale `json:"sales,omitempty"`
}

// EquityTask is one unit of batch equity assessment, typically a jurisdiction or class.
type EquityTask struct {
	ID      string                    `json:"id"`
	Records []domain.AssessmentRecord `json:"records"`
}

func loadJSON[T any](path, what string) (T, error) {
	var v T
	b, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("read %s file: %w", what, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return v, nil
}

// LoadSubjectFromFile reads a single subject property.
func LoadSubjectFromFile(path string) (domain.SubjectProperty, error) {
	return loadJSON[domain.SubjectProperty](path, "subject")
}

// LoadSalesFromFile reads an array of comparable sales.
func LoadSalesFromFile(path string) ([]domain.ComparableSale, error) {
	return loadJSON[[]domain.ComparableSale](path, "sales")
}

// LoadAssessmentsFromFile reads an array of assessment records.
func LoadAssessmentsFromFile(path string) ([]domain.AssessmentRecord, error) {
	return loadJSON[[]domain.AssessmentRecord](path, "assessments")
}

// LoadCompTasksFromFile reads an array of batch comparable-selection tasks.
func LoadCompTasksFromFile(path string) ([]CompTask, error) {
	return loadJSON[[]CompTask](path, "comp tasks")
}

// LoadEquityTasksFromFile reads an array of batch equity tasks.
func LoadEquityTasksFromFile(path string) ([]EquityTask, error) {
	return loadJSON[[]EquityTask](path, "equity tasks")
}
