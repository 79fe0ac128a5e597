// Package report renders analyses for people (styled text) or tools (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/denisok6893-rgb/property-valuation/internal/batch"
	"github.com/denisok6893-rgb/property-valuation/internal/domain"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Write renders v in format f. Text rendering supports comp analyses, equity
// assessments and batch runs; other values fall back to YAML.
func Write(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		return writeYAML(w, v)
	}

	var text string
	switch x := v.(type) {
	case domain.CompAnalysis:
		text = CompsText(x)
	case domain.EquityAssessment:
		text = EquityText(x)
	case batch.Run[batch.CompResult]:
		text = compRunText(x)
	case batch.Run[batch.EquityResult]:
		text = equityRunText(x)
	default:
		return writeYAML(w, v)
	}
	_, err := io.WriteString(w, text+"\n")
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
