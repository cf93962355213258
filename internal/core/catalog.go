package core

// catalog.go reads table definitions from YAML and renders the per-table
// status texts and sample INSERT statements.
//
// Catalog file layout:
//
//	tables:
//	  - key: dim_clientes
//	    label: Clientes
//	    group: dimension
//	    noun: clientes
//	    columns:
//	      - {name: nombre_completo, type: text}
//	      - {name: fecha_registro, type: date}
//	    sample: |
//	      INSERT INTO dim_clientes (...) VALUES (...);

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSQLComment is shown for tables without a canned INSERT.
const DefaultSQLComment = "-- SQL generated for the selected table"

type catalogFile struct {
	Tables []catalogTable `yaml:"tables"`
}

type catalogTable struct {
	Key     string          `yaml:"key"`
	Label   string          `yaml:"label"`
	Group   string          `yaml:"group"`
	Noun    string          `yaml:"noun"`
	Columns []catalogColumn `yaml:"columns"`
	Sample  string          `yaml:"sample"`
}

type catalogColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseCatalog decodes a YAML catalog into table definitions.
// Every table needs a unique key and at least one column.
func ParseCatalog(r io.Reader) ([]TableDefinition, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("catalog: no tables defined")
		}
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, errors.New("catalog: no tables defined")
	}

	seen := make(map[string]bool, len(file.Tables))
	defs := make([]TableDefinition, 0, len(file.Tables))
	for i, t := range file.Tables {
		key := strings.TrimSpace(t.Key)
		if key == "" {
			return nil, fmt.Errorf("catalog: table %d has no key", i+1)
		}
		if seen[key] {
			return nil, fmt.Errorf("catalog: duplicate table key %q", key)
		}
		seen[key] = true

		if len(t.Columns) == 0 {
			return nil, fmt.Errorf("catalog: table %q has no columns", key)
		}

		specs := make([]FieldSpec, len(t.Columns))
		for j, c := range t.Columns {
			ft, err := parseFieldType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("catalog: table %q column %q: %w", key, c.Name, err)
			}
			specs[j] = FieldSpec{Name: strings.TrimSpace(c.Name), Type: ft}
		}

		label := t.Label
		if label == "" {
			label = key
		}
		defs = append(defs, TableDefinition{
			Info:       TableInfo{Key: key, Group: t.Group, Label: label},
			FieldSpecs: specs,
			SampleSQL:  strings.TrimSpace(t.Sample),
			SampleNoun: t.Noun,
		})
	}
	return defs, nil
}

// LoadCatalog parses a catalog and replaces the registry contents with it.
func LoadCatalog(r io.Reader) error {
	defs, err := ParseCatalog(r)
	if err != nil {
		return err
	}
	Replace(defs)
	return nil
}

// Replace swaps the registry contents for defs.
func Replace(defs []TableDefinition) {
	Clear()
	for _, def := range defs {
		Register(def)
	}
}

func parseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "string":
		return FieldText, nil
	case "numeric", "decimal", "number":
		return FieldNumeric, nil
	case "integer", "int":
		return FieldInteger, nil
	case "date":
		return FieldDate, nil
	case "bool", "boolean":
		return FieldBool, nil
	default:
		return FieldText, fmt.Errorf("unknown column type %q", s)
	}
}

// fieldTypeName returns a human-readable name for a field type.
func fieldTypeName(ft FieldType) string {
	switch ft {
	case FieldNumeric:
		return "number"
	case FieldInteger:
		return "integer"
	case FieldDate:
		return "date"
	case FieldBool:
		return "bool"
	default:
		return "text"
	}
}

// SampleSQL returns the canned INSERT for a table, preceded by a comment
// carrying the number of rows it stands for. Unknown tables and tables
// without a sample get DefaultSQLComment.
func SampleSQL(tableKey string, count int) string {
	def, ok := Get(tableKey)
	if !ok || !def.HasSample() {
		return DefaultSQLComment
	}

	noun := def.SampleNoun
	if noun == "" {
		noun = "rows"
	}
	return fmt.Sprintf("-- Example INSERT generated for %d %s\n%s", count, noun, def.SampleSQL)
}

// ExpectedColumnsMessage is the status shown after a table is selected.
func ExpectedColumnsMessage(def TableDefinition) string {
	return fmt.Sprintf("Expected columns for %s: %s", def.Info.Key, strings.Join(def.Info.Columns, ", "))
}
