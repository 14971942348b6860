// Package catalog maps signal codes to their detail tables and to the
// columns offered as system variables in the rule builder.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/loaneye/internal/store"
)

// Signal describes one signal code.
type Signal struct {
	Code         int      `yaml:"code" json:"code"`
	Name         string   `yaml:"name" json:"name"`
	Table        string   `yaml:"table" json:"table"`
	File         string   `yaml:"file" json:"file"`
	BaseColumns  []string `yaml:"base_columns" json:"base_columns"`
	ExtraColumns []string `yaml:"extra_columns" json:"extra_columns"`
}

// SystemVariable is a detail-table column usable in rule text.
type SystemVariable struct {
	Label  string `json:"system_variable"`
	Column string `json:"column_name"`
	Table  string `json:"table_name"`
}

type Catalog struct {
	signals map[int]Signal
}

type catalogFile struct {
	Signals []Signal `yaml:"signals"`
}

func New(signals ...Signal) *Catalog {
	c := &Catalog{signals: make(map[int]Signal, len(signals))}
	for _, s := range signals {
		c.signals[s.Code] = s
	}
	return c
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	seen := make(map[int]bool)
	for _, s := range f.Signals {
		if s.Table == "" {
			return nil, fmt.Errorf("signal %d: table name is required", s.Code)
		}
		if seen[s.Code] {
			return nil, fmt.Errorf("signal %d: duplicate code", s.Code)
		}
		seen[s.Code] = true
	}
	return New(f.Signals...), nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Marshal encodes the catalog as YAML, signals ordered by code.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(catalogFile{Signals: c.Signals()})
}

func (c *Catalog) Get(code int) (Signal, bool) {
	s, ok := c.signals[code]
	return s, ok
}

// Signals returns every signal ordered by code.
func (c *Catalog) Signals() []Signal {
	out := make([]Signal, 0, len(c.signals))
	for _, s := range c.signals {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Sources resolves each signal's detail file against dir for store.Open.
func (c *Catalog) Sources(dir string) []store.Source {
	var out []store.Source
	for _, s := range c.Signals() {
		if s.File == "" {
			continue
		}
		path := s.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		out = append(out, store.Source{Code: s.Code, Table: s.Table, Path: path})
	}
	return out
}

// SystemVariables returns the rule-builder variables for code: the base
// columns present in the detail table, in catalog order, followed by every
// extra column. An unknown code has none.
func (c *Catalog) SystemVariables(code int, present []string) []SystemVariable {
	s, ok := c.signals[code]
	if !ok {
		return nil
	}

	have := make(map[string]bool, len(present))
	for _, col := range present {
		have[col] = true
	}

	var out []SystemVariable
	add := func(col string) {
		out = append(out, SystemVariable{
			Label:  fmt.Sprintf("%s FROM %s TABLE", col, s.Table),
			Column: col,
			Table:  s.Table,
		})
	}
	for _, col := range s.BaseColumns {
		if have[col] {
			add(col)
		}
	}
	for _, col := range s.ExtraColumns {
		add(col)
	}
	return out
}

// ColumnSource reports the columns of a loaded detail table.
type ColumnSource interface {
	DetailColumns(code int) ([]string, bool)
}

// Binding resolves system variables against the tables actually loaded.
type Binding struct {
	catalog *Catalog
	source  ColumnSource
}

func (c *Catalog) Bind(src ColumnSource) *Binding {
	return &Binding{catalog: c, source: src}
}

func (b *Binding) SystemVariables(code int) []SystemVariable {
	cols, _ := b.source.DetailColumns(code)
	return b.catalog.SystemVariables(code, cols)
}

// Labels returns the rule-builder labels of the system variables of code.
func (b *Binding) Labels(code int) []string {
	vars := b.SystemVariables(code)
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Label
	}
	return out
}
