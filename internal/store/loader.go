package store

import (
	"fmt"
	"path/filepath"
)

// Source names a detail table file for one signal code.
type Source struct {
	Code  int
	Table string
	Path  string
}

// Open reads the alerts CSV and every detail CSV, then calls Load. A detail
// file that cannot be read is reported through DetailErrors like any other
// rejected detail table.
func Open(alertsPath string, sources []Source) (*Store, error) {
	alerts, err := ReadCSVFile(alertsPath, filepath.Base(alertsPath))
	if err != nil {
		return nil, err
	}

	var readErrs []error
	details := make(map[int]Table, len(sources))
	for _, src := range sources {
		t, err := ReadCSVFile(src.Path, src.Table)
		if err != nil {
			readErrs = append(readErrs, fmt.Errorf("signal %d: %w", src.Code, err))
			continue
		}
		details[src.Code] = t
	}

	s, err := Load(alerts, details)
	if err != nil {
		return nil, err
	}
	s.detailErrors = append(readErrs, s.detailErrors...)
	return s, nil
}
