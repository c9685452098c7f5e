// Package catalog loads the selectable form options (age groups, departments,
// ICD codes) from the data workbooks. Loading happens once per process and
// never fails outward: any problem degrades to a fixed default catalog so the
// form can always render.
package catalog

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/yatis-tahmin-server/internal/domain"
)

// Column headers in the primary (raw admissions) workbook.
const (
	colAge      = "Yaş"
	colAgeGroup = "YaşGrup"
	colDept     = "Bölüm"
	colICDRaw   = "ICD Kodu"
)

// Column header for the pre-aggregated fallback workbook.
const colICDSetKey = "ICD_Set_Key"

// Loader reads the option catalog from the configured workbooks.
type Loader struct {
	logger       *logrus.Logger
	primaryPath  string
	fallbackPath string

	once      sync.Once
	catalog   *domain.OptionCatalog
	fileFound bool
}

// NewLoader creates a loader for the given workbook paths.
func NewLoader(logger *logrus.Logger, cfg *domain.DataConfig) *Loader {
	return &Loader{
		logger:       logger,
		primaryPath:  cfg.PrimaryPath,
		fallbackPath: cfg.FallbackPath,
	}
}

// Catalog returns the option catalog, loading it on first use. Subsequent
// calls return the cached catalog without touching the filesystem, even if
// the workbooks change.
func (l *Loader) Catalog() *domain.OptionCatalog {
	l.once.Do(l.load)
	return l.catalog
}

// WorkbookFound reports whether any data workbook existed at load time. The
// form uses this to show a "running on defaults" warning.
func (l *Loader) WorkbookFound() bool {
	l.once.Do(l.load)
	return l.fileFound
}

func (l *Loader) load() {
	if fileExists(l.primaryPath) {
		l.fileFound = true
		catalog, err := l.readPrimary(l.primaryPath)
		if err != nil {
			l.logger.WithError(err).WithField("path", l.primaryPath).
				Warn("Failed to read primary workbook, falling back to default catalog")
			l.catalog = domain.DefaultCatalog()
			return
		}
		l.catalog = catalog
		l.logCatalog("primary")
		return
	}

	if fileExists(l.fallbackPath) {
		l.fileFound = true
		catalog, err := l.readFallback(l.fallbackPath)
		if err != nil {
			l.logger.WithError(err).WithField("path", l.fallbackPath).
				Warn("Failed to read fallback workbook, falling back to default catalog")
			l.catalog = domain.DefaultCatalog()
			return
		}
		l.catalog = catalog
		l.logCatalog("fallback")
		return
	}

	l.logger.WithFields(logrus.Fields{
		"primary_path":  l.primaryPath,
		"fallback_path": l.fallbackPath,
	}).Warn("No data workbook found, using default catalog")
	l.catalog = domain.DefaultCatalog()
}

// readPrimary extracts options from the raw admissions workbook. The age
// group column is derived from the raw age column when absent.
func (l *Loader) readPrimary(path string) (*domain.OptionCatalog, error) {
	rows, header, err := readSheet(path)
	if err != nil {
		return nil, err
	}

	catalog := &domain.OptionCatalog{}

	if idx, ok := header[colAgeGroup]; ok {
		catalog.AgeGroups = uniqueByLenLex(columnValues(rows, idx))
	} else if idx, ok := header[colAge]; ok {
		var groups []string
		for _, raw := range columnValues(rows, idx) {
			years, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				continue
			}
			if group, ok := domain.AgeGroupForYears(years); ok {
				groups = append(groups, group)
			}
		}
		catalog.AgeGroups = uniqueByLenLex(groups)
	}

	if idx, ok := header[colDept]; ok {
		catalog.Departments = uniqueByLenLex(columnValues(rows, idx))
	}

	if idx, ok := header[colICDRaw]; ok {
		codes := make(map[string]struct{})
		for _, cell := range columnValues(rows, idx) {
			for _, part := range strings.Split(strings.ReplaceAll(cell, ";", ","), ",") {
				code := strings.ToUpper(strings.TrimSpace(part))
				if code != "" {
					codes[code] = struct{}{}
				}
			}
		}
		catalog.ICDCodes = sortedSet(codes)
	}

	return catalog, nil
}

// readFallback extracts options from the pre-aggregated prediction export,
// which carries ready-made age group and department columns and an ICD set
// key column.
func (l *Loader) readFallback(path string) (*domain.OptionCatalog, error) {
	rows, header, err := readSheet(path)
	if err != nil {
		return nil, err
	}

	catalog := &domain.OptionCatalog{}

	if idx, ok := header[colAgeGroup]; ok {
		catalog.AgeGroups = uniqueByLenLex(columnValues(rows, idx))
	}
	if idx, ok := header[colDept]; ok {
		catalog.Departments = uniqueByLenLex(columnValues(rows, idx))
	}
	if idx, ok := header[colICDSetKey]; ok {
		codes := make(map[string]struct{})
		for _, cell := range columnValues(rows, idx) {
			for _, code := range strings.Split(cell, domain.ICDKeySeparator) {
				if code != "" {
					codes[code] = struct{}{}
				}
			}
		}
		catalog.ICDCodes = sortedSet(codes)
	}

	return catalog, nil
}

func (l *Loader) logCatalog(source string) {
	l.logger.WithFields(logrus.Fields{
		"source":      source,
		"age_groups":  len(l.catalog.AgeGroups),
		"departments": len(l.catalog.Departments),
		"icd_codes":   len(l.catalog.ICDCodes),
	}).Info("Option catalog loaded")
}

// readSheet opens the first sheet of a workbook and returns its data rows
// plus a header-name to column-index map.
func readSheet(path string) ([][]string, map[string]int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, map[string]int{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	return rows[1:], header, nil
}

// columnValues collects the non-empty trimmed cells of one column. Rows
// shorter than the header are tolerated.
func columnValues(rows [][]string, idx int) []string {
	var values []string
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// uniqueByLenLex deduplicates values and sorts them ascending by
// (string length, then lexicographic), matching the form's option order.
func uniqueByLenLex(values []string) []string {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
