package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vibecodeauditor/vcaudit/domain"
)

// ReportHelper provides scan report file utilities
type ReportHelper struct{}

// NewReportHelper creates a new ReportHelper
func NewReportHelper() *ReportHelper {
	return &ReportHelper{}
}

// CollectReportFiles collects scan report files from paths. Directories are
// walked when recursive is true, otherwise only their direct entries are
// considered.
func (h *ReportHelper) CollectReportFiles(paths []string, recursive bool, excludePatterns []string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if h.isReportFile(path) && !h.isExcluded(path, excludePatterns) {
				files = append(files, path)
			}
			continue
		}

		if recursive {
			err = filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}

				if info.IsDir() {
					dirName := filepath.Base(filePath)
					for _, pattern := range excludePatterns {
						if pattern == dirName {
							return filepath.SkipDir
						}
						if matched, _ := filepath.Match(pattern, dirName); matched {
							return filepath.SkipDir
						}
					}
					return nil
				}

				if h.isReportFile(filePath) && !h.isExcluded(filePath, excludePatterns) {
					files = append(files, filePath)
				}

				return nil
			})
		} else {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}

			for _, entry := range entries {
				if !entry.IsDir() {
					filePath := filepath.Join(path, entry.Name())
					if h.isReportFile(filePath) && !h.isExcluded(filePath, excludePatterns) {
						files = append(files, filePath)
					}
				}
			}
		}

		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// LoadReport parses a scan report file. Two shapes are accepted: a full
// report object with scan_id/user_id/issues, or a bare issue array as some
// scanners emit.
func (h *ReportHelper) LoadReport(path string) (*domain.ScanReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("empty report file: %s", path)
	}

	if strings.HasPrefix(trimmed, "[") {
		var issues []domain.RawIssue
		if err := json.Unmarshal(data, &issues); err != nil {
			return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
		}
		return &domain.ScanReport{Issues: issues}, nil
	}

	var report domain.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &report, nil
}

// FileExists checks if a file exists
func (h *ReportHelper) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// isReportFile checks if a file is a scan report based on extension
func (h *ReportHelper) isReportFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// isExcluded checks if a path matches any exclude pattern
func (h *ReportHelper) isExcluded(path string, excludePatterns []string) bool {
	for _, pattern := range excludePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}
