package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/vibecodeauditor/vcaudit/domain"
)

// FileStore persists frameworks, compliance issues, and scan records as
// JSON documents under a data directory:
//
//	<dir>/frameworks.json     all frameworks, keyed by user
//	<dir>/issues/<id>.json    one document per compliance issue
//	<dir>/scans/<id>.json     one document per scan record
//
// Counter updates are applied under a process-wide lock and written back
// whole. A database-backed store would instead issue an in-store increment
// (counter = counter + delta); this implementation targets the single
// process CLI where the lock gives the same guarantee.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// frameworksDoc is the on-disk shape of frameworks.json
type frameworksDoc struct {
	Users map[string][]domain.ComplianceFramework `json:"users"`
}

// NewFileStore opens (or creates) a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{"", "issues", "scans"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return &FileStore{dir: dir}, nil
}

// SeedFrameworks registers frameworks for a user unless the user already
// has frameworks on disk. Frameworks without an ID are assigned one.
func (s *FileStore) SeedFrameworks(userID string, frameworks []domain.ComplianceFramework) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readFrameworks()
	if err != nil {
		return err
	}
	if len(doc.Users[userID]) > 0 {
		return nil
	}

	seeded := make([]domain.ComplianceFramework, 0, len(frameworks))
	for _, fw := range frameworks {
		if fw.ID == "" {
			fw.ID = uuid.NewString()
		}
		seeded = append(seeded, fw)
	}
	doc.Users[userID] = seeded
	return s.writeFrameworks(doc)
}

// ListFrameworks returns all frameworks for a user, any status
func (s *FileStore) ListFrameworks(ctx context.Context, userID string) ([]domain.ComplianceFramework, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readFrameworks()
	if err != nil {
		return nil, err
	}
	return doc.Users[userID], nil
}

// AddIssueCounts adds the delta to a framework's counters. The read,
// increment, and write happen under the store lock.
func (s *FileStore) AddIssueCounts(ctx context.Context, frameworkID string, delta domain.IssueCountDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readFrameworks()
	if err != nil {
		return err
	}

	for userID, frameworks := range doc.Users {
		for i := range frameworks {
			if frameworks[i].ID != frameworkID {
				continue
			}
			frameworks[i].CriticalIssues += delta.Critical
			frameworks[i].HighIssues += delta.High
			frameworks[i].MediumIssues += delta.Medium
			frameworks[i].LowIssues += delta.Low
			doc.Users[userID] = frameworks
			return s.writeFrameworks(doc)
		}
	}
	return fmt.Errorf("framework not found: %s", frameworkID)
}

// CreateIssue persists one compliance issue as its own JSON document
func (s *FileStore) CreateIssue(ctx context.Context, issue *domain.ComplianceIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	return writeJSONFile(filepath.Join(s.dir, "issues", issue.ID+".json"), issue)
}

// ListIssues returns all persisted issues for a user
func (s *FileStore) ListIssues(ctx context.Context, userID string) ([]domain.ComplianceIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, "issues"))
	if err != nil {
		return nil, err
	}

	var issues []domain.ComplianceIssue
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		var issue domain.ComplianceIssue
		if err := readJSONFile(filepath.Join(s.dir, "issues", entry.Name()), &issue); err != nil {
			return nil, err
		}
		if issue.UserID == userID {
			issues = append(issues, issue)
		}
	}
	return issues, nil
}

// SaveScan persists or overwrites a scan record
func (s *FileStore) SaveScan(ctx context.Context, scan *domain.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	return writeJSONFile(filepath.Join(s.dir, "scans", scan.ID+".json"), scan)
}

// GetScan returns a scan record by id
func (s *FileStore) GetScan(ctx context.Context, id string) (*domain.ScanRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "scans", id+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	}
	var scan domain.ScanRecord
	if err := readJSONFile(path, &scan); err != nil {
		return nil, false, err
	}
	return &scan, true, nil
}

func (s *FileStore) readFrameworks() (*frameworksDoc, error) {
	doc := &frameworksDoc{Users: make(map[string][]domain.ComplianceFramework)}
	path := filepath.Join(s.dir, "frameworks.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return doc, nil
	}
	if err := readJSONFile(path, doc); err != nil {
		return nil, err
	}
	if doc.Users == nil {
		doc.Users = make(map[string][]domain.ComplianceFramework)
	}
	return doc, nil
}

func (s *FileStore) writeFrameworks(doc *frameworksDoc) error {
	return writeJSONFile(filepath.Join(s.dir, "frameworks.json"), doc)
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
