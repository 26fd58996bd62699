package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vibecodeauditor/vcaudit/domain"
)

// MemoryStore is an in-memory implementation of the framework, issue, and
// scan stores. Safe for concurrent use. Used by the HTTP server and tests.
type MemoryStore struct {
	mu         sync.RWMutex
	frameworks map[string]*domain.ComplianceFramework // by id
	byUser     map[string][]string                    // userID -> framework ids, insertion order
	issues     map[string][]domain.ComplianceIssue    // by userID
	scans      map[string]domain.ScanRecord           // by scan id
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		frameworks: make(map[string]*domain.ComplianceFramework),
		byUser:     make(map[string][]string),
		issues:     make(map[string][]domain.ComplianceIssue),
		scans:      make(map[string]domain.ScanRecord),
	}
}

// SeedFrameworks registers frameworks for a user. Frameworks without an ID
// are assigned one. Existing counters are preserved on re-seeding.
func (s *MemoryStore) SeedFrameworks(userID string, frameworks []domain.ComplianceFramework) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fw := range frameworks {
		if fw.ID == "" {
			fw.ID = uuid.NewString()
		}
		if _, exists := s.frameworks[fw.ID]; !exists {
			s.byUser[userID] = append(s.byUser[userID], fw.ID)
		}
		copied := fw
		s.frameworks[fw.ID] = &copied
	}
}

// ListFrameworks returns all frameworks for a user, any status
func (s *MemoryStore) ListFrameworks(ctx context.Context, userID string) ([]domain.ComplianceFramework, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]
	frameworks := make([]domain.ComplianceFramework, 0, len(ids))
	for _, id := range ids {
		if fw, ok := s.frameworks[id]; ok {
			frameworks = append(frameworks, *fw)
		}
	}
	return frameworks, nil
}

// AddIssueCounts atomically adds the delta to a framework's counters.
// The increment happens under the store lock, so concurrent mapping passes
// never lose updates.
func (s *MemoryStore) AddIssueCounts(ctx context.Context, frameworkID string, delta domain.IssueCountDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fw, ok := s.frameworks[frameworkID]
	if !ok {
		return fmt.Errorf("framework not found: %s", frameworkID)
	}
	fw.CriticalIssues += delta.Critical
	fw.HighIssues += delta.High
	fw.MediumIssues += delta.Medium
	fw.LowIssues += delta.Low
	return nil
}

// CreateIssue persists one compliance issue record
func (s *MemoryStore) CreateIssue(ctx context.Context, issue *domain.ComplianceIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	s.issues[issue.UserID] = append(s.issues[issue.UserID], *issue)
	return nil
}

// ListIssues returns all persisted issues for a user
func (s *MemoryStore) ListIssues(ctx context.Context, userID string) ([]domain.ComplianceIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issues := make([]domain.ComplianceIssue, len(s.issues[userID]))
	copy(issues, s.issues[userID])
	return issues, nil
}

// SaveScan persists or overwrites a scan record
func (s *MemoryStore) SaveScan(ctx context.Context, scan *domain.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scan.ID == "" {
		scan.ID = uuid.NewString()
	}
	s.scans[scan.ID] = *scan
	return nil
}

// GetScan returns a scan record by id
func (s *MemoryStore) GetScan(ctx context.Context, id string) (*domain.ScanRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scan, ok := s.scans[id]
	if !ok {
		return nil, false, nil
	}
	return &scan, true, nil
}
