package domain

import "context"

// ScanStatus represents the lifecycle state of a scan record
type ScanStatus string

const (
	ScanStatusCompleted ScanStatus = "completed"
)

// ScanRecord is the persisted record of one scanner invocation.
// The compliance summary is attached after mapping; a failed mapping
// leaves it empty and never fails the scan itself.
type ScanRecord struct {
	ID     string     `json:"id" yaml:"id"`
	UserID string     `json:"user_id" yaml:"user_id"`
	Status ScanStatus `json:"status" yaml:"status"`

	Issues []RawIssue `json:"issues" yaml:"issues"`

	ComplianceSummary ComplianceSummary `json:"compliance_summary,omitempty" yaml:"compliance_summary,omitempty"`

	CreatedAt string `json:"created_at" yaml:"created_at"`
}

// ScanReport is the on-disk shape of a scanner export consumed by the CLI.
// ScanID and UserID are optional; absent values are filled by the caller.
type ScanReport struct {
	ScanID string     `json:"scan_id,omitempty" yaml:"scan_id,omitempty"`
	UserID string     `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Issues []RawIssue `json:"issues" yaml:"issues"`
}

// ScanStore is the persistence boundary for scan records
type ScanStore interface {
	// SaveScan persists or overwrites a scan record
	SaveScan(ctx context.Context, scan *ScanRecord) error

	// GetScan returns a scan record by id
	GetScan(ctx context.Context, id string) (*ScanRecord, bool, error)
}
