package registry

import "github.com/vibecodeauditor/vcaudit/domain"

// Framework codes supported out of the box
const (
	CodeGDPR     = "gdpr"
	CodeHIPAA    = "hipaa"
	CodeSOC2     = "soc2"
	CodeISO27001 = "iso27001"
	CodePCIDSS   = "pci_dss"
)

// builtinDefinitions returns the five built-in framework mappings.
// Patterns are matched case-insensitively against the concatenated
// title + description + category of each issue.
func builtinDefinitions() []FrameworkDefinition {
	return []FrameworkDefinition{
		{
			Code: CodeGDPR,
			Name: "GDPR",
			Rules: []domain.ClassificationRule{
				{Pattern: `data.*protection|privacy|personal.*data|gdpr`, Severity: domain.SeverityHigh},
				{Pattern: `encrypt|crypto|hash`, Severity: domain.SeverityMedium},
				{Pattern: `authentication|authorization|access.*control`, Severity: domain.SeverityMedium},
				{Pattern: `logging|audit.*trail|monitoring`, Severity: domain.SeverityLow},
			},
			References: map[string][]string{
				"Article 25": {"encryption", "data protection by design"},
				"Article 32": {"security measures", "encryption", "access control"},
				"Article 33": {"breach notification", "logging", "monitoring"},
				"Article 35": {"privacy impact assessment", "risk assessment"},
			},
		},
		{
			Code: CodeHIPAA,
			Name: "HIPAA",
			Rules: []domain.ClassificationRule{
				{Pattern: `health.*(information|record|data)|\bphi\b|medical.*(data|record)|hipaa`, Severity: domain.SeverityCritical},
				{Pattern: `encrypt|crypto`, Severity: domain.SeverityHigh},
				{Pattern: `access.*control|authentication|authorization`, Severity: domain.SeverityHigh},
				{Pattern: `audit.*log|monitoring|tracking`, Severity: domain.SeverityMedium},
			},
			References: map[string][]string{
				"Administrative": {"access management", "workforce training"},
				"Physical":       {"facility access", "workstation security"},
				"Technical":      {"access control", "audit controls", "integrity", "transmission security"},
			},
		},
		{
			Code: CodeSOC2,
			Name: "SOC 2",
			Rules: []domain.ClassificationRule{
				{Pattern: `security|soc.*2|trust.*services`, Severity: domain.SeverityHigh},
				{Pattern: `availability|system.*availability`, Severity: domain.SeverityMedium},
				{Pattern: `processing.*integrity|data.*integrity`, Severity: domain.SeverityMedium},
				{Pattern: `confidentiality|data.*protection`, Severity: domain.SeverityHigh},
				{Pattern: `privacy|personal.*information`, Severity: domain.SeverityMedium},
			},
			References: map[string][]string{
				"Security":             {"access controls", "logical security", "system operations"},
				"Availability":         {"system availability", "capacity planning"},
				"Processing Integrity": {"data processing", "system monitoring"},
				"Confidentiality":      {"data protection", "encryption"},
				"Privacy":              {"personal information", "privacy notice"},
			},
		},
		{
			Code: CodeISO27001,
			Name: "ISO 27001",
			Rules: []domain.ClassificationRule{
				{Pattern: `information.*security|iso.*27001|isms`, Severity: domain.SeverityHigh},
				{Pattern: `risk.*management|risk.*assessment`, Severity: domain.SeverityMedium},
				{Pattern: `access.*control|identity.*management`, Severity: domain.SeverityMedium},
				{Pattern: `incident.*response|security.*incident`, Severity: domain.SeverityHigh},
				{Pattern: `business.*continuity|disaster.*recovery`, Severity: domain.SeverityMedium},
			},
			References: map[string][]string{
				"A.5":  {"Information Security Policies"},
				"A.9":  {"Access Control"},
				"A.10": {"Cryptography"},
				"A.12": {"Operations Security"},
				"A.16": {"Information Security Incident Management"},
				"A.18": {"Compliance"},
			},
		},
		{
			Code: CodePCIDSS,
			Name: "PCI DSS",
			Rules: []domain.ClassificationRule{
				{Pattern: `payment.*card|credit.*card|pci.*dss|cardholder.*data`, Severity: domain.SeverityCritical},
				{Pattern: `encrypt|crypto.*key`, Severity: domain.SeverityHigh},
				{Pattern: `network.*security|firewall`, Severity: domain.SeverityHigh},
				{Pattern: `access.*control|authentication`, Severity: domain.SeverityHigh},
				{Pattern: `vulnerability.*scan|security.*test`, Severity: domain.SeverityMedium},
			},
			References: map[string][]string{
				"Req 3":  {"Protect stored cardholder data"},
				"Req 4":  {"Encrypt transmission of cardholder data"},
				"Req 6":  {"Develop and maintain secure systems"},
				"Req 8":  {"Identify and authenticate access"},
				"Req 10": {"Track and monitor access"},
				"Req 11": {"Regularly test security systems"},
			},
		},
	}
}
