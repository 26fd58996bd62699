package constants

// Tags applied to every synthesized compliance issue
const (
	TagAutomatedScan   = "automated_scan"
	DefaultCategoryTag = "security"
)
