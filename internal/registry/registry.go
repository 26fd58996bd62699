package registry

import (
	"fmt"
	"os"
	"sort"

	"github.com/vibecodeauditor/vcaudit/domain"
	"gopkg.in/yaml.v3"
)

// FrameworkDefinition describes one framework's rule mapping plus its
// reference clauses. References are informational only; matching uses
// the rules exclusively.
type FrameworkDefinition struct {
	// Code is the short framework key (e.g. "gdpr")
	Code string `yaml:"code"`

	// Name is the display name
	Name string `yaml:"name"`

	// Rules are the classification rules, in evaluation order
	Rules []domain.ClassificationRule `yaml:"rules"`

	// References maps clause labels (articles, requirements, controls)
	// to the topics they cover
	References map[string][]string `yaml:"references,omitempty"`
}

// Registry holds the static framework rule mappings. Content is fixed at
// construction; the registry is never mutated at runtime.
type Registry struct {
	frameworks map[string]FrameworkDefinition
	order      []string
}

// New builds a registry from definitions. Later definitions with the same
// code replace earlier ones.
func New(defs ...FrameworkDefinition) *Registry {
	r := &Registry{frameworks: make(map[string]FrameworkDefinition, len(defs))}
	for _, def := range defs {
		if _, exists := r.frameworks[def.Code]; !exists {
			r.order = append(r.order, def.Code)
		}
		r.frameworks[def.Code] = def
	}
	return r
}

// Default returns the built-in registry with the five supported frameworks
func Default() *Registry {
	return New(builtinDefinitions()...)
}

// rulesFile is the YAML shape of an external rules file
type rulesFile struct {
	Frameworks []FrameworkDefinition `yaml:"frameworks"`
}

// LoadFile returns the default registry extended with definitions from a
// YAML rules file. File definitions replace built-ins with the same code.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to read rules file: %s", path), err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.NewConfigError(fmt.Sprintf("failed to parse rules file: %s", path), err)
	}

	defs := builtinDefinitions()
	defs = append(defs, file.Frameworks...)
	r := New(defs...)

	for _, def := range file.Frameworks {
		if err := validateDefinition(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Rules returns the ordered rule list for a framework code
func (r *Registry) Rules(code string) ([]domain.ClassificationRule, error) {
	def, ok := r.frameworks[code]
	if !ok {
		return nil, domain.NewUnknownFrameworkError(code)
	}
	return def.Rules, nil
}

// Definition returns the full definition for a framework code
func (r *Registry) Definition(code string) (FrameworkDefinition, bool) {
	def, ok := r.frameworks[code]
	return def, ok
}

// Definitions returns all definitions in registration order
func (r *Registry) Definitions() []FrameworkDefinition {
	defs := make([]FrameworkDefinition, 0, len(r.order))
	for _, code := range r.order {
		defs = append(defs, r.frameworks[code])
	}
	return defs
}

// Frameworks materializes active framework records for the given codes,
// or for every registered framework when no codes are given. Unknown codes
// are skipped. IDs are left empty for the store to assign.
func (r *Registry) Frameworks(codes ...string) []domain.ComplianceFramework {
	if len(codes) == 0 {
		codes = r.order
	}
	frameworks := make([]domain.ComplianceFramework, 0, len(codes))
	for _, code := range codes {
		def, ok := r.frameworks[code]
		if !ok {
			continue
		}
		frameworks = append(frameworks, domain.ComplianceFramework{
			Code:   def.Code,
			Name:   def.Name,
			Status: domain.FrameworkStatusActive,
		})
	}
	return frameworks
}

// Codes returns all registered framework codes, sorted
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.frameworks))
	for code := range r.frameworks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func validateDefinition(def FrameworkDefinition) error {
	if def.Code == "" {
		return domain.NewValidationError("framework definition missing code")
	}
	if len(def.Rules) == 0 {
		return domain.NewValidationError(fmt.Sprintf("framework %s has no rules", def.Code))
	}
	for _, rule := range def.Rules {
		if rule.Pattern == "" {
			return domain.NewValidationError(fmt.Sprintf("framework %s has a rule with an empty pattern", def.Code))
		}
		if !rule.Severity.IsValid() {
			return domain.NewValidationError(fmt.Sprintf("framework %s rule %q has invalid severity %q", def.Code, rule.Pattern, rule.Severity))
		}
	}
	return nil
}
