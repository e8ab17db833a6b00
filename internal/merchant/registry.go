// Package merchant holds the registry of merchant profiles and resolves
// which profile brands a given transaction row.
package merchant

import (
	"fmt"
	"os"
	"strings"

	"golang-invoice-service/internal/classifier"
	"golang-invoice-service/internal/models"
	pipelineerrors "golang-invoice-service/pkg/errors"
	"golang-invoice-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Registry is an ordered list of merchant profiles with one designated
// default. Profile order decides substring matching precedence.
type Registry struct {
	profiles       []models.MerchantProfile
	defaultID      string
	patterns       classifier.PatternTable
	tenantPatterns map[string]classifier.PatternTable
}

// registryFile is the YAML layout of a registry
type registryFile struct {
	Default  string                  `yaml:"default" validate:"required"`
	Patterns classifier.PatternTable `yaml:"patterns"`
	Profiles []profileFile           `yaml:"profiles" validate:"required,min=1,unique=ID,dive"`
}

type profileFile struct {
	models.MerchantProfile `yaml:",inline"`
	Patterns               classifier.PatternTable `yaml:"patterns"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewRegistry builds a registry from profiles. defaultID must name one of them.
func NewRegistry(profiles []models.MerchantProfile, defaultID string) (*Registry, error) {
	file := registryFile{Default: defaultID}
	for _, p := range profiles {
		file.Profiles = append(file.Profiles, profileFile{MerchantProfile: p})
	}
	return buildRegistry(file)
}

func buildRegistry(file registryFile) (*Registry, error) {
	file.Patterns = lowercasePatterns(file.Patterns)
	for i := range file.Profiles {
		p := &file.Profiles[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Aliases = lowercaseAll(p.Aliases)
		p.Patterns = lowercasePatterns(p.Patterns)
	}

	if err := validate.Struct(file); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "merchant registry", describeValidation(err), err)
	}
	if err := file.Patterns.Validate(); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "merchant registry patterns", "", err)
	}

	r := &Registry{
		defaultID:      file.Default,
		patterns:       file.Patterns,
		tenantPatterns: make(map[string]classifier.PatternTable),
	}

	found := false
	for _, p := range file.Profiles {
		if p.ID == file.Default {
			found = true
		}
		if err := p.Patterns.Validate(); err != nil {
			return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "merchant patterns", p.ID, err)
		}
		if len(p.Patterns) > 0 {
			r.tenantPatterns[p.ID] = p.Patterns
		}
		r.profiles = append(r.profiles, p.MerchantProfile)
	}
	if !found {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "merchant registry default", file.Default,
			fmt.Errorf("default profile %q is not in the registry", file.Default))
	}

	return r, nil
}

// lowercaseAll returns a normalised copy; callers may still hold values.
func lowercaseAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

func lowercasePatterns(t classifier.PatternTable) classifier.PatternTable {
	if t == nil {
		return nil
	}
	out := make(classifier.PatternTable, len(t))
	for role, patterns := range t {
		out[role] = lowercaseAll(patterns)
	}
	return out
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// LoadRegistry reads a registry from a YAML file
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeMissingConfig, "merchant registry", path, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, pipelineerrors.ConfigurationError(pipelineerrors.CodeInvalidConfig, "merchant registry", path, err)
	}

	r, err := buildRegistry(file)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("merchant").WithFields(logger.Fields{
		"path":     path,
		"profiles": len(r.profiles),
		"default":  r.defaultID,
	}).Debug("Merchant registry loaded")

	return r, nil
}

// DefaultRegistry returns the built-in registry
func DefaultRegistry() *Registry {
	r, err := NewRegistry(builtinProfiles(), "auxford")
	if err != nil {
		panic(fmt.Sprintf("built-in merchant registry is invalid: %v", err))
	}
	return r
}

func builtinProfiles() []models.MerchantProfile {
	return []models.MerchantProfile{
		{
			ID:            "auxford",
			CompanyName:   "Auxford Private Limited",
			Address:       "4th Floor, Prestige Tower, MG Road, Bengaluru, Karnataka 560001",
			TaxID:         "29AAKCA1234F1Z5",
			InvoicePrefix: "AUX",
			LogoRef:       "logos/auxford.png",
			TermsAcronym:  "APL",
		},
		{
			ID:            "zenwallet",
			CompanyName:   "Zenwallet Payments Private Limited",
			Address:       "Unit 12, Cyber Towers, HITEC City, Hyderabad, Telangana 500081",
			TaxID:         "36AACCZ5678K1Z2",
			InvoicePrefix: "ZWL",
			LogoRef:       "logos/zenwallet.png",
			TermsAcronym:  "ZPPL",
			Aliases:       []string{"zen wallet", "zwl"},
		},
		{
			ID:            "kiranapay",
			CompanyName:   "KiranaPay Retail Services LLP",
			Address:       "201, Lodha Supremus, Lower Parel, Mumbai, Maharashtra 400013",
			TaxID:         "27AALFK9012M1Z8",
			InvoicePrefix: "KPR",
			LogoRef:       "logos/kiranapay.png",
			TermsAcronym:  "KRS",
			Aliases:       []string{"kirana pay"},
		},
	}
}

// Profiles returns the profiles in registry order
func (r *Registry) Profiles() []models.MerchantProfile {
	out := make([]models.MerchantProfile, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.WithPrefix(p.InvoicePrefix)
	}
	return out
}

// DefaultID returns the id of the default profile
func (r *Registry) DefaultID() string {
	return r.defaultID
}

// Default returns the default profile
func (r *Registry) Default() models.MerchantProfile {
	p, _ := r.Lookup(r.defaultID)
	return p
}

// Lookup finds a profile whose id or alias equals key exactly
func (r *Registry) Lookup(key string) (models.MerchantProfile, bool) {
	for _, p := range r.profiles {
		if p.ID == key {
			return p.WithPrefix(p.InvoicePrefix), true
		}
	}
	for _, p := range r.profiles {
		for _, alias := range p.Aliases {
			if alias == key {
				return p.WithPrefix(p.InvoicePrefix), true
			}
		}
	}
	return models.MerchantProfile{}, false
}

// PatternsFor returns the column patterns for a tenant: the defaults, then
// registry-wide overrides, then the tenant's own overrides.
func (r *Registry) PatternsFor(id string) classifier.PatternTable {
	table := classifier.DefaultPatterns().Merge(r.patterns)
	if tenant, ok := r.tenantPatterns[id]; ok {
		table = table.Merge(tenant)
	}
	return table
}
