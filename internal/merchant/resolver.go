package merchant

import (
	"strings"

	"golang-invoice-service/internal/models"
)

// Resolve picks the merchant profile for a row. Without a merchant column
// or value the default profile is used. Otherwise the lowercased value is
// searched, in registry order, for a profile id it contains; then for an
// exact id or alias; then the default applies. An override prefix for the
// chosen profile's id replaces its invoice prefix on the returned copy.
func Resolve(row models.Row, merchantColumn string, registry *Registry, overrides map[string]string) models.MerchantProfile {
	profile := registry.Default()

	if merchantColumn != "" {
		value := strings.ToLower(strings.TrimSpace(row.Get(merchantColumn).String()))
		if value != "" {
			profile = match(value, registry)
		}
	}

	if prefix, ok := overrides[profile.ID]; ok && prefix != "" {
		profile = profile.WithPrefix(prefix)
	}
	return profile
}

func match(value string, registry *Registry) models.MerchantProfile {
	for _, p := range registry.profiles {
		if strings.Contains(value, p.ID) {
			return p.WithPrefix(p.InvoicePrefix)
		}
	}
	if p, ok := registry.Lookup(value); ok {
		return p
	}
	return registry.Default()
}
