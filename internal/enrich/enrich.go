// Package enrich joins normalized animals to the organizations that list them.
package enrich

import (
	"github.com/samber/lo"

	"petsnapshot/internal/domain"
)

// Enrich left-joins animals to organizations by organization id. Every animal
// appears exactly once and in input order; animals whose organization was not
// fetched carry the unresolved marker. When organization ids repeat, the
// first occurrence wins.
func Enrich(animals []domain.Animal, organizations []domain.Organization) []domain.EnrichedAnimal {
	byID := index(organizations)

	return lo.Map(animals, func(animal domain.Animal, _ int) domain.EnrichedAnimal {
		ref := domain.UnresolvedOrganization(animal.OrganizationID)
		if org, ok := byID[animal.OrganizationID]; ok && animal.OrganizationID != "" {
			ref = domain.ResolvedOrganization(org)
		}
		return domain.EnrichedAnimal{Animal: animal, Organization: ref}
	})
}

// Unresolved counts enriched animals without a matching organization.
func Unresolved(enriched []domain.EnrichedAnimal) int {
	return lo.CountBy(enriched, func(a domain.EnrichedAnimal) bool {
		return !a.Organization.Resolved
	})
}

// index builds the id lookup. lo.KeyBy keeps the last duplicate, so it runs
// over the reversed slice to let the first occurrence win.
func index(organizations []domain.Organization) map[string]domain.Organization {
	reversed := make([]domain.Organization, len(organizations))
	copy(reversed, organizations)
	return lo.KeyBy(lo.Reverse(reversed), func(org domain.Organization) string {
		return org.ID
	})
}
