package enrich

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petsnapshot/internal/domain"
)

func TestEnrichResolvesAndMarksMissing(t *testing.T) {
	t.Parallel()

	animals := []domain.Animal{
		{ID: 1, OrganizationID: "ORG1", Name: "Rex"},
		{ID: 2, OrganizationID: "ORG9", Name: "Tom"},
	}
	orgs := []domain.Organization{
		{ID: "ORG1", Name: "Shelter One", SocialMedia: domain.EmptySocialMedia()},
	}

	got := Enrich(animals, orgs)

	want := []domain.EnrichedAnimal{
		{Animal: animals[0], Organization: domain.ResolvedOrganization(orgs[0])},
		{Animal: animals[1], Organization: domain.UnresolvedOrganization("ORG9")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("enriched mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, Unresolved(got))
}

func TestEnrichKeepsOrderAndCardinality(t *testing.T) {
	t.Parallel()

	animals := []domain.Animal{
		{ID: 30, OrganizationID: "B"},
		{ID: 10, OrganizationID: "A"},
		{ID: 20, OrganizationID: "B"},
		{ID: 40, OrganizationID: ""},
	}
	orgs := []domain.Organization{{ID: "A"}, {ID: "B"}}

	got := Enrich(animals, orgs)
	require.Len(t, got, len(animals))
	for i, animal := range animals {
		assert.Equal(t, animal.ID, got[i].ID)
		assert.Equal(t, animal.OrganizationID, got[i].Organization.ID)
	}
	assert.False(t, got[3].Organization.Resolved)
}

func TestEnrichWithoutOrganizations(t *testing.T) {
	t.Parallel()

	animals := []domain.Animal{{ID: 1, OrganizationID: "ORG1"}, {ID: 2, OrganizationID: "ORG2"}}

	got := Enrich(animals, nil)
	require.Len(t, got, 2)
	assert.Equal(t, 2, Unresolved(got))
	for _, enriched := range got {
		assert.Equal(t, domain.UnresolvedOrganization(enriched.OrganizationID), enriched.Organization)
	}
}

func TestEnrichFirstDuplicateOrganizationWins(t *testing.T) {
	t.Parallel()

	orgs := []domain.Organization{
		{ID: "ORG1", Name: "first"},
		{ID: "ORG1", Name: "second"},
	}

	got := Enrich([]domain.Animal{{ID: 1, OrganizationID: "ORG1"}}, orgs)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Organization.Name)
	assert.Equal(t, "first", orgs[0].Name, "input must not be reordered")
}

func TestEnrichEmptyInput(t *testing.T) {
	t.Parallel()

	got := Enrich(nil, []domain.Organization{{ID: "ORG1"}})
	assert.Empty(t, got)
	assert.Zero(t, Unresolved(got))
}
