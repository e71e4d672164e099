package domain

// SocialMediaKeys is the allow-list of social links kept on an organization.
var SocialMediaKeys = []string{"facebook", "twitter", "youtube", "instagram", "pinterest"}

// Organization is the cleaned view of a shelter or rescue.
type Organization struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Address          Address           `json:"address"`
	URL              string            `json:"url"`
	Website          string            `json:"website"`
	MissionStatement string            `json:"mission_statement"`
	Adoption         Adoption          `json:"adoption"`
	SocialMedia      map[string]string `json:"social_media"`
	Photo            string            `json:"photo"`
}

// Address is the postal address of an organization.
type Address struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// Adoption holds the adoption policy text and its link.
type Adoption struct {
	Policy string `json:"policy"`
	URL    string `json:"url"`
}

// OrganizationRef is the organization embedded into an enriched animal.
// Resolved is false when no organization with that id was fetched.
type OrganizationRef struct {
	Organization
	Resolved bool `json:"resolved"`
}

// ResolvedOrganization wraps a fetched organization.
func ResolvedOrganization(org Organization) OrganizationRef {
	return OrganizationRef{Organization: org, Resolved: true}
}

// UnresolvedOrganization is the marker attached to animals whose organization
// was not part of the fetched set. Only the id is populated.
func UnresolvedOrganization(id string) OrganizationRef {
	return OrganizationRef{
		Organization: Organization{
			ID:          id,
			SocialMedia: EmptySocialMedia(),
		},
	}
}

// EmptySocialMedia returns the allow-listed keys mapped to empty strings.
func EmptySocialMedia() map[string]string {
	links := make(map[string]string, len(SocialMediaKeys))
	for _, key := range SocialMediaKeys {
		links[key] = ""
	}
	return links
}
