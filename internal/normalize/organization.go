package normalize

import (
	"petsnapshot/internal/domain"
)

// Organization cleans one raw organization record.
func Organization(raw domain.RawRecord) (domain.Organization, error) {
	id := str(raw, "id")
	if id == "" {
		return domain.Organization{}, &domain.MalformedRecordError{Kind: domain.KindOrganizations, Field: "id", Value: raw["id"]}
	}

	address := object(raw, "address")
	adoption := object(raw, "adoption")
	social := object(raw, "social_media")

	links := domain.EmptySocialMedia()
	for key := range links {
		links[key] = str(social, key)
	}

	return domain.Organization{
		ID:    id,
		Name:  text(raw, "name"),
		Email: str(raw, "email"),
		Phone: str(raw, "phone"),
		Address: domain.Address{
			Address1: str(address, "address1"),
			Address2: str(address, "address2"),
			City:     str(address, "city"),
			State:    str(address, "state"),
			Postcode: str(address, "postcode"),
			Country:  str(address, "country"),
		},
		URL:              str(raw, "url"),
		Website:          str(raw, "website"),
		MissionStatement: text(raw, "mission_statement"),
		Adoption: domain.Adoption{
			Policy: text(adoption, "policy"),
			URL:    str(adoption, "url"),
		},
		SocialMedia: links,
		Photo:       organizationPhoto(raw),
	}, nil
}

// OrganizationPage normalizes a page of organizations, collecting skips.
func OrganizationPage(records []domain.RawRecord) ([]domain.Organization, []error) {
	orgs := make([]domain.Organization, 0, len(records))
	var skipped []error
	for _, raw := range records {
		org, err := Organization(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		orgs = append(orgs, org)
	}
	return orgs, skipped
}

func organizationPhoto(raw domain.RawRecord) string {
	if photos := photoURLs(raw["photos"]); len(photos) > 0 {
		return photos[0]
	}
	return str(raw, "photo")
}
