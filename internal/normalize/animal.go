// Package normalize turns raw Petfinder records into the canonical shapes
// written to snapshots. All functions are pure.
package normalize

import (
	"strings"

	"github.com/samber/lo"

	"petsnapshot/internal/domain"
)

// Animal cleans one raw animal record. Only the id is mandatory; anything
// else missing becomes an empty value.
func Animal(raw domain.RawRecord) (domain.Animal, error) {
	id, ok := integerID(raw["id"])
	if !ok {
		return domain.Animal{}, &domain.MalformedRecordError{Kind: domain.KindAnimals, Field: "id", Value: raw["id"]}
	}

	breeds := object(raw, "breeds")
	colors := object(raw, "colors")
	attributes := object(raw, "attributes")
	environment := object(raw, "environment")

	return domain.Animal{
		ID:             id,
		OrganizationID: str(raw, "organization_id"),
		URL:            str(raw, "url"),
		Type:           str(raw, "type"),
		Species:        str(raw, "species"),
		Name:           text(raw, "name"),
		Breeds: domain.Breeds{
			Primary:   str(breeds, "primary"),
			Secondary: str(breeds, "secondary"),
			Mixed:     boolean(breeds, "mixed"),
			Unknown:   boolean(breeds, "unknown"),
		},
		Colors: domain.Colors{
			Primary:   str(colors, "primary"),
			Secondary: str(colors, "secondary"),
			Tertiary:  str(colors, "tertiary"),
		},
		Age:    str(raw, "age"),
		Gender: str(raw, "gender"),
		Size:   str(raw, "size"),
		Coat:   str(raw, "coat"),
		Attributes: domain.Attributes{
			SpayedNeutered: boolean(attributes, "spayed_neutered"),
			HouseTrained:   boolean(attributes, "house_trained"),
			Declawed:       boolean(attributes, "declawed"),
			SpecialNeeds:   boolean(attributes, "special_needs"),
			ShotsCurrent:   boolean(attributes, "shots_current"),
		},
		Environment: domain.Environment{
			Children: triState(environment, "children"),
			Dogs:     triState(environment, "dogs"),
			Cats:     triState(environment, "cats"),
		},
		Tags:            stringList(raw, "tags"),
		Description:     text(raw, "description"),
		Photos:          photoURLs(raw["photos"]),
		PrimaryPhoto:    primaryPhoto(raw),
		Status:          str(raw, "status"),
		PublishedAt:     timestamp(raw, "published_at"),
		StatusChangedAt: timestamp(raw, "status_changed_at"),
	}, nil
}

// AnimalPage normalizes every record of a page; malformed records are
// returned separately instead of failing the page.
func AnimalPage(records []domain.RawRecord) ([]domain.Animal, []error) {
	animals := make([]domain.Animal, 0, len(records))
	var skipped []error
	for _, raw := range records {
		animal, err := Animal(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		animals = append(animals, animal)
	}
	return animals, skipped
}

// photoURLs keeps the medium-size URL of each photo. Plain strings are
// accepted so already-normalized records pass through.
func photoURLs(value any) []string {
	items, _ := value.([]any)
	return lo.FilterMap(items, func(item any, _ int) (string, bool) {
		switch v := item.(type) {
		case string:
			v = strings.TrimSpace(v)
			return v, v != ""
		case map[string]any:
			medium := str(v, "medium")
			return medium, medium != ""
		case domain.RawRecord:
			medium := str(v, "medium")
			return medium, medium != ""
		default:
			return "", false
		}
	})
}

func primaryPhoto(raw domain.RawRecord) string {
	if cropped := str(object(raw, "primary_photo_cropped"), "medium"); cropped != "" {
		return cropped
	}
	return str(raw, "primary_photo")
}
