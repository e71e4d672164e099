package domain

import "time"

// Animal is the cleaned view of one adoptable animal.
// Every field is always serialized so snapshot consumers see a stable schema.
type Animal struct {
	ID              int64       `json:"id"`
	OrganizationID  string      `json:"organization_id"`
	URL             string      `json:"url"`
	Type            string      `json:"type"`
	Species         string      `json:"species"`
	Name            string      `json:"name"`
	Breeds          Breeds      `json:"breeds"`
	Colors          Colors      `json:"colors"`
	Age             string      `json:"age"`
	Gender          string      `json:"gender"`
	Size            string      `json:"size"`
	Coat            string      `json:"coat"`
	Attributes      Attributes  `json:"attributes"`
	Environment     Environment `json:"environment"`
	Tags            []string    `json:"tags"`
	Description     string      `json:"description"`
	Photos          []string    `json:"photos"`
	PrimaryPhoto    string      `json:"primary_photo"`
	Status          string      `json:"status"`
	PublishedAt     time.Time   `json:"published_at"`
	StatusChangedAt time.Time   `json:"status_changed_at"`
}

// Breeds describes the breed mix reported by the shelter.
type Breeds struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Mixed     bool   `json:"mixed"`
	Unknown   bool   `json:"unknown"`
}

// Colors lists up to three coat colors.
type Colors struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Tertiary  string `json:"tertiary"`
}

// Attributes are yes/no facts; absent values are false.
type Attributes struct {
	SpayedNeutered bool `json:"spayed_neutered"`
	HouseTrained   bool `json:"house_trained"`
	Declawed       bool `json:"declawed"`
	SpecialNeeds   bool `json:"special_needs"`
	ShotsCurrent   bool `json:"shots_current"`
}

// Environment records compatibility. A nil value means unknown and is
// serialized as an explicit null.
type Environment struct {
	Children *bool `json:"children"`
	Dogs     *bool `json:"dogs"`
	Cats     *bool `json:"cats"`
}

// EnrichedAnimal is an Animal joined with its owning organization.
type EnrichedAnimal struct {
	Animal
	Organization OrganizationRef `json:"organization"`
}
