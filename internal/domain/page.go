package domain

import "time"

// ResourceKind names a paginated Petfinder collection.
type ResourceKind string

const (
	KindAnimals       ResourceKind = "animals"
	KindOrganizations ResourceKind = "organizations"
)

// RawRecord is one record as decoded from the API, numbers kept as json.Number.
type RawRecord map[string]any

// Page is one page of raw records for a resource kind.
type Page struct {
	Kind    ResourceKind
	Number  int
	Records []RawRecord
	HasMore bool
}

// Snapshot is one run's output handed to the writers.
type Snapshot struct {
	Date          time.Time
	Animals       []Animal
	Organizations []Organization
	Enriched      []EnrichedAnimal
}
