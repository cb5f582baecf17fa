// Package model defines the records that flow through the firm linker.
package model

// Corpus tags for Entity.Source.
const (
	SourcePublication = "publication"
	SourcePatent      = "patent"
)

// Entity is an organization mentioned in a source corpus that needs to be
// resolved to a registry firm. Entities are immutable for the duration of a run.
type Entity struct {
	ID         string   `json:"entity_id"`
	Source     string   `json:"source,omitempty"`
	Name       string   `json:"display_name"`
	Normalized string   `json:"normalized_name"`
	AltNames   []string `json:"alternate_names,omitempty"`
	Acronyms   []string `json:"acronyms,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Country    string   `json:"country_code,omitempty"`
	Descriptor string   `json:"descriptor,omitempty"`

	// Volume is the record count behind the entity. Reporting only.
	Volume int64 `json:"volume,omitempty"`
}

// Firm is a row of the financial reference registry.
type Firm struct {
	ID         string   `json:"firm_id"`
	LegalName  string   `json:"legal_name"`
	Normalized string   `json:"normalized_name"`
	Ticker     string   `json:"ticker,omitempty"`
	AltNames   []string `json:"alternate_names,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	Country    string   `json:"country_code,omitempty"`
	Descriptor string   `json:"descriptor,omitempty"`
}

// Override is a manually curated entity → firm mapping applied in tier 3.
type Override struct {
	EntityID string `json:"entity_id" yaml:"entity_id"`
	FirmID   string `json:"firm_id" yaml:"firm_id"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}
