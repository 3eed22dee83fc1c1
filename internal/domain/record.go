package domain

import "fmt"

// Record is a point of interest (immutable value object).
// The vector is derived solely from the document text; rename-style
// presentation changes never touch it.
type Record struct {
	id          string
	name        string
	displayName string
	category    string
	city        string
	town        string
	address     string
	tel         string
	createdAt   int64
	document    string
	vector      []float32
}

// RecordFields carries the named attributes of a record into NewRecord.
// The embedding vector is attached separately via WithVector.
type RecordFields struct {
	Name      string
	Category  string
	City      string
	Town      string
	Address   string
	Tel       string
	CreatedAt int64
	Document  string
}

// NewRecord validates and creates a Record.
// ID and name are required; createdAt must be a positive epoch timestamp.
// Document may be empty (some source rows carry no description).
func NewRecord(id string, f RecordFields) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required")
	}
	if f.Name == "" {
		return Record{}, fmt.Errorf("record name is required for %q", id)
	}
	if f.CreatedAt <= 0 {
		return Record{}, fmt.Errorf("record %q: createdAt must be a positive timestamp", id)
	}
	return Record{
		id:        id,
		name:      f.Name,
		category:  f.Category,
		city:      f.City,
		town:      f.Town,
		address:   f.Address,
		tel:       f.Tel,
		createdAt: f.CreatedAt,
		document:  f.Document,
	}, nil
}

// ReconstructRecord creates a Record without validation (storage hydration).
func ReconstructRecord(
	id, name, displayName, category, city, town, address, tel string,
	createdAt int64, document string, vector []float32,
) Record {
	return Record{
		id: id, name: name, displayName: displayName, category: category,
		city: city, town: town, address: address, tel: tel,
		createdAt: createdAt, document: document, vector: vector,
	}
}

// ID returns the stable record identifier.
func (r *Record) ID() string { return r.id }

// Name returns the canonical name assigned at ingestion.
func (r *Record) Name() string { return r.name }

// DisplayName returns the presentation override, empty when never renamed.
func (r *Record) DisplayName() string { return r.displayName }

// Category returns the categorical tag (store type in the source data).
func (r *Record) Category() string { return r.category }

// City returns the city metadata field.
func (r *Record) City() string { return r.city }

// Town returns the town metadata field.
func (r *Record) Town() string { return r.town }

// Address returns the address metadata field.
func (r *Record) Address() string { return r.address }

// Tel returns the phone metadata field.
func (r *Record) Tel() string { return r.tel }

// CreatedAt returns the source creation date as epoch seconds.
func (r *Record) CreatedAt() int64 { return r.createdAt }

// Document returns the free-text description used for embedding.
func (r *Record) Document() string { return r.document }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// PresentationName resolves the name shown to callers: the display-name
// override when set, the ingested name otherwise.
func (r *Record) PresentationName() string {
	if r.displayName != "" {
		return r.displayName
	}
	return r.name
}

// WithVector returns a copy with the given embedding attached.
func (r *Record) WithVector(v []float32) Record {
	c := *r
	c.vector = v
	return c
}

// WithDisplayName returns a copy carrying a presentation override.
func (r *Record) WithDisplayName(name string) Record {
	c := *r
	c.displayName = name
	return c
}
