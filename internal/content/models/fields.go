package models

import "time"

// Fields is a partial update against a resource's owner-mutable content.
// Nil members are untouched; set members override.
type Fields struct {
	Title  *string `json:"title,omitempty"`
	Body   *string `json:"body,omitempty"`
	Status *Status `json:"status,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (f Fields) IsEmpty() bool {
	return f.Title == nil && f.Body == nil && f.Status == nil
}

// Merge folds a newer partial update over this one; newer members win.
func (f Fields) Merge(newer Fields) Fields {
	out := f
	if newer.Title != nil {
		out.Title = newer.Title
	}
	if newer.Body != nil {
		out.Body = newer.Body
	}
	if newer.Status != nil {
		out.Status = newer.Status
	}
	return out
}

// ApplyTo writes the set members onto the resource and advances its version
// marker. Callers hold the store lock.
func (f Fields) ApplyTo(r *Resource, now time.Time) {
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.Body != nil {
		r.Body = *f.Body
	}
	if f.Status != nil {
		r.Status = *f.Status
	}
	r.Touch(now)
}
