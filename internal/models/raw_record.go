package models

// RawRecord is one loosely-typed reservation as produced by a source adapter.
// Adapters map their own column names onto the Field* keys below; the
// normalizer checks presence and type of every key explicitly.
type RawRecord map[string]any

const (
	FieldExternalID = "reservationID"
	FieldPropertyID = "propertyID"
	FieldBookedAt   = "dateCreated"
	FieldCheckin    = "startDate"
	FieldCheckout   = "endDate"
	FieldPrice      = "total"
	FieldStatus     = "status"
	FieldChannel    = "sourceName"
)

// Get returns the value for key and whether it is present and non-nil.
func (r RawRecord) Get(key string) (any, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}
