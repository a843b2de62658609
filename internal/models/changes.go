package models

// Field names one comparable attribute of a listing.
type Field int

const (
	FieldName Field = iota
	FieldPrice
	FieldLocation
)

// String returns the label used for the field in reports.
func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldPrice:
		return "price"
	case FieldLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Value returns the listing value of the given field.
func (l Listing) Value(f Field) string {
	switch f {
	case FieldName:
		return l.Name
	case FieldPrice:
		return l.Price
	case FieldLocation:
		return l.Location
	default:
		return ""
	}
}

// ComparedFields lists the fields checked for changes, in report order.
var ComparedFields = []Field{FieldName, FieldPrice, FieldLocation}

// ChangeInfo - information about the changed listing.
type ChangeInfo struct {
	Old    Listing
	New    Listing
	Fields []Field // Fields holds only the fields whose values differ.
}

// Changes - comparison result: all types of changes.
type Changes struct {
	Added   []Listing
	Removed []Listing
	Changed []ChangeInfo
}

// Empty reports whether nothing was added, removed or changed.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}
