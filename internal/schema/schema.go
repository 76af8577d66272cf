// Package schema defines the target field layout for each import kind.
package schema

// FieldKind is the expected data type of an imported column.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumeric
	FieldDate
)

// FieldSpec describes one internal field an import maps a source column onto.
// DBField is unique within a set; Required fields must be mapped before a
// commit is allowed.
type FieldSpec struct {
	DBField     string
	DisplayName string
	Kind        FieldKind
	Required    bool
}
