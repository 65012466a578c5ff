package table

// LogicalType describes how a column may be used by feature primitives.
type LogicalType int

const (
	// TypeUnknown is the zero value and is rejected by New.
	TypeUnknown LogicalType = iota
	// TypeIndex marks a primary key column.
	TypeIndex
	// TypeForeignKey marks a column referencing another table's index.
	TypeForeignKey
	// TypeNumeric holds numbers that can be summed and compared.
	TypeNumeric
	// TypeBoolean holds true/false flags.
	TypeBoolean
	// TypeCategorical holds unordered labels, either strings or numeric codes.
	TypeCategorical
	// TypeOrdinal holds ordered discrete numbers such as calendar components.
	TypeOrdinal
	// TypeDatetime holds calendar dates.
	TypeDatetime
)

// String returns the string representation of the logical type
func (t LogicalType) String() string {
	switch t {
	case TypeIndex:
		return "index"
	case TypeForeignKey:
		return "foreign_key"
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeCategorical:
		return "categorical"
	case TypeOrdinal:
		return "ordinal"
	case TypeDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// IsKey reports whether the type identifies rows rather than describing them.
func (t LogicalType) IsKey() bool {
	return t == TypeIndex || t == TypeForeignKey
}

// IsCategory reports whether values of the type are discrete labels.
func (t LogicalType) IsCategory() bool {
	return t == TypeCategorical || t == TypeOrdinal
}

// accepts reports whether a cell of kind k may appear in a column of type t.
func (t LogicalType) accepts(k Kind) bool {
	if k == KindNull {
		return true
	}
	switch t {
	case TypeIndex, TypeForeignKey, TypeCategorical:
		return k == KindNumber || k == KindString
	case TypeNumeric, TypeOrdinal:
		return k == KindNumber
	case TypeBoolean:
		return k == KindBool
	case TypeDatetime:
		return k == KindTime
	default:
		return false
	}
}
