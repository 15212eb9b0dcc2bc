package csdl

import (
	"strings"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
)

const edmPrefix = "Edm."

// primitiveCategories is the complete supported Edm vocabulary.
var primitiveCategories = map[string]domain.Category{
	"Edm.String":         domain.CategoryText,
	"Edm.Guid":           domain.CategoryText,
	"Edm.TimeOfDay":      domain.CategoryText,
	"Edm.Byte":           domain.CategoryInteger,
	"Edm.SByte":          domain.CategoryInteger,
	"Edm.Int16":          domain.CategoryInteger,
	"Edm.Int32":          domain.CategoryInteger,
	"Edm.Int64":          domain.CategoryInteger,
	"Edm.Single":         domain.CategoryFloat,
	"Edm.Double":         domain.CategoryFloat,
	"Edm.Decimal":        domain.CategoryFloat,
	"Edm.Boolean":        domain.CategoryBoolean,
	"Edm.Date":           domain.CategoryDate,
	"Edm.DateTimeOffset": domain.CategoryDateTime,
	"Edm.Duration":       domain.CategoryDuration,
	"Edm.Binary":         domain.CategoryBinary,
	"Edm.Stream":         domain.CategoryBinary,
}

// IsPrimitive reports whether a wire name lives in the Edm namespace.
func IsPrimitive(wire string) bool {
	return strings.HasPrefix(wire, edmPrefix)
}

// PrimitiveCategory maps an Edm primitive to its category. There is no
// fallback: anything outside the table is an UnknownPrimitiveTypeError.
func PrimitiveCategory(wire string) (domain.Category, error) {
	c, ok := primitiveCategories[wire]
	if !ok {
		return "", &domain.UnknownPrimitiveTypeError{Type: wire}
	}
	return c, nil
}
