package intake

import (
	"fmt"

	"homecare/pkg/types"
)

// CategoryRule pairs a category's validation spec with its mapping into the
// canonical record. Rules are stateless values.
type CategoryRule struct {
	Category types.Category

	// Unspecified marks a category whose business rules are not yet defined.
	Unspecified bool

	// Spec returns the ordered validation rules for the category.
	Spec func() ValidationSpec

	// Map converts an already-validated payload into a canonical record.
	// Mapping never fails: malformed optional shapes degrade to nil.
	Map func(p Payload) *types.ServiceRequest

	// Price names the entity the pricing collaborator should quote, or nil
	// when the category carries no priced reference.
	Price func(r *types.ServiceRequest) *types.PriceRef
}

// UnsupportedCategoryError is returned for category ids without a rule.
type UnsupportedCategoryError struct {
	CategoryID int
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("unsupported category %d", e.CategoryID)
}

// handlers is indexed by category id; index 0 is unused.
var handlers = [...]func() CategoryRule{
	nil,
	serviceRequestRule,
	testsRule,
	raysRule,
	machinesRule,
	physiotherapistsRule,
	offersRule,
	dutiesRule,
	doctorsRule,
}

// Resolve returns the rule for a category id.
func Resolve(categoryID int) (CategoryRule, error) {
	if categoryID < 1 || categoryID >= len(handlers) || handlers[categoryID] == nil {
		return CategoryRule{}, &UnsupportedCategoryError{CategoryID: categoryID}
	}

	return handlers[categoryID](), nil
}
