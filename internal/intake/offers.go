package intake

import (
	"homecare/pkg/types"
)

// offersRule covers category 6. Its business rules have not been defined
// yet: only the shared fields are validated and mapped, and no priced
// reference is carried.
func offersRule() CategoryRule {
	return CategoryRule{
		Category:    types.CategoryOffers,
		Unspecified: true,
		Spec: func() ValidationSpec {
			return Merge(commonSpec(), optionalAddressSpec())
		},
		Map: func(p Payload) *types.ServiceRequest {
			return mapCommon(p, types.CategoryOffers)
		},
		Price: func(*types.ServiceRequest) *types.PriceRef {
			return nil
		},
	}
}
