package types

import (
	"fmt"
	"time"
)

// Category identifies one of the business lines a request can be filed under.
type Category int

const (
	CategoryServiceRequest   Category = 1
	CategoryTests            Category = 2
	CategoryRays             Category = 3
	CategoryMachines         Category = 4
	CategoryPhysiotherapists Category = 5
	CategoryOffers           Category = 6
	CategoryDuties           Category = 7
	CategoryDoctors          Category = 8
)

var categoryNames = map[Category]string{
	CategoryServiceRequest:   "service_request",
	CategoryTests:            "tests",
	CategoryRays:             "rays",
	CategoryMachines:         "machines",
	CategoryPhysiotherapists: "physiotherapists",
	CategoryOffers:           "offers",
	CategoryDuties:           "duties",
	CategoryDoctors:          "doctors",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}

	return fmt.Sprintf("category(%d)", int(c))
}

// Categories returns every known category in ascending order.
func Categories() []Category {
	return []Category{
		CategoryServiceRequest,
		CategoryTests,
		CategoryRays,
		CategoryMachines,
		CategoryPhysiotherapists,
		CategoryOffers,
		CategoryDuties,
		CategoryDoctors,
	}
}

type PricingBasis string

const (
	PricingBasisService PricingBasis = "service"
	PricingBasisArea    PricingBasis = "area"
	PricingBasisEntity  PricingBasis = "entity"
	PricingBasisNone    PricingBasis = "none"
)

// RequestCategory is the catalog row describing a category.
type RequestCategory struct {
	ID           Category     `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Slug         string       `db:"slug" json:"slug"`
	Description  *string      `db:"description" json:"description"`
	PricingBasis PricingBasis `db:"pricing_basis" json:"pricingBasis"`
	DisplayOrder int          `db:"display_order" json:"displayOrder"`
	IsActive     bool         `db:"is_active" json:"isActive"`
	CreatedAt    time.Time    `db:"created_at" json:"createdAt"`
}
