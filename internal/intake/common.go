package intake

import (
	"homecare/pkg/types"
)

const (
	maxTextLength  = 2000
	maxShortLength = 255
	maxDetailFiles = 10
)

var nurseGenders = []string{
	string(types.NurseGenderMale),
	string(types.NurseGenderFemale),
	string(types.NurseGenderAny),
	string(types.NurseGenderNone),
}

// commonSpec holds the rules every category shares.
func commonSpec() ValidationSpec {
	return ValidationSpec{
		Fields: []FieldRule{
			Field("first_name", RequiredWithout("full_name"), String(maxShortLength)),
			Field("last_name", String(maxShortLength)),
			Field("full_name", String(maxShortLength)),
			Field("phone_number", Required(), String(32)),
			Field("problem_description", String(maxTextLength)),
			Field("nurse_gender", In(nurseGenders...)),
			Field("use_saved_address", Boolean()),
			Field("additional_information", String(maxTextLength)),
		},
	}
}

// addressSpec validates the structured address. When required holds the
// location, city and street must be supplied; the caller can always opt out
// by setting use_saved_address.
func addressSpec(required Condition) ValidationSpec {
	needed := AllOf(required, Not(Truthy("use_saved_address")))

	return ValidationSpec{
		Fields: []FieldRule{
			Field("location", RequiredIf(needed), String(maxShortLength)),
			Field("city", RequiredIf(needed), String(maxShortLength)),
			Field("district", String(maxShortLength)),
			Field("street", RequiredIf(needed), String(maxShortLength)),
			Field("building_number", String(64)),
			Field("floor_number", String(64)),
			Field("apartment_number", String(64)),
			Field("latitude", Numeric(), Between(-90, 90)),
			Field("longitude", Numeric(), Between(-180, 180)),
		},
	}
}

// optionalAddressSpec accepts an address without demanding one.
func optionalAddressSpec() ValidationSpec {
	return addressSpec(Condition{Desc: "never", Fn: func(Payload) bool { return false }})
}

// mapCommon fills the category-independent fields. Every category-specific
// field stays nil so a record never carries another category's data.
func mapCommon(p Payload, category types.Category) *types.ServiceRequest {
	r := &types.ServiceRequest{
		CategoryID:            category,
		Status:                types.RequestStatusSubmitted,
		FullName:              BuildFullName(p),
		PhoneNumber:           p.String("phone_number"),
		ProblemDescription:    p.String("problem_description"),
		UseSavedAddress:       p.Bool("use_saved_address"),
		AdditionalInformation: p.String("additional_information"),
	}

	if g := p.String("nurse_gender"); g != nil {
		gender := types.NurseGender(*g)
		r.NurseGenderPreference = &gender
	}

	if !r.UseSavedAddress {
		r.RequestAddress = types.RequestAddress{
			Location:        p.String("location"),
			City:            p.String("city"),
			District:        p.String("district"),
			Street:          p.String("street"),
			BuildingNumber:  p.String("building_number"),
			FloorNumber:     p.String("floor_number"),
			ApartmentNumber: p.String("apartment_number"),
			Latitude:        p.Float64("latitude"),
			Longitude:       p.Float64("longitude"),
		}
	}

	return r
}

// priceRef builds a PriceRef when id is set.
func priceRef(category types.Category, entity types.Entity, id *int64, area *int64) *types.PriceRef {
	if id == nil {
		return nil
	}

	return &types.PriceRef{
		Category: category,
		Entity:   entity,
		EntityID: *id,
		AreaID:   area,
	}
}
