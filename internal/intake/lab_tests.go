package intake

import (
	"homecare/internal/utils"
	"homecare/pkg/types"
)

// testsRule covers category 2: a lab test package or a single test, with
// optional insurance card faces and supporting documents.
func testsRule() CategoryRule {
	return CategoryRule{
		Category: types.CategoryTests,
		Spec: func() ValidationSpec {
			return Merge(
				commonSpec(),
				optionalAddressSpec(),
				ValidationSpec{
					Fields: []FieldRule{
						Field("test_package_id", Integer(), Exists(types.EntityTestPackage)),
						Field("test_id", Integer(), Exists(types.EntityTest)),
						Field("area_id", Integer(), Exists(types.EntityArea)),
						Field("request_with_insurance", Boolean()),
						Field("attach_front_face", FilePath()),
						Field("attach_back_face", FilePath()),
						Field("request_details_files", FileList(maxDetailFiles)),
					},
					Exclusive: []ExclusiveGroup{
						{Fields: []string{"test_package_id", "test_id"}},
					},
				},
			)
		},
		Map: func(p Payload) *types.ServiceRequest {
			r := mapCommon(p, types.CategoryTests)
			r.TestPackageID = p.Int64("test_package_id")
			r.TestID = p.Int64("test_id")
			r.AreaID = p.Int64("area_id")
			r.RequestWithInsurance = utils.BoolPtr(p.Bool("request_with_insurance"))
			r.AttachFrontFace = singleFile(p["attach_front_face"])
			r.AttachBackFace = singleFile(p["attach_back_face"])
			r.RequestDetailsFiles = NormalizeFileList(p["request_details_files"])
			return r
		},
		Price: func(r *types.ServiceRequest) *types.PriceRef {
			if r.TestPackageID != nil {
				return priceRef(types.CategoryTests, types.EntityTestPackage, r.TestPackageID, r.AreaID)
			}
			return priceRef(types.CategoryTests, types.EntityTest, r.TestID, r.AreaID)
		},
	}
}

// singleFile keeps a stored path and drops anything else.
func singleFile(v any) *string {
	files := NormalizeFileList(v)
	if len(files) == 0 {
		return nil
	}

	return &files[0]
}
