package types

// Entity names a referenced catalog table that foreign-key fields point into.
type Entity string

const (
	EntityService         Entity = "service"
	EntityArea            Entity = "area"
	EntityTestPackage     Entity = "test_package"
	EntityTest            Entity = "test"
	EntityRay             Entity = "ray"
	EntityMachine         Entity = "machine"
	EntityPhysiotherapist Entity = "physiotherapist"
	EntityPhysioMachine   Entity = "physio_machine"
	EntityNurseVisit      Entity = "nurse_visit"
	EntityDuty            Entity = "duty"
	EntityBabysitter      Entity = "babysitter"
	EntityDoctor          Entity = "doctor"
	EntitySlot            Entity = "slot"
)

// PriceRef carries what the pricing collaborator needs to quote a base price.
type PriceRef struct {
	Category Category
	Entity   Entity
	EntityID int64
	AreaID   *int64
}
