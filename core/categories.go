package core

// Coverage category identifiers. These are the valid values for
// ClassificationResult.CoveragesDetected and CategoryRecord.CategoryId.
// The extract package maps each one to an extraction strategy.
const (
	CategoryGeneralLiability      = "general_liability"
	CategoryCommercialProperty    = "commercial_property"
	CategoryCommercialAuto        = "commercial_auto"
	CategoryWorkersCompensation   = "workers_compensation"
	CategoryUmbrella              = "umbrella"
	CategoryProfessionalLiability = "professional_liability"
	CategoryErrorsOmissions       = "errors_omissions"
	CategoryDirectorsOfficers     = "directors_officers"
	CategoryEmploymentPractices   = "employment_practices"
	CategoryCyberLiability        = "cyber_liability"
	CategoryEquipmentBreakdown    = "equipment_breakdown"
	CategoryInlandMarine          = "inland_marine"
	CategoryFlood                 = "flood"
	CategoryEarthquake            = "earthquake"
	CategoryWindHail              = "wind_hail"
)

// KnownCategories lists every category the classifier may detect.
var KnownCategories = []string{
	CategoryGeneralLiability,
	CategoryCommercialProperty,
	CategoryCommercialAuto,
	CategoryWorkersCompensation,
	CategoryUmbrella,
	CategoryProfessionalLiability,
	CategoryErrorsOmissions,
	CategoryDirectorsOfficers,
	CategoryEmploymentPractices,
	CategoryCyberLiability,
	CategoryEquipmentBreakdown,
	CategoryInlandMarine,
	CategoryFlood,
	CategoryEarthquake,
	CategoryWindHail,
}

// DocumentTypes lists the labels the classifier may assign to a document.
var DocumentTypes = []string{
	"policy",
	"quote",
	"binder",
	"endorsement",
	"certificate",
	"audit",
	"other",
}

// DefaultDocumentType is assumed when classification fails entirely.
const DefaultDocumentType = "policy"
