package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverscope/docintel/ai/mock"
	"github.com/coverscope/docintel/core"
)

func TestRegistryTotality(t *testing.T) {
	r := NewRegistry(mock.NewMockCompleter())

	for _, id := range core.KnownCategories {
		s := r.GetStrategy(id)
		require.NotNil(t, s, "category %s", id)
	}
}

func TestRegistryFallbackForUnknown(t *testing.T) {
	r := NewRegistry(mock.NewMockCompleter())

	s := r.GetStrategy("pet_insurance")
	require.NotNil(t, s)
	assert.Equal(t, "generic", s.Name())
}

func TestRegistryDedicatedStrategies(t *testing.T) {
	r := NewRegistry(mock.NewMockCompleter())

	dedicated := map[string]string{
		core.CategoryGeneralLiability:    "general_liability",
		core.CategoryCommercialProperty:  "commercial_property",
		core.CategoryCommercialAuto:      "commercial_auto",
		core.CategoryWorkersCompensation: "workers_compensation",
		core.CategoryUmbrella:            "umbrella",
	}
	for id, name := range dedicated {
		assert.Equal(t, name, r.GetStrategy(id).Name(), "category %s", id)
	}
}

func TestRegistrySharedClusters(t *testing.T) {
	r := NewRegistry(mock.NewMockCompleter())

	for _, id := range []string{
		core.CategoryProfessionalLiability,
		core.CategoryErrorsOmissions,
		core.CategoryDirectorsOfficers,
		core.CategoryEmploymentPractices,
		core.CategoryCyberLiability,
	} {
		assert.Equal(t, "claims_made_liability", r.GetStrategy(id).Name(), "category %s", id)
	}

	for _, id := range []string{
		core.CategoryEquipmentBreakdown,
		core.CategoryInlandMarine,
		core.CategoryFlood,
		core.CategoryEarthquake,
		core.CategoryWindHail,
	} {
		assert.Equal(t, "property_extension", r.GetStrategy(id).Name(), "category %s", id)
	}
}
