// Copyright 2025 Coverscope Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"github.com/coverscope/docintel/ai"
	"github.com/coverscope/docintel/core"
)

// Registry maps category identifiers to extraction strategies. New
// categories are added by registering a mapping entry, never by editing
// an existing strategy.
type Registry struct {
	strategies map[string]Strategy
	fallback   Strategy
}

// NewRegistry builds the full category mapping. The five high-volume
// categories get dedicated strategies; claims-made liability categories
// share one strategy, property-extension categories share another.
func NewRegistry(completer ai.Completer) *Registry {
	claimsMade := newLLMStrategy("claims_made_liability", claimsMadeGuidance, completer)
	propertyExt := newLLMStrategy("property_extension", propertyExtensionGuidance, completer)

	strategies := map[string]Strategy{
		core.CategoryGeneralLiability:    newLLMStrategy("general_liability", generalLiabilityGuidance, completer),
		core.CategoryCommercialProperty:  newLLMStrategy("commercial_property", commercialPropertyGuidance, completer),
		core.CategoryCommercialAuto:      newLLMStrategy("commercial_auto", commercialAutoGuidance, completer),
		core.CategoryWorkersCompensation: newLLMStrategy("workers_compensation", workersCompensationGuidance, completer),
		core.CategoryUmbrella:            newLLMStrategy("umbrella", umbrellaGuidance, completer),

		core.CategoryProfessionalLiability: claimsMade,
		core.CategoryErrorsOmissions:       claimsMade,
		core.CategoryDirectorsOfficers:     claimsMade,
		core.CategoryEmploymentPractices:   claimsMade,
		core.CategoryCyberLiability:        claimsMade,

		core.CategoryEquipmentBreakdown: propertyExt,
		core.CategoryInlandMarine:       propertyExt,
		core.CategoryFlood:              propertyExt,
		core.CategoryEarthquake:         propertyExt,
		core.CategoryWindHail:           propertyExt,
	}

	return &Registry{
		strategies: strategies,
		fallback:   newGenericStrategy(completer),
	}
}

// GetStrategy resolves a category to its strategy. The mapping is total:
// unknown categories get the generic fallback, never nil.
func (r *Registry) GetStrategy(categoryID string) Strategy {
	if s, ok := r.strategies[categoryID]; ok {
		return s
	}
	return r.fallback
}
