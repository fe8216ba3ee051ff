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

// Field guidance per strategy. Each block names the keys the model
// should emit; keys listed under "Common fields" match commonFieldKeys
// and get promoted, the rest land in Details.

const generalLiabilityGuidance = `Extract general liability coverage details.
Common fields: each_occurrence_limit, aggregate_limit, deductible, premium, claims_made, retroactive_date.
Also extract: products_completed_ops_aggregate, personal_advertising_injury_limit, damage_to_premises_rented_limit, medical_expense_limit, subtype (occurrence or claims-made).`

const commercialPropertyGuidance = `Extract commercial property coverage details.
Common fields: aggregate_limit (use the building limit if that is the only limit stated), deductible, deductible_percent, premium.
Also extract: building_limit, business_personal_property_limit, business_income_limit, valuation_basis (RC or ACV), coinsurance_percent, covered_locations, cause_of_loss_form (basic, broad, or special).`

const commercialAutoGuidance = `Extract commercial auto coverage details.
Common fields: each_occurrence_limit (the combined single limit), deductible, premium.
Also extract: combined_single_limit, uninsured_motorist_limit, medical_payments_limit, comprehensive_deductible, collision_deductible, covered_autos_symbols, hired_auto_coverage, non_owned_auto_coverage.`

const workersCompensationGuidance = `Extract workers compensation coverage details.
Common fields: premium.
Also extract: each_accident_limit, disease_policy_limit, disease_each_employee_limit, covered_states, experience_modifier, class_codes.`

const umbrellaGuidance = `Extract umbrella or excess liability coverage details.
Common fields: each_occurrence_limit, aggregate_limit, premium.
Also extract: self_insured_retention, underlying_policies (list of policy types the umbrella sits over), follow_form, drop_down_coverage.`

const claimsMadeGuidance = `Extract claims-made liability coverage details. This coverage is written on a claims-made basis: the retroactive date and any extended reporting period are essential.
Common fields: each_occurrence_limit (the per-claim limit), aggregate_limit, deductible, premium, claims_made (true unless the text says occurrence), retroactive_date.
Also extract: per_claim_limit, extended_reporting_period_months, extended_reporting_period_premium, prior_acts_coverage, defense_costs_inside_limits, subtype.`

const propertyExtensionGuidance = `Extract details for this property coverage extension. Deductibles in these coverages are often a percentage of the insured value rather than a flat amount; capture whichever form the text uses.
Common fields: aggregate_limit, deductible (flat amount), deductible_percent (percentage form), premium.
Also extract: sublimit, covered_perils, covered_property, waiting_period_hours, zone_or_tier.`
