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

// Package extract turns section text into structured records via LLM
// completion calls.
//
// The core extractor reads the declarations section into a CoreRecord.
// Category extraction is strategy-dispatched: a registry maps every known
// coverage category to a strategy, with dedicated prompts for the
// high-volume categories, shared prompts for clusters whose fields
// overlap closely, and a generic fallback for anything unknown. The
// mapping is total: GetStrategy never returns nil.
package extract
