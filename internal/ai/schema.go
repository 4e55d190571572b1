// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ai

// Analysis is the structured reflection the model must return. The JSON keys
// are Korean because they are part of the stored data format and the schema
// contract with the model.
type Analysis struct {
	Summary         string       `json:"핵심_요약"`
	FactsAndReading FactsReading `json:"사실과_해석"`
	EmotionSignals  []string     `json:"감정_신호"`
	RelationSignals []string     `json:"관계_신호"`
	Reframing       string       `json:"재해석"`
	TodaysQuestion  string       `json:"오늘의_질문"`
	TinyAction      string       `json:"아주_작은_행동"`
}

// FactsReading separates what happened from how it was read.
type FactsReading struct {
	Facts    []string `json:"사실"`
	Readings []string `json:"해석"`
}

// SchemaName identifies the structured output schema on the wire.
const SchemaName = "trailmind_reflection"

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

func stringProp() map[string]any {
	return map[string]any{"type": "string"}
}

func stringArrayProp() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}

// reflectionSchema builds the strict JSON schema the completions endpoint
// enforces on the model output.
func reflectionSchema() jsonSchemaFormat {
	return jsonSchemaFormat{
		Name:   SchemaName,
		Strict: true,
		Schema: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"핵심_요약": stringProp(),
				"사실과_해석": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"사실": stringArrayProp(),
						"해석": stringArrayProp(),
					},
					"required": []string{"사실", "해석"},
				},
				"감정_신호":   stringArrayProp(),
				"관계_신호":   stringArrayProp(),
				"재해석":     stringProp(),
				"오늘의_질문":  stringProp(),
				"아주_작은_행동": stringProp(),
			},
			"required": []string{
				"핵심_요약",
				"사실과_해석",
				"감정_신호",
				"관계_신호",
				"재해석",
				"오늘의_질문",
				"아주_작은_행동",
			},
		},
	}
}
