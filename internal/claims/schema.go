package claims

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func str() map[string]any  { return map[string]any{"type": "string"} }
func flag() map[string]any { return map[string]any{"type": "boolean"} }

func score(lo, hi int) map[string]any {
	return map[string]any{"type": "integer", "minimum": lo, "maximum": hi}
}

func strList() map[string]any {
	return map[string]any{"type": "array", "items": str()}
}

func object(props map[string]any, required ...string) map[string]any {
	o := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func identitySchema() map[string]any {
	return object(map[string]any{
		"identity_verification": object(map[string]any{
			"pan_name":                map[string]any{"type": "string", "minLength": 1},
			"pan_father_name":         str(),
			"deed_buyer_name":         str(),
			"match_status":            map[string]any{"type": "string", "enum": []string{"MATCHED", "PARTIAL", "MISMATCH"}},
			"fuzzy_match_explanation": str(),
			"confidence_score":        score(0, 100),
		}, "pan_name", "deed_buyer_name", "match_status", "confidence_score"),
		"legal_validity": object(map[string]any{
			"sub_registrar_seal_found": flag(),
			"seal_description":         str(),
			"stamp_paper_detected":     flag(),
		}, "sub_registrar_seal_found", "stamp_paper_detected"),
		"data_extraction": object(map[string]any{
			"survey_number": str(),
			"district":      str(),
			"seller_name":   str(),
			"land_status":   str(),
			"total_area":    str(),
		}, "survey_number"),
		"overall_verdict": str(),
	}, "identity_verification", "legal_validity", "data_extraction")
}

func landRecordSchema() map[string]any {
	return object(map[string]any{
		"status": map[string]any{"type": "string", "enum": []string{"APPROVED", "WARNING", "REJECTED"}},
		"matches": object(map[string]any{
			"name_match":   flag(),
			"survey_match": flag(),
		}, "name_match", "survey_match"),
		"land_facts": object(map[string]any{
			"classification":     str(),
			"is_government_land": flag(),
			"official_area_text": str(),
			"raw_markings":       strList(),
		}, "is_government_land"),
		"geo_target": object(map[string]any{
			"district_name":        str(),
			"taluk_name":           str(),
			"revenue_village_name": str(),
		}, "district_name"),
		"record_owner_name":    str(),
		"record_survey_number": str(),
		"rejection_reason":     str(),
	}, "status", "matches", "land_facts", "geo_target")
}

func siteVideoSchema() map[string]any {
	return object(map[string]any{
		"land_quality": object(map[string]any{
			"topography":            str(),
			"soil_type":             str(),
			"vegetation":            str(),
			"nearby_infrastructure": strList(),
			"water_presence":        str(),
			"boundary_clarity":      str(),
		}, "topography"),
		"audio_analysis": object(map[string]any{
			"detected_sounds":       strList(),
			"traffic_density":       str(),
			"noise_pollution_score": score(1, 10),
			"environment_summary":   str(),
		}, "noise_pollution_score"),
		"overall_verdict":   str(),
		"suitability_score": score(1, 10),
		"recommendations":   str(),
		"detailed_report":   map[string]any{"type": "string", "minLength": 1},
	}, "land_quality", "audio_analysis", "suitability_score", "detailed_report")
}

// compileSchema compiles a schema map once at task construction.
func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func mustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	s, err := compileSchema(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}
