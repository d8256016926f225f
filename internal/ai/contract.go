package ai

import (
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// contractSchema accepts either the single-action shape or, when an
// "actions" member is present, the multi-action shape.
const contractSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "$defs": {
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "ref": {
      "type": "object",
      "required": ["ref"],
      "properties": {
        "ref": {
          "type": "object",
          "required": ["action"],
          "properties": {
            "action": {"type": "integer", "minimum": 1},
            "field": {"type": "string"}
          }
        }
      }
    },
    "parameters": {
      "type": ["object", "null"],
      "additionalProperties": {
        "anyOf": [
          {"type": ["string", "number", "boolean", "null"]},
          {"$ref": "#/$defs/ref"}
        ]
      }
    },
    "action": {
      "type": "object",
      "required": ["order", "type"],
      "properties": {
        "order": {"type": "integer", "minimum": 1},
        "type": {"type": "string", "minLength": 1},
        "confidence": {"$ref": "#/$defs/confidence"},
        "parameters": {"$ref": "#/$defs/parameters"},
        "dependsOn": {"type": ["integer", "null"], "minimum": 1},
        "outputUsedBy": {"type": ["array", "null"], "items": {"type": "integer", "minimum": 1}}
      }
    }
  },
  "if": {"required": ["actions"]},
  "then": {
    "properties": {
      "actions": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/action"}},
      "executionMode": {"enum": ["sequential", "parallel", "mixed", null]},
      "totalActions": {"type": ["integer", "null"]}
    }
  },
  "else": {
    "required": ["type"],
    "properties": {
      "type": {"type": "string", "minLength": 1},
      "confidence": {"$ref": "#/$defs/confidence"},
      "parameters": {"$ref": "#/$defs/parameters"},
      "suggestion": {"type": ["string", "null"]},
      "externalPlatform": {
        "anyOf": [
          {"type": "null"},
          {
            "type": "object",
            "required": ["name", "url"],
            "properties": {
              "name": {"type": "string"},
              "url": {"type": "string"},
              "reason": {"type": "string"}
            }
          }
        ]
      }
    }
  }
}`

var contract = jsonschema.MustCompileString("intent-contract.json", contractSchema)

// StripFences removes a surrounding markdown code fence, with or without a
// language tag.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
