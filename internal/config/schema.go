package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ConfigSchema is the JSON Schema for the config file
const ConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "server": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "url": { "type": "string", "pattern": "^https?://" },
        "directory": { "type": "string" },
        "password": { "type": "string" },
        "event_timeout_ms": { "type": "integer", "minimum": 0 },
        "reconnect_base_ms": { "type": "integer", "minimum": 1 },
        "reconnect_max_ms": { "type": "integer", "minimum": 1 },
        "request_timeout_ms": { "type": "integer", "minimum": 0 }
      }
    },
    "plugins": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "attribution": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": { "type": "boolean" },
            "tool": { "type": "string", "minLength": 1 },
            "contribution": { "type": "string" },
            "tools": { "type": "array", "items": { "type": "string", "minLength": 1 } },
            "env_file": { "type": "string" }
          }
        },
        "auto_session_name": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": { "type": "boolean" }
          }
        },
        "session_title": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "enabled": { "type": "boolean" },
            "provider_priority": {
              "type": "array",
              "items": { "enum": ["openai", "anthropic", "google", "deepseek", "opencode"] }
            },
            "models": { "type": "object", "additionalProperties": { "type": "string" } },
            "max_message_chars": { "type": "integer", "minimum": 1 },
            "max_tokens": { "type": "integer", "minimum": 1 },
            "auth_file": { "type": "string" },
            "watch_auth_file": { "type": "boolean" }
          }
        }
      }
    },
    "ai": {
      "type": "object",
      "properties": {
        "profiles": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "provider", "api_key"],
            "properties": {
              "id": { "type": "string", "minLength": 1 },
              "provider": { "enum": ["openai", "anthropic", "google", "deepseek", "opencode"] },
              "api_key": { "type": "string", "minLength": 1 },
              "base_url": { "type": "string" }
            }
          }
        }
      }
    },
    "hooks": {
      "type": "object",
      "properties": {
        "enabled": { "type": "boolean" },
        "entries": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["event", "script"],
            "properties": {
              "id": { "type": "string" },
              "event": { "enum": ["attribution:session_start", "attribution:file_tracked"] },
              "script": { "type": "string", "minLength": 1 },
              "timeout_ms": { "type": "integer", "minimum": 0 },
              "enabled": { "type": "boolean" }
            }
          }
        }
      }
    },
    "logging": {
      "type": "object",
      "properties": {
        "level": { "enum": ["debug", "info", "warn", "error"] },
        "file": { "type": "string" },
        "console": { "type": "boolean" },
        "pretty": { "type": "boolean" },
        "redaction": { "type": "boolean" }
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": { "type": "boolean" },
        "addr": { "type": "string" }
      }
    },
    "data_dir": { "type": "string" }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(ConfigSchema)

// ValidateSchema checks raw config JSON against ConfigSchema
func ValidateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	return nil
}
