// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Response schemas. Optional fields accept null because models emit it for
// values they cannot determine.
const (
	resourceSchemaJSON = `{
  "type": "object",
  "required": ["resource_title", "resource_type", "source_name"],
  "properties": {
    "resource_title":       {"type": "string", "minLength": 1},
    "resource_description": {"type": ["string", "null"]},
    "resource_type":        {"type": "string"},
    "resource_url":         {"type": ["string", "null"]},
    "source_name":          {"type": ["string", "null"]},
    "source_type":          {"type": ["string", "null"]},
    "source_url":           {"type": ["string", "null"]},
    "publication_name":     {"type": ["string", "null"]},
    "resource_image_url":   {"type": ["string", "null"]},
    "source_image_url":     {"type": ["string", "null"]},
    "resource_authors":     {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

	lessonSchemaJSON = `{
  "type": "object",
  "required": ["lesson_title", "lesson_description", "level"],
  "properties": {
    "lesson_title":       {"type": "string", "minLength": 1},
    "lesson_description": {"type": "string"},
    "estimated_duration": {"type": ["string", "null"]},
    "level":              {"type": "string"},
    "categories": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["category"],
        "properties": {
          "category":      {"type": "string"},
          "subcategories": {"type": ["array", "null"], "items": {"type": "string"}}
        }
      }
    },
    "technologies": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name":        {"type": "string", "minLength": 1},
          "subcategory": {"type": ["string", "null"]}
        }
      }
    },
    "topics": {"type": ["array", "null"], "items": {"type": "string"}}
  }
}`

	taskSchemaJSON = `{
  "type": "object",
  "required": ["task_name"],
  "properties": {
    "task_name":        {"type": "string", "minLength": 1},
    "task_description": {"type": ["string", "null"]},
    "task_type":        {"type": ["string", "null"]},
    "task_status":      {"type": ["string", "null"]},
    "task_priority":    {"type": ["string", "null"]}
  }
}`

	classifySchemaJSON = `{
  "type": "object",
  "required": ["categories"],
  "properties": {
    "categories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["category"],
        "properties": {
          "category":  {"type": "string", "minLength": 1},
          "reasoning": {"type": ["string", "null"]}
        }
      }
    }
  }
}`
)

var (
	resourceSchema = mustCompile("resource", resourceSchemaJSON)
	lessonSchema   = mustCompile("lesson", lessonSchemaJSON)
	taskSchema     = mustCompile("task", taskSchemaJSON)
	classifySchema = mustCompile("classify", classifySchemaJSON)
)

func mustCompile(name, src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile %s schema: %v", name, err))
	}
	return schema
}

// validateDocument checks data against schema and lists every violation.
func validateDocument(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
}
