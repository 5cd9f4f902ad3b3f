// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package llm turns scraped pages into structured metadata with a language
model.

Providers:

  - openai: any OpenAI-compatible /chat/completions endpoint over plain HTTP,
    with a client-side rate limit and up to MaxRetries retries on 429, 5xx
    and transport errors (exponential backoff 1s, 2s, 4s).
  - gemini: Google GenAI SDK with JSON response mode.

New wraps the provider in a sony/gobreaker circuit breaker. Every reply goes
through ExtractJSON (outermost object, trailing commas, single quotes) and is
validated against a JSON schema with gojsonschema before it is decoded, so
callers only see well-formed metadata or an error wrapping
ErrInvalidResponse.

Client operations:

  - EnrichResource: resource, source and publication metadata
  - EnrichLesson: lesson metadata constrained to the live taxonomy
  - GenerateTask: follow-up task (HeuristicTask is the model-free fallback)
  - ClassifyCourse: category suggestions restricted to existing categories
*/
package llm
