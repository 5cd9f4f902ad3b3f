// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package ingest

import (
	"fmt"
	"strings"

	"github.com/tomtom215/techstack/internal/models"
)

// validateLesson restricts lesson metadata to the taxonomy and returns the
// cleaned copy plus one warning per value it had to drop or replace.
func validateLesson(in models.LessonMetadata, tax models.Taxonomy) (models.LessonMetadata, []string) {
	out := in
	var warnings []string

	// Categories, merged by canonical name in first-seen order.
	var kept []models.TaxonomyNode
	subsByCategory := make(map[string][]string)
	for _, assignment := range in.Categories {
		node, ok := tax.FindCategory(assignment.Category)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("dropped unknown category %q", assignment.Category))
			continue
		}
		if _, seen := subsByCategory[node.Category]; !seen {
			kept = append(kept, node)
			subsByCategory[node.Category] = []string{}
		}
		for _, sub := range assignment.Subcategories {
			canonical, ok := node.FindSubcategory(sub)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("dropped subcategory %q not under %s", sub, node.Category))
				continue
			}
			if !containsFold(subsByCategory[node.Category], canonical) {
				subsByCategory[node.Category] = append(subsByCategory[node.Category], canonical)
			}
		}
	}
	out.Categories = make([]models.CategoryAssignment, 0, len(kept))
	for _, node := range kept {
		out.Categories = append(out.Categories, models.CategoryAssignment{
			Category:      node.Category,
			Subcategories: subsByCategory[node.Category],
		})
	}

	// Technologies keep their subcategory only when the taxonomy knows it,
	// preferring the lesson's own categories when the name is ambiguous.
	out.Technologies = make([]models.TechnologyAssignment, 0, len(in.Technologies))
	seenTech := make(map[string]bool)
	for _, tech := range in.Technologies {
		name := strings.Join(strings.Fields(tech.Name), " ")
		if name == "" || seenTech[strings.ToLower(name)] {
			continue
		}
		seenTech[strings.ToLower(name)] = true

		sub := strings.TrimSpace(tech.Subcategory)
		if sub != "" {
			canonical, ok := resolveSubcategory(sub, kept, tax)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("technology %s: unknown subcategory %q", name, sub))
			}
			sub = canonical
		}
		out.Technologies = append(out.Technologies, models.TechnologyAssignment{Name: name, Subcategory: sub})
	}

	level := normalizeName(in.Level)
	switch {
	case contains(models.Levels, level):
		out.Level = level
	default:
		if level != "" {
			warnings = append(warnings, fmt.Sprintf("unknown level %q, using %s", in.Level, models.LevelUnknown))
		}
		out.Level = models.LevelUnknown
	}

	return out, warnings
}

func resolveSubcategory(name string, preferred []models.TaxonomyNode, tax models.Taxonomy) (string, bool) {
	for _, node := range preferred {
		if canonical, ok := node.FindSubcategory(name); ok {
			return canonical, true
		}
	}
	if _, canonical, ok := tax.FindSubcategoryAnywhere(name); ok {
		return canonical, true
	}
	return "", false
}

// validateTask replaces unknown enumerations with their defaults.
func validateTask(in models.TaskMetadata) (models.TaskMetadata, []string) {
	out := in
	var warnings []string

	out.TaskName = strings.TrimSpace(in.TaskName)
	out.TaskDescription = strings.TrimSpace(in.TaskDescription)

	fields := []struct {
		label    string
		value    *string
		allowed  []string
		fallback string
	}{
		{"task type", &out.TaskType, models.TaskTypes, models.TaskTypeLearning},
		{"task status", &out.TaskStatus, models.TaskStatuses, models.TaskStatusNotStarted},
		{"task priority", &out.TaskPriority, models.TaskPriorities, models.TaskPriorityMedium},
	}
	for _, f := range fields {
		raw := *f.value
		v := normalizeName(raw)
		if contains(f.allowed, v) {
			*f.value = v
			continue
		}
		if v != "" {
			warnings = append(warnings, fmt.Sprintf("unknown %s %q, using %s", f.label, raw, f.fallback))
		}
		*f.value = f.fallback
	}
	return out, warnings
}

// normalizeName lower-cases and turns spaces and dashes into underscores,
// so "Not Started" and "not-started" both become not_started.
func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "_")
	return strings.ReplaceAll(s, "-", "_")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
