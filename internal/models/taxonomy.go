// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package models

import "strings"

// NamedItem is the shape of every simple lookup table (levels, topics,
// task statuses, source types and so on).
type NamedItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NameCreate is the request body for creating a NamedItem.
type NameCreate struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// Subcategory belongs to exactly one category.
type Subcategory struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id"`
}

// SubcategoryCreate is the request body for POST /subcategories.
type SubcategoryCreate struct {
	Name       string `json:"name" validate:"required,min=1,max=200"`
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
}

// Technology is a tool, language or framework.
type Technology struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TechnologyCreate creates a technology and links it to a subcategory.
type TechnologyCreate struct {
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Description   string `json:"description" validate:"max=2000"`
	SubcategoryID int64  `json:"subcategory_id" validate:"required,gt=0"`
}

// TechnologyRead is a technology with its subcategory and category names
// resolved. A technology linked to several subcategories yields one row per link.
type TechnologyRead struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Subcategory string `json:"subcategory"`
	Category    string `json:"category"`
}

// TaxonomyNode is a category with its subcategory names.
type TaxonomyNode struct {
	ID            int64    `json:"id"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

// Taxonomy is the category tree used to constrain enrichment output.
type Taxonomy []TaxonomyNode

// FindCategory returns the node whose name matches case-insensitively.
func (t Taxonomy) FindCategory(name string) (TaxonomyNode, bool) {
	name = strings.TrimSpace(name)
	for _, node := range t {
		if strings.EqualFold(node.Category, name) {
			return node, true
		}
	}
	return TaxonomyNode{}, false
}

// FindSubcategory returns the canonical subcategory name under the node.
func (n TaxonomyNode) FindSubcategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, sub := range n.Subcategories {
		if strings.EqualFold(sub, name) {
			return sub, true
		}
	}
	return "", false
}

// FindSubcategoryAnywhere returns the first category owning a subcategory
// named name.
func (t Taxonomy) FindSubcategoryAnywhere(name string) (category, subcategory string, ok bool) {
	for _, node := range t {
		if sub, found := node.FindSubcategory(name); found {
			return node.Category, sub, true
		}
	}
	return "", "", false
}

// Search returns nodes whose category or subcategories contain query
// case-insensitively. A category match keeps all of its subcategories;
// otherwise only matching subcategories are kept.
func (t Taxonomy) Search(query string) Taxonomy {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return t
	}

	out := Taxonomy{}
	for _, node := range t {
		if strings.Contains(strings.ToLower(node.Category), q) {
			out = append(out, node)
			continue
		}
		var subs []string
		for _, sub := range node.Subcategories {
			if strings.Contains(strings.ToLower(sub), q) {
				subs = append(subs, sub)
			}
		}
		if len(subs) > 0 {
			out = append(out, TaxonomyNode{ID: node.ID, Category: node.Category, Subcategories: subs})
		}
	}
	return out
}

// DefaultTaxonomy seeds an empty database and stands in for enrichment when
// no categories exist yet.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		{Category: "Backend", Subcategories: []string{"API Framework", "Web Framework", "Authentication", "Database Drivers"}},
		{Category: "Frontend", Subcategories: []string{"UI Components", "State Management", "React Ecosystem"}},
		{Category: "DevOps", Subcategories: []string{"Containerization", "CI/CD", "Infrastructure as Code"}},
		{Category: "Security", Subcategories: []string{"Authentication", "Authorization", "Secrets Management"}},
		{Category: "Database", Subcategories: []string{"SQL", "NoSQL", "ORMs", "Indexing"}},
		{Category: "AI/ML", Subcategories: []string{"Model Training", "Prompt Engineering", "NLP"}},
		{Category: "Cloud Infrastructure", Subcategories: []string{"AWS", "Terraform", "Kubernetes"}},
	}
}
