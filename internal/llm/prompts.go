// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package llm

import (
	"fmt"
	"strings"
)

const resourceSystemPrompt = `You are an intelligent assistant for a Learning Management System (LMS).
Given raw content extracted from a URL (such as an article, video, PDF, etc.), classify:
- the source type (e.g., Blog, Documentation, Course, YouTube Channel, News, GitHub)
- the source name (e.g., Medium, RealPython, YouTube, Mozilla Docs)
- the publication name when the source hosts several publications (e.g., a Medium publication), otherwise null
- the resource type (e.g., Article, PDF, Video, Tweet, Book, Tutorial, Course, GitHub Repo)
- a cleaned resource title and a 1-2 sentence description of the content
- the resource authors, the canonical resource URL, the source homepage URL, and image URLs when visible

Return a strict JSON object with exactly these keys:
resource_title, resource_description, resource_type, resource_url, source_name, source_type,
source_url, publication_name, resource_image_url, resource_authors (array of names), source_image_url.
Use null for values you cannot determine. Do not explain or include anything else.`

const lessonSystemPrompt = `You are a lesson generation assistant for a learning platform.
Analyze a piece of learning content and generate metadata for a lesson.

Extract:
- lesson_title: a short, human-readable title
- lesson_description: a 1-3 sentence summary of what this lesson teaches
- estimated_duration: ISO 8601 duration (e.g., "PT15M" for 15 minutes)
- level: one of beginner, intermediate, advanced, expert, unknown
- categories: array of {"category": <name>, "subcategories": [<names>]} chosen ONLY from the taxonomy below
- technologies: array of {"name": <technology>, "subcategory": <subcategory from the taxonomy or null>}
- topics: array of short topic names covered by the content

Do not invent categories or subcategories that are not in the taxonomy.
Return a JSON object with those fields only.`

const taskSystemPrompt = `You are a learning assistant for a tech learning platform. Create a task from a lesson.

Given a resource title, resource type and optionally a lesson description, generate:
- task_name: a user-facing label starting with an action verb suited to the resource type
  (e.g., Read "Intro to Docker", Watch "CI/CD Explained", Code "FastAPI CRUD App")
- task_description: one sentence describing what to do
- task_type: one of learning, implementation, research, documentation, maintenance
- task_status: default to "not_started"
- task_priority: one of low, medium, high, critical based on content urgency or complexity

Verb by resource type:
- Article or PDF: Read
- Video: Watch
- Course or Tutorial: Complete or Follow
- GitHub Repo or Code Sample: Code

Return a strict JSON object with keys task_name, task_description, task_type, task_status, task_priority.
Do not explain or include any extra output.`

const classifySystemPrompt = `You are a technical classifier. Classify a course into one or more of the
predefined tech learning categories listed by the user. Use only those categories.

Return a JSON object of the form:
{"categories": [{"category": "<CategoryName>", "reasoning": "<one sentence explanation>"}]}`

func resourcePrompt(in ResourceInput, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Article URL: %s\n", in.URL)
	writeOptional(&b, "Site Name", in.SiteName)
	writeOptional(&b, "Page Type", in.OGType)
	writeOptional(&b, "Meta Description", in.Description)
	if len(in.Authors) > 0 {
		fmt.Fprintf(&b, "Meta Authors: %s\n", strings.Join(in.Authors, ", "))
	}
	fmt.Fprintf(&b, "\nFull Text:\n%s\n", text)
	return b.String()
}

func lessonPrompt(title, text, taxonomy string) string {
	return fmt.Sprintf("Taxonomy (category -> subcategories):\n%s\n\nContent Title: %s\n\nFull Content:\n%s\n",
		taxonomy, title, text)
}

func taskPrompt(in TaskInput) string {
	return fmt.Sprintf("Resource Title: %s\nResource Type: %s\nLesson Description (optional): %s\n",
		in.ResourceTitle, in.ResourceType, in.LessonDescription)
}

func classifyPrompt(in CourseInput, categories []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CATEGORIES:\n%s\n\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "Course Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Course Description: %s\n", in.Description)
	writeOptional(&b, "Resource Title", in.ResourceTitle)
	writeOptional(&b, "Resource Type", in.ResourceType)
	writeOptional(&b, "Source Name", in.SourceName)
	return b.String()
}

func writeOptional(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
