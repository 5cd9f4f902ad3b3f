// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

package scraper

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute visible text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Iframe:   true,
}

// extraction accumulates what the tree walk finds.
type extraction struct {
	meta    map[string]string
	authors []string
	title   string
	favicon string
	text    strings.Builder
}

// parseHTMLInto fills the metadata fields of page from an HTML document.
// base resolves relative favicon and image URLs.
func parseHTMLInto(page *Page, r io.Reader, base *url.URL) error {
	doc, err := html.Parse(r)
	if err != nil {
		return err
	}

	ex := &extraction{meta: make(map[string]string)}
	ex.walk(doc)

	page.Title = firstNonEmpty(ex.title, ex.meta["og:title"], ex.meta["twitter:title"])
	page.SiteName = firstNonEmpty(ex.meta["og:site_name"], ex.meta["application-name"])
	page.OGType = ex.meta["og:type"]
	page.Description = firstNonEmpty(ex.meta["og:description"], ex.meta["description"], ex.meta["twitter:description"])
	page.PublishedAt = firstNonEmpty(ex.meta["article:published_time"], ex.meta["datepublished"], ex.meta["date"])
	page.ImageURL = resolve(base, firstNonEmpty(ex.meta["og:image"], ex.meta["twitter:image"]))
	page.Authors = ex.authors
	page.Text = ex.text.String()

	if ex.favicon != "" {
		page.FaviconURL = resolve(base, ex.favicon)
	} else {
		page.FaviconURL = defaultFavicon(base)
	}
	return nil
}

func (ex *extraction) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Title:
			if ex.title == "" {
				ex.title = collapse(textOf(n))
			}
		case atom.Meta:
			ex.addMeta(n)
		case atom.Link:
			ex.addLink(n)
		}
		if skipped[n.DataAtom] {
			// Head still carries meta, link and title.
			if n.DataAtom == atom.Head {
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					ex.walkHead(c)
				}
			}
			return
		}
	}

	if n.Type == html.TextNode {
		if s := collapse(n.Data); s != "" {
			if ex.text.Len() > 0 {
				ex.text.WriteByte(' ')
			}
			ex.text.WriteString(s)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ex.walk(c)
	}
}

// walkHead visits head elements without collecting text.
func (ex *extraction) walkHead(n *html.Node) {
	if n.Type != html.ElementNode {
		return
	}
	switch n.DataAtom {
	case atom.Title:
		if ex.title == "" {
			ex.title = collapse(textOf(n))
		}
	case atom.Meta:
		ex.addMeta(n)
	case atom.Link:
		ex.addLink(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		ex.walkHead(c)
	}
}

func (ex *extraction) addMeta(n *html.Node) {
	key := strings.ToLower(firstNonEmpty(attr(n, "property"), attr(n, "name"), attr(n, "itemprop")))
	content := strings.TrimSpace(attr(n, "content"))
	if key == "" || content == "" {
		return
	}
	switch key {
	case "author", "article:author", "parsely-author", "sailthru.author":
		// article:author is frequently a profile URL rather than a name.
		if strings.HasPrefix(content, "http://") || strings.HasPrefix(content, "https://") {
			return
		}
		for _, name := range strings.Split(content, ",") {
			ex.addAuthor(name)
		}
		return
	}
	if _, ok := ex.meta[key]; !ok {
		ex.meta[key] = content
	}
}

func (ex *extraction) addAuthor(name string) {
	name = collapse(name)
	if name == "" {
		return
	}
	for _, existing := range ex.authors {
		if strings.EqualFold(existing, name) {
			return
		}
	}
	ex.authors = append(ex.authors, name)
}

func (ex *extraction) addLink(n *html.Node) {
	if ex.favicon != "" {
		return
	}
	for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
		if rel == "icon" {
			ex.favicon = strings.TrimSpace(attr(n, "href"))
			return
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
