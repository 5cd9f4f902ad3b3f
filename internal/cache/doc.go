// Techstack - Learning and Tech Stack Tracking API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/techstack

/*
Package cache provides the in-process caches used by the API and the
ingest pipeline.

# TTL Cache

Cache is a map with per-entry expiration and a background cleanup loop. It
holds the taxonomy snapshot that every enrichment prompt is built from, so
a burst of ingest jobs reads the category tree once:

	c := cache.New("taxonomy", 5*time.Minute)
	v, err := c.GetOrLoad(ctx, "tree", func(ctx context.Context) (interface{}, error) {
	    return db.Taxonomy(ctx)
	})

GetOrLoad collapses concurrent loads of the same key with
golang.org/x/sync/singleflight. Creating categories, subcategories or
technologies clears the cache.

Hits and misses are exported as cache_hits_total and cache_misses_total,
labelled with the cache name.

# LRU

LRUCache is a bounded string map with recency eviction and TTL. The ingest
service records URL -> job ID there so a URL submitted twice in quick
succession returns the running job.

# Thread Safety

Both types are safe for concurrent use.
*/
package cache
