package model

import "time"

// Session pins a working directory to a single crawl identity.
//
// Design decision: We persist the seed URL and depth limit alongside the
// frontier because:
//  1. A frontier only makes sense for the parameters that produced it
//  2. Resuming with a different seed would silently mix two crawls
//  3. Resuming with a different depth would break the BFS completeness
//     guarantee for the recorded depth
//
// The record is written exactly once, before the first frontier mutation,
// and validated on every subsequent run against the same directory.
type Session struct {
	// SeedURL is the normalized starting URL of the crawl.
	SeedURL string `json:"seed_url"`

	// MaxDepth is the inclusive BFS depth limit. Pages at MaxDepth are
	// fetched but their links are not followed.
	MaxDepth int `json:"max_depth"`

	// CreatedAt is when the session was first established.
	CreatedAt time.Time `json:"created_at"`
}
