// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package provider

import "sync"

// claimSet records run ids already handed to a dispatch so that concurrent
// dispatches against the same workflow never resolve to the same run.
type claimSet struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func newClaimSet() *claimSet {
	return &claimSet{claimed: make(map[string]struct{})}
}

// claimFirst claims the first unclaimed id of ranked, which must be ordered
// best first.
func (c *claimSet) claimFirst(ranked []string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ranked {
		if _, taken := c.claimed[id]; taken {
			continue
		}
		c.claimed[id] = struct{}{}
		return id, true
	}
	return "", false
}

func (c *claimSet) isClaimed(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.claimed[id]
	return ok
}

func (c *claimSet) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.claimed)
}
