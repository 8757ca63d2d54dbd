// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package registry reads a scanner registry checkout: which scanners changed
// between two refs, their test manifests, and the repository's own identity.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog"

	"github.com/vulntor/regtest/pkg/logging"
)

// ScannersDir is the registry directory holding one <org>/<name> folder per
// scanner.
const ScannersDir = "scanners"

// Detector finds scanners touched between two git refs.
type Detector struct {
	logger zerolog.Logger
}

// NewDetector returns a Detector.
func NewDetector() *Detector {
	return &Detector{logger: logging.Component("registry")}
}

// DetectChangedScanners diffs baseRef against headRef in the repository at
// registryPath and returns the sorted ids of changed scanners that have a
// test manifest in the working tree.
func (d *Detector) DetectChangedScanners(ctx context.Context, registryPath, baseRef, headRef string) ([]string, error) {
	repo, err := openRepository(registryPath)
	if err != nil {
		return nil, err
	}

	files, err := changedFiles(ctx, repo, baseRef, headRef)
	if err != nil {
		return nil, err
	}

	root := worktreeRoot(repo, registryPath)
	ids := ScannerIDsFromPaths(files)
	withTests := make([]string, 0, len(ids))
	for _, id := range ids {
		if !HasTestDefinition(root, id) {
			d.logger.Debug().Str("scanner", id).Msg("Changed scanner has no test manifest")
			continue
		}
		withTests = append(withTests, id)
	}

	d.logger.Debug().
		Str("base_ref", baseRef).
		Str("head_ref", headRef).
		Int("changed_files", len(files)).
		Strs("scanners", withTests).
		Msg("Change detection complete")
	return withTests, nil
}

// ScannerIDsFromPaths maps repository-relative file paths of the form
// scanners/<org>/<name>/<file...> to sorted, de-duplicated <org>/<name> ids.
// Other paths are ignored.
func ScannerIDsFromPaths(paths []string) []string {
	var ids []string
	for _, p := range paths {
		parts := strings.Split(filepath.ToSlash(p), "/")
		if len(parts) < 4 || parts[0] != ScannersDir {
			continue
		}
		if parts[1] == "" || parts[2] == "" {
			continue
		}
		ids = append(ids, parts[1]+"/"+parts[2])
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func openRepository(registryPath string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(registryPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open registry repository %s: %w", registryPath, err)
	}
	return repo, nil
}

func worktreeRoot(repo *git.Repository, fallback string) string {
	wt, err := repo.Worktree()
	if err != nil {
		return fallback
	}
	return wt.Filesystem.Root()
}

// resolveCommit resolves ref, retrying as a remote-tracking branch of origin.
func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	candidates := []string{ref}
	if !strings.HasPrefix(ref, "origin/") {
		candidates = append(candidates, "origin/"+ref)
	}
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			continue
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("load commit %s: %w", candidate, err)
		}
		return commit, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
}

func changedFiles(ctx context.Context, repo *git.Repository, baseRef, headRef string) ([]string, error) {
	base, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, err
	}
	head, err := resolveCommit(repo, headRef)
	if err != nil {
		return nil, err
	}

	baseTree, err := base.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", baseRef, err)
	}
	headTree, err := head.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", headRef, err)
	}

	changes, err := object.DiffTreeContext(ctx, baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", baseRef, headRef, err)
	}

	files := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.From.Name != "" {
			files = append(files, c.From.Name)
		}
		if c.To.Name != "" && c.To.Name != c.From.Name {
			files = append(files, c.To.Name)
		}
	}
	return files, nil
}
