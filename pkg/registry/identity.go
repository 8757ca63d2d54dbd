// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package registry

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// HeadCommit returns the commit sha checked out in the registry repository.
func HeadCommit(registryPath string) (string, error) {
	repo, err := openRepository(registryPath)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// RepositoryIdentity returns the owner/repo path of the registry's origin
// remote.
func RepositoryIdentity(registryPath string) (string, error) {
	repo, err := openRepository(registryPath)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", ErrNoRemote
		}
		return "", fmt.Errorf("read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", ErrNoRemote
	}
	return ParseRepositoryIdentity(urls[0])
}

// ParseRepositoryIdentity extracts the repository path from a remote URL.
// Both URL forms (https://host/owner/repo.git, ssh://git@host/owner/repo)
// and scp-like addresses (git@host:owner/repo.git) are accepted.
func ParseRepositoryIdentity(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	var repoPath string

	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("parse remote url %q: %w", remote, err)
		}
		repoPath = u.Path
	} else if _, after, ok := strings.Cut(remote, ":"); ok {
		repoPath = after
	} else {
		return "", fmt.Errorf("unrecognized remote url %q", remote)
	}

	repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
	if strings.Count(repoPath, "/") < 1 {
		return "", fmt.Errorf("remote url %q has no owner/repo path", remote)
	}
	return repoPath, nil
}
