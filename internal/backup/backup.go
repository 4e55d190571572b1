// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package backup versions the journal store file in a local git repository.
// Every successful save can be committed, giving the single data file a full
// history without any external service.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/jonboulle/clockwork"
)

const (
	authorName  = "TrailMind"
	authorEmail = "journal@trailmind.local"
)

// Repository wraps go-git operations on the backup directory.
type Repository struct {
	Path  string
	repo  *git.Repository
	clock clockwork.Clock
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock injects the clock used for commit timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(r *Repository) { r.clock = c }
}

// OpenOrInit opens the backup repository at path, initializing it on first
// use.
func OpenOrInit(path string, opts ...Option) (*Repository, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(path, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open backup repository: %w", err)
	}

	r := &Repository{
		Path:  path,
		repo:  repo,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// CommitFile stages one file inside the backup directory and commits it.
// A save that changed nothing is skipped silently.
func (r *Repository) CommitFile(filePath, message string) error {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	relPath, err := filepath.Rel(r.Path, filePath)
	if err != nil {
		relPath = filePath
	}
	if _, err := worktree.Add(relPath); err != nil {
		return fmt.Errorf("failed to add file %s: %w", relPath, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  r.clock.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// CommitInfo describes one backup commit.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// History returns the most recent backup commits, newest first. A limit of
// zero or less means no limit. An empty repository has an empty history.
func (r *Repository) History(limit int) ([]CommitInfo, error) {
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	iter, err := r.repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(commits) >= limit {
			return errStopIteration
		}
		commits = append(commits, CommitInfo{
			Hash:      c.Hash.String(),
			Message:   c.Message,
			Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStopIteration) {
		return nil, fmt.Errorf("failed to iterate log: %w", err)
	}
	return commits, nil
}

// IsClean reports whether the backup worktree has uncommitted changes.
func (r *Repository) IsClean() (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}
	return status.IsClean(), nil
}

var errStopIteration = errors.New("stop iteration")
