package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ConflictPolicy decides what survives when two copies of a document differ.
type ConflictPolicy string

// Conflict policies.
const (
	// KeepLocal keeps the local copy and backs up the incoming one.
	KeepLocal ConflictPolicy = "keep-local"

	// KeepRemote replaces the local copy and backs up the old one.
	KeepRemote ConflictPolicy = "keep-remote"

	// KeepBoth keeps the local copy in place and stores the incoming
	// copy under a timestamped name.
	KeepBoth ConflictPolicy = "keep-both"
)

// IsValid returns true if the policy is recognised.
func (p ConflictPolicy) IsValid() bool {
	switch p {
	case KeepLocal, KeepRemote, KeepBoth:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p ConflictPolicy) String() string {
	return string(p)
}

// DocumentVersion is one copy of a named document.
type DocumentVersion struct {
	Name    string
	Content []byte
}

// Resolution is the outcome of ResolveConflict.
// Kept copies are written under their Name; BackedUp copies are preserved
// under their (already renamed) Name but not indexed.
type Resolution struct {
	Kept     []DocumentVersion
	BackedUp []DocumentVersion
}

// ResolveConflict decides between a local and a remote copy of the same document.
// It performs no I/O; now only stamps backup names.
func ResolveConflict(local, remote DocumentVersion, policy ConflictPolicy, now time.Time) (Resolution, error) {
	if !policy.IsValid() {
		return Resolution{}, fmt.Errorf("%w: conflict policy %q", ErrInvalidInput, policy)
	}
	stamp := now.UTC().Format("20060102T150405Z")

	switch policy {
	case KeepLocal:
		return Resolution{
			Kept:     []DocumentVersion{local},
			BackedUp: []DocumentVersion{renamed(remote, BackupName(remote.Name, stamp))},
		}, nil
	case KeepRemote:
		kept := remote
		kept.Name = local.Name
		return Resolution{
			Kept:     []DocumentVersion{kept},
			BackedUp: []DocumentVersion{renamed(local, BackupName(local.Name, stamp))},
		}, nil
	default:
		return Resolution{
			Kept: []DocumentVersion{local, renamed(remote, SiblingName(remote.Name, stamp))},
		}, nil
	}
}

// BackupName returns "<name>.<stamp>.bak".
func BackupName(name, stamp string) string {
	return name + "." + stamp + ".bak"
}

// SiblingName inserts stamp before the extension: "manual-<stamp>.txt".
func SiblingName(name, stamp string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + stamp + ext
}

func renamed(v DocumentVersion, name string) DocumentVersion {
	v.Name = name
	return v
}
