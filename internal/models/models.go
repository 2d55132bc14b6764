// Package models defines the Entry record persisted by the storage engine
// and exchanged through the VFS coordinator.
package models

import (
	"fmt"
	"time"
)

// Kind tags an Entry as a file or a directory. The tag is closed: every
// switch over it must handle both values.
type Kind int8

const (
	KindDirectory Kind = iota
	KindFile
)

const (
	kindDirectoryName = "directory"
	kindFileName      = "file"
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return kindDirectoryName
	case KindFile:
		return kindFileName
	}
	return fmt.Sprintf("Kind(%d)", int8(k))
}

// MarshalJSON serializes the kind as its string tag.
func (k Kind) MarshalJSON() ([]byte, error) {
	switch k {
	case KindDirectory, KindFile:
		return []byte(`"` + k.String() + `"`), nil
	}
	return nil, fmt.Errorf("unknown entry kind %d", int8(k))
}

// UnmarshalJSON accepts the string tags produced by MarshalJSON.
func (k *Kind) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"` + kindDirectoryName + `"`:
		*k = KindDirectory
	case `"` + kindFileName + `"`:
		*k = KindFile
	default:
		return fmt.Errorf("unknown entry kind %s", data)
	}
	return nil
}

// Permissions are the per-entry access flags.
type Permissions struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool `json:"execute"`
}

// DefaultPermissions returns the flags new entries start with.
func DefaultPermissions() Permissions {
	return Permissions{Read: true, Write: true, Execute: false}
}

// Attributes are the Windows-style entry attributes.
type Attributes struct {
	Hidden   bool `json:"hidden"`
	System   bool `json:"system"`
	ReadOnly bool `json:"readonly"`
	Archive  bool `json:"archive"`
}

// Entry is a single record in the namespace: a file or a directory,
// distinguished by Kind. File-only and directory-only fields are zero for
// the other kind.
//
// Timestamps serialize as RFC 3339 strings; Content serializes as base64.
type Entry struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	ParentID string `json:"parentId,omitempty"` // empty only for the root

	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Accessed time.Time `json:"accessed"`

	Permissions Permissions `json:"permissions"`
	Attributes  Attributes  `json:"attributes"`

	// File fields.
	Content  []byte `json:"content,omitempty"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType,omitempty"`

	// Directory field: ids of the children. Membership matters, order does
	// not.
	Children []string `json:"children,omitempty"`
}

// IsDirectory reports whether the entry is a directory.
func (e *Entry) IsDirectory() bool {
	return e.Kind == KindDirectory
}

// IsFile reports whether the entry is a file.
func (e *Entry) IsFile() bool {
	return e.Kind == KindFile
}

// Clone returns a deep copy, so snapshots handed across the cache boundary
// never alias stored state.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	if e.Content != nil {
		out.Content = make([]byte, len(e.Content))
		copy(out.Content, e.Content)
	}
	if e.Children != nil {
		out.Children = make([]string, len(e.Children))
		copy(out.Children, e.Children)
	}
	return &out
}

// AddChild appends id to the children set if absent.
func (e *Entry) AddChild(id string) {
	if e.HasChild(id) {
		return
	}
	e.Children = append(e.Children, id)
}

// RemoveChild deletes id from the children set.
func (e *Entry) RemoveChild(id string) {
	for i, c := range e.Children {
		if c == id {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return
		}
	}
}

// HasChild reports whether id is in the children set.
func (e *Entry) HasChild(id string) bool {
	for _, c := range e.Children {
		if c == id {
			return true
		}
	}
	return false
}

// SetContent replaces the file content and recomputes the size.
func (e *Entry) SetContent(content []byte) {
	e.Content = content
	e.Size = int64(len(content))
}
