// Package models defines the GORM models persisted by the Snapshelf backend.
package models

import "github.com/google/uuid"

// Visibility controls who can see a post or a profile.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
)

// Valid reports whether v is a known visibility value.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityFriends
}

func generateUUID() string {
	return uuid.New().String()
}
