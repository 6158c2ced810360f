// Package videocache is a read-through cache in front of the YouTube Data
// API. Entries live in Redis and fall back to process memory whenever Redis
// cannot be reached.
package videocache

import (
	"errors"
	"regexp"
)

var (
	ErrVideoNotFound  = errors.New("video not found")
	ErrInvalidVideoID = errors.New("invalid YouTube video id")
	ErrQueryRequired  = errors.New("search query required")
)

const (
	DefaultMaxResults = 10
	MaxResultsLimit   = 50
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ValidVideoID reports whether id has the shape of a YouTube video id.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ClampMaxResults bounds a requested page size to 1..50; zero or negative
// means the default.
func ClampMaxResults(n int) int {
	switch {
	case n <= 0:
		return DefaultMaxResults
	case n > MaxResultsLimit:
		return MaxResultsLimit
	default:
		return n
	}
}

type SearchResult struct {
	VideoID     string `json:"videoId"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail"`
	PublishedAt string `json:"publishedAt"`
	Description string `json:"description"`
}

type VideoDetails struct {
	Duration string   `json:"duration"`
	Views    uint64   `json:"views"`
	Likes    uint64   `json:"likes"`
	Comments uint64   `json:"comments"`
	Tags     []string `json:"tags"`
}
