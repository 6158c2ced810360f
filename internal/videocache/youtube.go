package videocache

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Fetcher loads video metadata from the upstream API.
type Fetcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
	Video(ctx context.Context, id string) (*VideoDetails, error)
}

// YouTubeFetcher calls the YouTube Data API v3 with an API key.
type YouTubeFetcher struct {
	svc *youtube.Service
}

func NewYouTubeFetcher(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube: api key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &YouTubeFetcher{svc: svc}, nil
}

func (f *YouTubeFetcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	resp, err := f.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	results := make([]SearchResult, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		results = append(results, toSearchResult(item))
	}
	return results, nil
}

func (f *YouTubeFetcher) Video(ctx context.Context, id string) (*VideoDetails, error) {
	resp, err := f.svc.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(id).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube video details: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0] == nil {
		return nil, ErrVideoNotFound
	}
	return toVideoDetails(resp.Items[0]), nil
}

func toSearchResult(item *youtube.SearchResult) SearchResult {
	r := SearchResult{VideoID: item.Id.VideoId}
	if sn := item.Snippet; sn != nil {
		r.Title = sn.Title
		r.Channel = sn.ChannelTitle
		r.Description = sn.Description
		r.PublishedAt = normalizeTimestamp(sn.PublishedAt)
		if sn.Thumbnails != nil && sn.Thumbnails.Medium != nil {
			r.Thumbnail = sn.Thumbnails.Medium.Url
		}
	}
	return r
}

func toVideoDetails(v *youtube.Video) *VideoDetails {
	d := &VideoDetails{Tags: []string{}}
	if v.ContentDetails != nil {
		d.Duration = v.ContentDetails.Duration
	}
	if st := v.Statistics; st != nil {
		d.Views = st.ViewCount
		d.Likes = st.LikeCount
		d.Comments = st.CommentCount
	}
	if v.Snippet != nil && len(v.Snippet.Tags) > 0 {
		d.Tags = v.Snippet.Tags
	}
	return d
}

func normalizeTimestamp(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.UTC().Format(time.RFC3339)
}
