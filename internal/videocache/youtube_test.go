package videocache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func TestToSearchResult(t *testing.T) {
	r := toSearchResult(&youtube.SearchResult{
		Id: &youtube.ResourceId{VideoId: "dQw4w9WgXcQ"},
		Snippet: &youtube.SearchResultSnippet{
			Title:        "Title",
			ChannelTitle: "Channel",
			Description:  "Desc",
			PublishedAt:  "2009-10-25T06:57:33+02:00",
			Thumbnails: &youtube.ThumbnailDetails{
				Medium: &youtube.Thumbnail{Url: "https://i.ytimg.com/mq.jpg"},
			},
		},
	})

	assert.Equal(t, SearchResult{
		VideoID:     "dQw4w9WgXcQ",
		Title:       "Title",
		Channel:     "Channel",
		Thumbnail:   "https://i.ytimg.com/mq.jpg",
		PublishedAt: "2009-10-25T04:57:33Z",
		Description: "Desc",
	}, r)
}

func TestToVideoDetails(t *testing.T) {
	d := toVideoDetails(&youtube.Video{
		ContentDetails: &youtube.VideoContentDetails{Duration: "PT4M"},
		Statistics:     &youtube.VideoStatistics{ViewCount: 100, LikeCount: 5, CommentCount: 2},
	})
	assert.Equal(t, "PT4M", d.Duration)
	assert.Equal(t, uint64(100), d.Views)
	assert.Equal(t, []string{}, d.Tags)
}

func TestYouTubeFetcher_AgainstFakeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			assert.Equal(t, "video", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(`{"items":[{"id":{"kind":"youtube#video","videoId":"dQw4w9WgXcQ"},"snippet":{"title":"Never"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			_, _ = w.Write([]byte(`{"items":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewYouTubeFetcher(context.Background(), "test-key",
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)

	results, err := f.Search(context.Background(), "never", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Never", results[0].Title)

	_, err = f.Video(context.Background(), "dQw4w9WgXcQ")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestNewYouTubeFetcher_RequiresKey(t *testing.T) {
	_, err := NewYouTubeFetcher(context.Background(), "")
	assert.Error(t, err)
}
