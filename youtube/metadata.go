package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// VideoDetails is the subset of video metadata forwarded with analysis
// results. It is filled from the Data API when a key is configured, otherwise
// from yt-dlp.
type VideoDetails struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
	ChannelTitle string    `json:"channel_title,omitempty"`
	PublishedAt  time.Time `json:"published_at,omitzero"`
	// Duration is the video length in seconds.
	Duration     int      `json:"duration"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
	Tags         []string `json:"tags,omitempty"`
	// Source is "data-api" or "yt-dlp".
	Source string `json:"source"`
}

// ytdlpInfo mirrors the fields of yt-dlp -J output that VideoDetails uses.
type ytdlpInfo struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Duration     float64  `json:"duration"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	CommentCount int64    `json:"comment_count"`
	UploadDate   string   `json:"upload_date"`
	Channel      string   `json:"channel"`
	Uploader     string   `json:"uploader"`
	ChannelID    string   `json:"channel_id"`
	Tags         []string `json:"tags"`
}

// Metadata fetches video details with yt-dlp -J.
func (y *Ytdlp) Metadata(ctx context.Context, videoURL string) (*VideoDetails, error) {
	out, err := y.run(ctx, "metadata", []string{"-J", "--no-warnings", "--no-playlist", NormalizeURL(videoURL)})
	if err != nil {
		return nil, err
	}
	return parseYtdlpInfo(out)
}

func parseYtdlpInfo(data []byte) (*VideoDetails, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse metadata JSON: %w", err)
	}
	if info.ID == "" || info.Title == "" {
		return nil, fmt.Errorf("invalid metadata: missing id or title")
	}

	d := &VideoDetails{
		ID:           info.ID,
		Title:        info.Title,
		Description:  info.Description,
		ChannelID:    info.ChannelID,
		ChannelTitle: info.Channel,
		Duration:     int(info.Duration),
		ViewCount:    info.ViewCount,
		LikeCount:    info.LikeCount,
		CommentCount: info.CommentCount,
		Tags:         info.Tags,
		Source:       "yt-dlp",
	}
	if d.ChannelTitle == "" {
		d.ChannelTitle = info.Uploader
	}
	if t, err := time.Parse("20060102", info.UploadDate); err == nil {
		d.PublishedAt = t
	}
	return d, nil
}
