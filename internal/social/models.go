package social

import (
	"encoding/json"
	"time"
)

// Platform identifies a social network a post can target.
type Platform string

const (
	Facebook  Platform = "facebook"
	Instagram Platform = "instagram"
	Twitter   Platform = "twitter"
	LinkedIn  Platform = "linkedin"
	YouTube   Platform = "youtube"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{Facebook, Instagram, Twitter, LinkedIn, YouTube}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
	StatusFailed    PostStatus = "failed"
	StatusPending   PostStatus = "pending"
)

// Valid reports whether s is a known post status.
func (s PostStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished, StatusFailed, StatusPending:
		return true
	}
	return false
}

// User is the signed-in account.
type User struct {
	ID     ID     `json:"id,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Post is a piece of content scheduled against one or more platforms.
type Post struct {
	ID            ID         `json:"id,omitempty"`
	Content       string     `json:"content"`
	Platforms     []Platform `json:"platforms"`
	Status        PostStatus `json:"status"`
	ScheduledDate string     `json:"scheduledDate,omitempty"` // YYYY-MM-DD
	ScheduledTime string     `json:"scheduledTime,omitempty"` // HH:MM
	Media         string     `json:"media,omitempty"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	UpdatedAt     string     `json:"updatedAt,omitempty"`
}

// ConnectedAccount is a platform account linked through OAuth.
type ConnectedAccount struct {
	ID          ID       `json:"id"`
	Platform    Platform `json:"platform"`
	Username    string   `json:"username"`
	ExternalID  string   `json:"externalId,omitempty"`
	ConnectedAt string   `json:"connectedAt,omitempty"`
	Verified    bool     `json:"verified,omitempty"`
	Followers   int64    `json:"followers,omitempty"`
}

// AccountFor returns the first account connected for platform, or nil.
func AccountFor(accounts []ConnectedAccount, platform Platform) *ConnectedAccount {
	for i := range accounts {
		if accounts[i].Platform == platform {
			return &accounts[i]
		}
	}
	return nil
}

// AccountStats holds audience numbers for one connected account.
type AccountStats struct {
	Followers      int64   `json:"followers"`
	Following      int64   `json:"following"`
	Posts          int64   `json:"posts"`
	EngagementRate float64 `json:"engagementRate"`
}

// File is an uploaded media asset.
type File struct {
	ID         ID     `json:"id,omitempty"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	URL        string `json:"url,omitempty"`
	UploadedAt string `json:"uploadedAt,omitempty"`
}

// Analytics is the range-scoped analytics report.
type Analytics struct {
	Overview           AnalyticsOverview   `json:"overview"`
	PlatformBreakdown  []PlatformAnalytics `json:"platformBreakdown,omitempty"`
	TimeSeriesData     []DataPoint         `json:"timeSeriesData,omitempty"`
	TopPosts           []TopPost           `json:"topPosts,omitempty"`
	Demographics       json.RawMessage     `json:"demographics,omitempty"`
	Insights           json.RawMessage     `json:"insights,omitempty"`
	CompetitorAnalysis json.RawMessage     `json:"competitorAnalysis,omitempty"`
}

type AnalyticsOverview struct {
	TotalReach      int64   `json:"totalReach"`
	TotalEngagement int64   `json:"totalEngagement"`
	EngagementRate  float64 `json:"engagementRate"`
}

type PlatformAnalytics struct {
	Platform       Platform `json:"platform"`
	Followers      int64    `json:"followers"`
	Reach          int64    `json:"reach"`
	Engagement     int64    `json:"engagement"`
	EngagementRate float64  `json:"engagementRate"`
	Posts          int64    `json:"posts"`
}

type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type TopPost struct {
	ID             ID       `json:"id"`
	Platform       Platform `json:"platform"`
	Content        string   `json:"content"`
	PostedAt       string   `json:"postedAt,omitempty"`
	Reach          int64    `json:"reach"`
	Likes          int64    `json:"likes"`
	Comments       int64    `json:"comments"`
	Shares         int64    `json:"shares"`
	EngagementRate float64  `json:"engagementRate"`
}

// AnalyticsEvent is a single appended analytics record.
type AnalyticsEvent struct {
	Type      string         `json:"type"`
	PostID    ID             `json:"postId,omitempty"`
	Platforms []Platform     `json:"platforms,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
