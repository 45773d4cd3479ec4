package model

import "time"

// Link is a destination with an optional short code. A nil ShortCode marks
// a QR-only asset that is never resolvable by redirect.
type Link struct {
	ID             int64     `json:"id"`
	OwnerID        string    `json:"owner_id"`
	DestinationURL string    `json:"destination_url"`
	ShortCode      *string   `json:"short_code,omitempty"`
	ClickCount     int64     `json:"click_count"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

func (l *Link) HasShortCode() bool {
	return l.ShortCode != nil && *l.ShortCode != ""
}

// Code returns the short code or an empty string for QR-only links.
func (l *Link) Code() string {
	if l.ShortCode == nil {
		return ""
	}
	return *l.ShortCode
}

// ClickEvent is one counted resolution. EventID makes recording idempotent.
type ClickEvent struct {
	EventID    string
	LinkID     int64
	OccurredAt time.Time
	Day        string // YYYY-MM-DD in the analytics time zone
	Referer    string
	UserAgent  string
}

type DailyClick struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type CreateLinkRequest struct {
	URL string `json:"url" binding:"required"`
}

type LinkResponse struct {
	ID             int64     `json:"id"`
	ShortCode      string    `json:"short_code,omitempty"`
	DestinationURL string    `json:"destination_url"`
	ShortURL       string    `json:"short_url,omitempty"`
	ClickCount     int64     `json:"click_count"`
	Active         bool      `json:"active"`
	QROnly         bool      `json:"qr_only"`
	CreatedAt      time.Time `json:"created_at"`
}

type LinkListResponse struct {
	Links  []LinkResponse `json:"links"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type AnalyticsResponse struct {
	LinkID int64        `json:"link_id"`
	Days   int          `json:"days"`
	Total  int64        `json:"total"`
	Series []DailyClick `json:"series"`
}
