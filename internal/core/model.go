package core

import "time"

// Message is the unified structure fed to the report builder (and usable
// for the SQLite archive sink). The export pass requires a sequence that
// is non-decreasing by SentAt; the builder does not re-sort.
type Message struct {
	ID           string // service-assigned id, unique per chat
	Author       string
	AuthorAvatar string // optional profile picture URL
	ChatName     string
	IsGroup      bool
	SentAt       time.Time
	Text         string // optional; empty means an attachment-only message
}

// Chat summarizes one group or direct-message thread as returned by the
// listing and detail endpoints.
type Chat struct {
	ID          string
	Name        string
	IsGroup     bool
	ImageURL    string // optional
	Description string // groups only
	LastUsed    time.Time
	OtherUserID string // DMs only
}
