package domain

import "time"

// FeedEntry is one normalized item from an RSS/Atom/JSON feed source.
type FeedEntry struct {
	Uniq      string    `json:"uniq"` // de-dup key derived from the title
	Type      string    `json:"type"` // source tab type (news, reddit, twitter, ...)
	Tag       string    `json:"tag"`  // short source label resolved per type
	Icon      string    `json:"icon"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Author    string    `json:"author"`
	Published time.Time `json:"published"`
	IsNew     bool      `json:"isnew"`
}

// Age reports how long ago the entry was published.
func (e FeedEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.Published)
}

// ClassifyNew applies the is-new rule: published after the viewer's
// session started and still inside the recency window.
func (e *FeedEntry) ClassifyNew(sessionStart, now time.Time, window time.Duration) {
	e.IsNew = e.Published.After(sessionStart) && now.Sub(e.Published) < window
}
