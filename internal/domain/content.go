package domain

import "time"

type Article struct {
	ID              string    `json:"id" yaml:"id"`
	Title           string    `json:"title" yaml:"title"`
	Description     string    `json:"description" yaml:"description"`
	Content         string    `json:"content" yaml:"content"`
	Author          string    `json:"author" yaml:"author"`
	CategoryID      string    `json:"category_id" yaml:"category_id"`
	Tags            []string  `json:"tags" yaml:"tags"`
	ThumbnailURL    string    `json:"thumbnail_url" yaml:"thumbnail_url"`
	PublishedDate   time.Time `json:"published_date" yaml:"published_date"`
	ReadTimeMinutes int       `json:"read_time_minutes" yaml:"read_time_minutes"`
}

const (
	ContentNotStarted = "not_started"
	ContentStarted    = "started"
	ContentCompleted  = "completed"
)

type UserContentProgress struct {
	UserID             string    `json:"user_id"`
	ContentID          string    `json:"content_id"`
	Status             string    `json:"status"`
	ProgressPercentage int       `json:"progress_percentage"`
	LastAccessed       time.Time `json:"last_accessed"`
}
