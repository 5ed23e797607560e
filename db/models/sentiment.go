package models

// SentimentFields holds the VADER scores attached to posts and comments.
// Embedded without a prefix so the column names match the legacy schema.
type SentimentFields struct {
	Positive   float64 `gorm:"column:positive" json:"positive"`
	Neutral    float64 `gorm:"column:neutral" json:"neutral"`
	Negative   float64 `gorm:"column:negative" json:"negative"`
	Compound   float64 `gorm:"column:compound;index" json:"compound"`
	Label      string  `gorm:"column:sentiment;index" json:"sentiment"`
	Bucket     string  `gorm:"column:sentiment_bucket" json:"sentiment_bucket"`
	TextLength int     `gorm:"column:text_length" json:"text_length"`
}
