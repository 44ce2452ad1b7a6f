package models

import (
	"time"

	"gorm.io/gorm"
)

// Post document field names.
const (
	FieldPostID       = "postId"
	FieldUserID       = "userId"
	FieldTitle        = "title"
	FieldContent      = "content"
	FieldLikeCount    = "likeCount"
	FieldDislikeCount = "dislikeCount"
	FieldCreatedAt    = "createdAt"
)

// ViewLikes is the named view exposing a post's reaction counters.
const ViewLikes = "likes"

// Post is a user-authored post with reaction counters.
type Post struct {
	ID           string    `gorm:"primaryKey;size:64" bson:"_id" json:"postId"`
	UserID       string    `gorm:"size:64;index;not null" bson:"userId" json:"userId"`
	Title        string    `gorm:"type:text;not null" bson:"title" json:"title"`
	Content      string    `gorm:"type:text;not null" bson:"content" json:"content"`
	LikeCount    int64     `gorm:"not null;default:0" bson:"likeCount" json:"likeCount"`
	DislikeCount int64     `gorm:"not null;default:0" bson:"dislikeCount" json:"dislikeCount"`
	CreatedAt    time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
}

// TableName pins the table to the collection name used by MongoDB.
func (Post) TableName() string { return "posts" }

// BeforeCreate ensures identifiers are generated automatically.
func (p *Post) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = Now()
	}
	return nil
}

// EntityID implements Entity.
func (p *Post) EntityID() string { return p.ID }

// Document implements Entity.
func (p *Post) Document() Document {
	return Document{
		FieldPostID:       p.ID,
		FieldUserID:       p.UserID,
		FieldTitle:        p.Title,
		FieldContent:      p.Content,
		FieldLikeCount:    p.LikeCount,
		FieldDislikeCount: p.DislikeCount,
		FieldCreatedAt:    formatTime(p.CreatedAt),
	}
}

// PostKind describes posts.
var PostKind = register(&Kind{
	Name:       "post",
	Collection: "posts",
	IDField:    FieldPostID,
	SortField:  FieldCreatedAt,
	Public:     []string{FieldPostID, FieldTitle, FieldContent},
	Counters:   []string{FieldLikeCount, FieldDislikeCount},
	Views: map[string][]string{
		ViewLikes: {FieldPostID, FieldLikeCount, FieldDislikeCount},
	},
	columns: map[string]string{
		FieldPostID:       "id",
		FieldUserID:       "user_id",
		FieldTitle:        "title",
		FieldContent:      "content",
		FieldLikeCount:    "like_count",
		FieldDislikeCount: "dislike_count",
		FieldCreatedAt:    "created_at",
	},
	newEntity: func() Entity { return &Post{} },
})
