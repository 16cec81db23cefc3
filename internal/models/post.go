// Package models contains the domain model and API error types.
package models

import "time"

// Post is a blog post. ID, CreatedAt and UpdatedAt are assigned by the store.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Author    string    `gorm:"size:255;not null" json:"author"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// TableName returns the database table name for Post.
func (Post) TableName() string {
	return "posts"
}

// PostFields is a partial set of a post's mutable fields. Nil fields are left unchanged.
type PostFields struct {
	Title   *string
	Content *string
	Author  *string
}

// Empty reports whether no field is supplied.
func (f PostFields) Empty() bool {
	return f.Title == nil && f.Content == nil && f.Author == nil
}
