/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds record types shared by backend and integration
// tests.
package testmodels

import (
	"time"

	"github.com/suparena/softdelete"
)

// Article is a soft-deletable record.
type Article struct {

	// Identifier. Left empty, the backend generates one of its native type.
	ID any `bson:"_id,omitempty"`

	// Title of the article.
	// Required: true
	Title string `bson:"title"`

	// Publication status, e.g. draft or active.
	Status string `bson:"status,omitempty"`

	// Author display name.
	Author string `bson:"author,omitempty"`

	// Timestamp when the article was created.
	// Required: true
	// Format: date-time
	CreatedAt time.Time `bson:"createdAt"`

	softdelete.Fields `bson:",inline"`
}

// NewArticle returns an article created now.
func NewArticle(title, status string) Article {
	return Article{
		Title:     title,
		Status:    status,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}
