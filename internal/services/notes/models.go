package notes

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Note represents a rich-text note in the system.
// Content is stored as the editor's formatted markup and is treated as
// an opaque payload by every layer below the UI.
type Note struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id,omitempty" example:"683cdb8aa96ad71e8e075bd1"`
	OwnerID   bson.ObjectID `bson:"owner_id" json:"owner_id" example:"683cdb8aa96ad71e8e075bd0"`
	Title     string        `bson:"title" json:"title" validate:"required" example:"Meeting Notes"`
	Content   string        `bson:"content" json:"content" example:"<p>Remember to discuss the quarterly targets</p>"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// NotePatch represents the fields of a sparse note update.
// A nil field is left untouched by the write.
type NotePatch struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,min=1" example:"Updated Meeting Notes"`
	Content *string `json:"content,omitempty" example:"<p>Updated content for the meeting</p>"`
}

// Empty reports whether the patch carries no fields at all.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}
