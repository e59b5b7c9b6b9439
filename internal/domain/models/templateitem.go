// internal/domain/models/templateitem.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Item classifications.
const (
	ClassScaled      = "scaled"
	ClassText        = "text"
	ClassHeader      = "header"
	ClassBlockParent = "block_parent"
	ClassBlockChild  = "block_child"
)

// Item categories.
const (
	CategoryCourse     = "course"
	CategoryInstructor = "instructor"
)

// TemplateItem is one question (or header/block) of a reusable template.
//
// DisplayOrder is unique among top-level items; block children are ordered
// independently under their parent and share the parent's scale.
type TemplateItem struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	TemplateID     primitive.ObjectID  `bson:"template_id" json:"template_id"`
	Text           string              `bson:"text" json:"text"`
	Classification string              `bson:"classification" json:"classification"`
	ScaleID        *primitive.ObjectID `bson:"scale_id,omitempty" json:"scale_id,omitempty"`
	Category       string              `bson:"category" json:"category"`
	DisplayOrder   int                 `bson:"display_order" json:"display_order"`
	UsesNA         bool                `bson:"uses_na" json:"uses_na"`
	BlockParentID  *primitive.ObjectID `bson:"block_parent_id,omitempty" json:"block_parent_id,omitempty"`
}

// IsBlockChild reports whether the item is nested under a block parent.
func (t TemplateItem) IsBlockChild() bool {
	return t.Classification == ClassBlockChild || t.BlockParentID != nil
}

// Scale is an ordered list of option labels for scaled items.
type Scale struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Title   string             `bson:"title" json:"title"`
	Options []string           `bson:"options" json:"options"`
	Ideal   string             `bson:"ideal,omitempty" json:"ideal,omitempty"` // low | high | mid | outside | ""
}
