package model

// ContentType is the taxonomy level of a Content node.
type ContentType string

const (
	ContentArea     ContentType = "area"
	ContentUnit     ContentType = "unidade"
	ContentTopic    ContentType = "topico"
	ContentSubtopic ContentType = "subtopico"
	ContentCategory ContentType = "categoria"
)

// ContentTypes lists the taxonomy levels from root to leaf.
var ContentTypes = []ContentType{
	ContentArea,
	ContentUnit,
	ContentTopic,
	ContentSubtopic,
	ContentCategory,
}

// Depth returns the level index (area is 0) or -1 for an unknown type.
func (t ContentType) Depth() int {
	for i, ct := range ContentTypes {
		if ct == t {
			return i
		}
	}
	return -1
}

func (t ContentType) Valid() bool {
	return t.Depth() >= 0
}

// ParentType returns the type a parent node must have. Areas have no parent.
func (t ContentType) ParentType() (ContentType, bool) {
	d := t.Depth()
	if d <= 0 {
		return "", false
	}
	return ContentTypes[d-1], true
}

// Content is a node of the area > unidade > topico > subtopico > categoria tree.
// swagger:model Content
type Content struct {
	BaseModel
	Name     string      `gorm:"column:nome;size:100;not null" json:"nome"`
	Type     ContentType `gorm:"column:tipo;size:20;not null;index" json:"tipo"`
	ParentID *uint       `gorm:"column:pai_id;index" json:"pai_id"`
	Parent   *Content    `gorm:"foreignKey:ParentID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (Content) TableName() string {
	return "conteudos"
}

// ContentRef is the nested representation of a taxonomy node in question payloads.
type ContentRef struct {
	ID       uint        `json:"id"`
	Name     string      `json:"nome"`
	Type     ContentType `json:"tipo"`
	ParentID *uint       `json:"pai_id"`
}

func (c *Content) Ref() *ContentRef {
	if c == nil {
		return nil
	}
	return &ContentRef{ID: c.ID, Name: c.Name, Type: c.Type, ParentID: c.ParentID}
}
