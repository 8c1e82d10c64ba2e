package reltrack_test

import (
	"github.com/mickamy/reltrack"
)

// dirty mimics the field-level change tracking a host ORM gives its records.
type dirty struct {
	changes reltrack.Changes
}

func (d *dirty) Changes() reltrack.Changes {
	return d.changes
}

func (d *dirty) change(field string, from, to any) {
	if d.changes == nil {
		d.changes = reltrack.Changes{}
	}
	if p, ok := d.changes[field].(reltrack.Pair); ok {
		from = p.Old()
	}
	if from == to {
		delete(d.changes, field)
		return
	}
	d.changes[field] = reltrack.Pair{from, to}
}

func (d *dirty) saved() {
	d.changes = nil
}

type Comment struct {
	dirty
	Title    string
	EditedBy string
}

func (c *Comment) SetTitle(s string) {
	c.change("title", c.Title, s)
	c.Title = s
}

func (c *Comment) SetEditedBy(s string) {
	c.change("edited_by", c.EditedBy, s)
	c.EditedBy = s
}

type Meta struct {
	dirty
	Summary string
}

func (m *Meta) SetSummary(s string) {
	m.change("summary", m.Summary, s)
	m.Summary = s
}

type Tag struct {
	ID int
}

type Image struct {
	Code string
	URL  string
}

type Author struct {
	ID string
}

type Category struct {
	ID int
}

type Version struct {
	dirty
	Number int
}

type Post struct {
	dirty
	ID          int
	Title       string
	Comments    []Comment `reltrack:"embeds_many"`
	Meta        *Meta     `reltrack:"embeds_one"`
	TagIDs      []int     `json:"tag_ids"`
	Tags        []Tag     `reltrack:"has_many"`
	Cover       *Image    `reltrack:"has_one,key=code"`
	AuthorID    string
	Author      *Author    `reltrack:"belongs_to"`
	CategoryIDs []int      `json:"category_ids"`
	Categories  []Category `reltrack:"has_and_belongs_to_many,primary_key=_id"`
	Versions    []Version  `reltrack:"embeds_many"`
}

func (p *Post) SetTitle(s string) {
	p.change("title", p.Title, s)
	p.Title = s
}

// Note is nested two levels deep: Document -> Section -> Note.
type Note struct {
	dirty
	Text string
}

func (n *Note) SetText(s string) {
	n.change("text", n.Text, s)
	n.Text = s
}

type Section struct {
	dirty
	Heading string
	Notes   []Note `reltrack:"embeds_many"`

	tracker *reltrack.Tracker
}

func (s *Section) ChangesWithRelations() (reltrack.Changes, error) {
	return s.tracker.ChangesWithRelations()
}

type Document struct {
	dirty
	Section *Section `reltrack:"embeds_one"`
}

type Bare struct {
	Value int
}

type Plain struct {
	Child *Bare `reltrack:"embeds_one"`
}

// Widget names itself and exposes its relations without reflection.
type Widget struct {
	partIDs []any
	primary map[string]any
	owner   string
}

func (*Widget) ModelName() string { return "gadgets" }

func (w *Widget) Relation(name string) any {
	if name == "primary" && w.primary != nil {
		return w.primary
	}
	return nil
}

func (w *Widget) Attribute(name string) (any, bool) {
	switch name {
	case "owner_id":
		return w.owner, true
	case "part_ids":
		return w.partIDs, true
	}
	return nil, false
}

var widgetRelations = reltrack.WithRelations(
	reltrack.Relation{Name: "parts", Kind: reltrack.HasMany},
	reltrack.Relation{Name: "primary", Kind: reltrack.HasOne, Key: "sku"},
	reltrack.Relation{Name: "owner", Kind: reltrack.BelongsTo},
)
