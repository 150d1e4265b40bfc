package model

import "time"

// ViewPointer is the durable record of one display surface: which external
// message currently represents which tier, and at which page. MessageRef is
// cleared when the backing message is confirmed gone.
type ViewPointer struct {
	SurfaceKey  string
	Tier        Tier
	ChannelRef  string
	MessageRef  string
	CurrentPage int
	HasControls bool // interactive paging controls to validate during reconciliation
	UpdatedAt   time.Time
}

// Bound reports whether the pointer still references a live message.
func (p ViewPointer) Bound() bool {
	return p.MessageRef != ""
}

// RenderedPage is the immutable snapshot handed to a display publisher: one
// page of one tier, already ordered, with enough context to render a header.
type RenderedPage struct {
	SurfaceKey  string
	Tier        Tier
	Page        int // zero-based
	PageSize    int
	PageCount   int
	Total       int
	Entries     []Submission
	GeneratedAt time.Time
}
