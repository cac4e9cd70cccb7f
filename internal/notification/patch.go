package notification

import "time"

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title     *string        `json:"title,omitempty"`
	Message   *string        `json:"message,omitempty"`
	Priority  *Priority      `json:"priority,omitempty"`
	IsRead    *bool          `json:"isRead,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`
	Actions   *[]Action      `json:"actions,omitempty"`
	Channels  *[]Channel     `json:"channels,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Metadata  *Metadata      `json:"metadata,omitempty"`
}

// Apply merges p into n. Data keys are merged; every other field replaces.
// ID, Type and CreatedAt are never touched.
func (p Patch) Apply(n *Notification) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Message != nil {
		n.Message = *p.Message
	}
	if p.Priority != nil {
		n.Priority = *p.Priority
	}
	if p.IsRead != nil {
		n.IsRead = *p.IsRead
	}
	if p.ExpiresAt != nil {
		exp := *p.ExpiresAt
		n.ExpiresAt = &exp
	}
	if p.Actions != nil {
		n.Actions = append([]Action(nil), (*p.Actions)...)
	}
	if p.Channels != nil {
		n.Channels = append([]Channel(nil), (*p.Channels)...)
	}
	if len(p.Data) > 0 {
		if n.Data == nil {
			n.Data = make(map[string]any, len(p.Data))
		}
		for k, v := range p.Data {
			n.Data[k] = v
		}
	}
	if p.Metadata != nil {
		md := *p.Metadata
		md.Tags = append([]string(nil), p.Metadata.Tags...)
		n.Metadata = &md
	}
}

// ReadPatch returns a patch that only sets the read state.
func ReadPatch(read bool) Patch {
	return Patch{IsRead: &read}
}
