package notification

// Display is the view-model form of a notification handed to surfaces.
// TimeAgo, HasActions and Expired are derived at render time and never stored.
type Display struct {
	Notification
	TimeAgo    string `json:"timeAgo"`
	HasActions bool   `json:"hasActions"`
	Expired    bool   `json:"expired"`
}
