package notification

// Type identifies what happened. The set is closed; unknown values are
// rejected by Validate.
type Type string

const (
	TypeAuctionBid       Type = "auction_bid"
	TypeAuctionOutbid    Type = "auction_outbid"
	TypeAuctionWon       Type = "auction_won"
	TypeAuctionEnding    Type = "auction_ending"
	TypeMaterialVerified Type = "material_verified"
	TypeMaterialRejected Type = "material_rejected"
	TypeOrderPlaced      Type = "order_placed"
	TypeOrderShipped     Type = "order_shipped"
	TypeDeliveryUpdate   Type = "delivery_update"
	TypePaymentReceived  Type = "payment_received"
	TypePaymentFailed    Type = "payment_failed"
	TypeMessageReceived  Type = "message_received"
	TypePriceAlert       Type = "price_alert"
	TypeSecurityAlert    Type = "security_alert"
	TypeSystemUpdate     Type = "system_update"
)

var allTypes = []Type{
	TypeAuctionBid,
	TypeAuctionOutbid,
	TypeAuctionWon,
	TypeAuctionEnding,
	TypeMaterialVerified,
	TypeMaterialRejected,
	TypeOrderPlaced,
	TypeOrderShipped,
	TypeDeliveryUpdate,
	TypePaymentReceived,
	TypePaymentFailed,
	TypeMessageReceived,
	TypePriceAlert,
	TypeSecurityAlert,
	TypeSystemUpdate,
}

// AllTypes returns every notification type in declaration order.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Priority is the urgency tier. Priorities are totally ordered by Rank.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AllPriorities returns the priorities from lowest to highest.
func AllPriorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
}

// Rank returns 1 (low) through 4 (urgent), or 0 for an unknown priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	default:
		return 0
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// AtLeast reports whether p is as urgent as other or more.
func (p Priority) AtLeast(other Priority) bool {
	return p.Rank() >= other.Rank()
}

// Channel is a delivery surface.
type Channel string

const (
	ChannelInApp    Channel = "in_app"
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// AllChannels returns every channel in declaration order.
func AllChannels() []Channel {
	return []Channel{ChannelInApp, ChannelPush, ChannelEmail, ChannelSMS, ChannelWhatsApp}
}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelInApp, ChannelPush, ChannelEmail, ChannelSMS, ChannelWhatsApp:
		return true
	default:
		return false
	}
}

// ActionStyle controls how an action button is presented.
type ActionStyle string

const (
	ActionPrimary   ActionStyle = "primary"
	ActionSecondary ActionStyle = "secondary"
	ActionDanger    ActionStyle = "danger"
)
