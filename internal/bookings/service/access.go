package service

import "gatherly/pkg/model"

// Capability is what an actor may do with a booking.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityHost
	CapabilityOwner
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityHost:
		return "host"
	case CapabilityOwner:
		return "owner"
	case CapabilityAdmin:
		return "admin"
	default:
		return "none"
	}
}

// Resolve returns the strongest capability the actor holds on booking.
func Resolve(actor model.Actor, booking *model.Booking) Capability {
	switch {
	case actor.ID == "":
		return CapabilityNone
	case actor.IsAdmin():
		return CapabilityAdmin
	case booking.UserID == actor.ID:
		return CapabilityOwner
	case booking.HostID == actor.ID:
		return CapabilityHost
	default:
		return CapabilityNone
	}
}

func (c Capability) canManage() bool {
	return c == CapabilityHost || c == CapabilityAdmin
}
