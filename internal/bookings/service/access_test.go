package service

import (
	"testing"

	"gatherly/pkg/model"
)

func TestResolve(t *testing.T) {
	booking := &model.Booking{UserID: "alice", HostID: "host-1"}

	tests := []struct {
		name  string
		actor model.Actor
		want  Capability
	}{
		{"owner", model.Actor{ID: "alice", Role: model.RoleUser}, CapabilityOwner},
		{"host", model.Actor{ID: "host-1", Role: model.RoleUser}, CapabilityHost},
		{"admin", model.Actor{ID: "root", Role: model.RoleAdmin}, CapabilityAdmin},
		{"admin who owns the booking", model.Actor{ID: "alice", Role: model.RoleAdmin}, CapabilityAdmin},
		{"stranger", model.Actor{ID: "bob", Role: model.RoleUser}, CapabilityNone},
		{"anonymous", model.Actor{}, CapabilityNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.actor, booking); got != tt.want {
				t.Errorf("Resolve() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCapabilityCanManage(t *testing.T) {
	for c, want := range map[Capability]bool{
		CapabilityNone:  false,
		CapabilityOwner: false,
		CapabilityHost:  true,
		CapabilityAdmin: true,
	} {
		if got := c.canManage(); got != want {
			t.Errorf("%s.canManage() = %v, want %v", c, got, want)
		}
	}
}
