package domain

// Role is the caller's standing in the portal.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
	// RoleSystem is used for transitions driven by integrations such as
	// payment confirmation.
	RoleSystem Role = "system"
)

// Actor identifies who is performing an operation.
type Actor struct {
	UID  string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// Owns reports whether the actor is the client owning p.
func (a Actor) Owns(p *Project) bool {
	return p != nil && a.UID != "" && a.UID == p.OwnerUID
}

// SystemActor returns the actor used by integrations.
func SystemActor(name string) Actor {
	return Actor{UID: "system:" + name, Role: RoleSystem}
}
