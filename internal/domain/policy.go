// File: internal/domain/policy.go
package domain

// RoutePolicy declares how a route is guarded. The zero value is a
// protected route with no role requirement.
type RoutePolicy struct {
	Public bool
	Roles  []Role
}

// PublicRoute lets requests through without identity.
func PublicRoute() RoutePolicy {
	return RoutePolicy{Public: true}
}

// Authenticated requires a valid identity.
func Authenticated() RoutePolicy {
	return RoutePolicy{}
}

// RequireRoles requires a valid identity whose principal role satisfies
// at least one of roles.
func RequireRoles(roles ...Role) RoutePolicy {
	return RoutePolicy{Roles: roles}
}
