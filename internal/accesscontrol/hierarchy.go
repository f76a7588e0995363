// File: internal/accesscontrol/hierarchy.go
package accesscontrol

import (
	"errors"
	"fmt"

	"identity_backend/internal/domain"
)

// Hierarchy is a partial order over roles built from chains ordered from
// least to most privileged. It is immutable once built.
type Hierarchy struct {
	chains []map[domain.Role]int
}

// New builds a hierarchy from chains. Each chain keeps its own priorities,
// numbered by a single counter that runs across all chains.
func New(chains ...[]domain.Role) (*Hierarchy, error) {
	if len(chains) == 0 {
		return nil, errors.New("accesscontrol: at least one role chain is required")
	}

	h := &Hierarchy{chains: make([]map[domain.Role]int, 0, len(chains))}
	counter := 0
	for i, chain := range chains {
		if len(chain) == 0 {
			return nil, fmt.Errorf("accesscontrol: chain %d is empty", i)
		}
		priorities := make(map[domain.Role]int, len(chain))
		for _, role := range chain {
			if role == "" {
				return nil, fmt.Errorf("accesscontrol: chain %d contains an empty role", i)
			}
			if _, dup := priorities[role]; dup {
				return nil, fmt.Errorf("accesscontrol: role %q repeated in chain %d", role, i)
			}
			counter++
			priorities[role] = counter
		}
		h.chains = append(h.chains, priorities)
	}
	return h, nil
}

// Default is User < Member and User < Employee < Admin.
func Default() *Hierarchy {
	h, err := New(
		[]domain.Role{domain.RoleUser, domain.RoleMember},
		[]domain.Role{domain.RoleUser, domain.RoleEmployee, domain.RoleAdmin},
	)
	if err != nil {
		panic(err)
	}
	return h
}

// IsAuthorized reports whether some chain holds both roles with current
// ranked at least as high as required. Unknown roles never match.
func (h *Hierarchy) IsAuthorized(current, required domain.Role) bool {
	for _, chain := range h.chains {
		pc, ok := chain[current]
		if !ok {
			continue
		}
		pr, ok := chain[required]
		if !ok {
			continue
		}
		if pc >= pr {
			return true
		}
	}
	return false
}
