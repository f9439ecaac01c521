package services

import (
	"context"
	"log"

	"korfarm-api/internal/adapters/persistence/repositories"
	"korfarm-api/internal/core/domain"
)

// RoleService derives a user's effective roles and org from membership and
// parent-link records. Read-only; safe to call on every request.
type RoleService struct {
	membershipRepo repositories.MembershipRepository
	parentLinkRepo repositories.ParentLinkRepository
}

// NewRoleService creates a new role service
func NewRoleService(
	membershipRepo repositories.MembershipRepository,
	parentLinkRepo repositories.ParentLinkRepository,
) *RoleService {
	return &RoleService{
		membershipRepo: membershipRepo,
		parentLinkRepo: parentLinkRepo,
	}
}

// ResolveRoles computes the effective role set for a user:
// distinct roles of active memberships, plus PARENT when an active
// parent-student link exists, defaulting to STUDENT when nothing matched.
// The parent-link lookup is best-effort: a store failure there must not
// block authentication.
func (s *RoleService) ResolveRoles(ctx context.Context, userID uint) ([]string, error) {
	// 1. Distinct roles of active memberships
	memberships, err := s.membershipRepo.FindByUserAndStatus(ctx, userID, domain.StatusActive)
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(memberships)+1)
	seen := make(map[string]bool)
	for _, m := range memberships {
		if m.Role != "" && !seen[m.Role] {
			seen[m.Role] = true
			roles = append(roles, m.Role)
		}
	}

	// 2. Active parent-side link adds PARENT (lookup failure is non-fatal)
	isParent, err := s.parentLinkRepo.ExistsActiveByParent(ctx, userID)
	if err != nil {
		log.Printf("⚠️  Parent link lookup failed for user %d: %v", userID, err)
	} else if isParent && !seen[domain.RoleParent] {
		roles = append(roles, domain.RoleParent)
	}

	// 3. Empty set defaults to STUDENT
	if len(roles) == 0 {
		roles = append(roles, domain.RoleStudent)
	}

	return roles, nil
}

// ResolveOrgID picks the org shown on the user's profile: the first active
// membership in stable order, else the first pending one so an unapproved
// user can still see which org they applied to, else empty.
func (s *RoleService) ResolveOrgID(ctx context.Context, userID uint) (string, error) {
	active, err := s.membershipRepo.FindByUserAndStatus(ctx, userID, domain.StatusActive)
	if err != nil {
		return "", err
	}
	if len(active) > 0 {
		return active[0].OrgID, nil
	}

	pending, err := s.membershipRepo.FindByUserAndStatus(ctx, userID, domain.StatusPending)
	if err != nil {
		return "", err
	}
	if len(pending) > 0 {
		return pending[0].OrgID, nil
	}

	return "", nil
}

// IsPendingApproval reports whether any pending membership exists,
// regardless of whether an active one also exists.
func (s *RoleService) IsPendingApproval(ctx context.Context, userID uint) (bool, error) {
	return s.membershipRepo.ExistsByUserAndStatus(ctx, userID, domain.StatusPending)
}
