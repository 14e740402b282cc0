// Package assignment resolves the counterparty reviewer for a new request
// according to a fixed policy table, with administrator override always
// available as a side channel.
package assignment

import (
	"context"
	"errors"
	"time"

	"driveflow/internal/identity"
	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
	dErrors "driveflow/pkg/domain-errors"
	"driveflow/pkg/platform/sentinel"
)

// Context carries the creation-time hints the policy consults, all optional.
type Context struct {
	// ReviewerID is an explicit reviewer named at creation; it wins over
	// every policy row.
	ReviewerID *domain.PartyID
	// CoordinatorID is the coordinator explicitly named by the creator.
	CoordinatorID *domain.PartyID
	// BeneficiaryID is the stakeholder a coordinator is acting on behalf
	// of. Presence makes the beneficiary the reviewer of record.
	BeneficiaryID *domain.PartyID
}

// Service applies the assignment policy table. Stateless except for
// directory reads; safe for concurrent use.
type Service struct {
	directory identity.Directory
}

func NewService(directory identity.Directory) *Service {
	return &Service{directory: directory}
}

// reviewerRoleFor is the policy table: creator role → reviewer role. Every
// row permits administrator override.
func reviewerRoleFor(creator domain.Role) domain.Role {
	switch creator {
	case domain.RoleAdministrator:
		return domain.RoleCoordinator
	case domain.RoleCoordinator:
		return domain.RoleAdministrator
	default:
		return domain.RoleCoordinator
	}
}

// AssignReviewer deterministically resolves the reviewer of record for a new
// request. Resolution order: explicit reviewer in context, then the named
// beneficiary (coordinator-on-behalf-of), then the creator's configured
// counterpart, then the lowest-ID available identity of the target role,
// then the administrator fallback for stakeholder creators. Exhaustion is a
// hard failure: a request must never be created without a reviewer.
func (s *Service) AssignReviewer(ctx context.Context, creatorRole domain.Role, creatorID domain.PartyID, actx Context) (workflow.ReviewerAssignment, error) {
	role := domain.NormalizeRole(string(creatorRole))
	if !role.IsCanonical() {
		return workflow.ReviewerAssignment{}, dErrors.New(dErrors.CodeInvalidInput, "creator role is not a known tier")
	}

	// Explicit reviewer named at creation wins over the policy table.
	if actx.ReviewerID != nil {
		return s.assignmentFor(ctx, *actx.ReviewerID)
	}

	// A coordinator acting on behalf of a named stakeholder: the
	// beneficiary becomes the reviewer of record, not the administrator.
	if role == domain.RoleCoordinator && actx.BeneficiaryID != nil {
		reviewer, err := s.assignmentFor(ctx, *actx.BeneficiaryID)
		if err != nil {
			return workflow.ReviewerAssignment{}, err
		}
		if reviewer.Role == domain.RoleStakeholder {
			return reviewer, nil
		}
		// Beneficiary resolved to another tier; fall back to the policy row.
	}

	// Creator's configured counterpart, when it matches the target role.
	target := reviewerRoleFor(role)
	if creator, err := s.directory.Resolve(ctx, creatorID); err == nil && creator.CounterpartID != nil {
		if counterpart, err := s.directory.Resolve(ctx, *creator.CounterpartID); err == nil && counterpart.Role == target {
			return assignmentOf(counterpart), nil
		}
	}

	// Any available identity of the target role, excluding the creator.
	if reviewer, err := s.firstOfRole(ctx, target, creatorID); err == nil {
		return reviewer, nil
	} else if !errors.Is(err, sentinel.ErrNoCandidates) {
		return workflow.ReviewerAssignment{}, err
	}

	// Stakeholder creators fall back to an administrator when no
	// coordinator is resolvable.
	if role == domain.RoleStakeholder {
		if reviewer, err := s.firstOfRole(ctx, domain.RoleAdministrator, creatorID); err == nil {
			return reviewer, nil
		} else if !errors.Is(err, sentinel.ErrNoCandidates) {
			return workflow.ReviewerAssignment{}, err
		}
	}

	return workflow.ReviewerAssignment{}, dErrors.New(dErrors.CodeNoReviewerAvailable,
		"no identity of role "+target.String()+" is available to review")
}

// Override builds the administrator-overridden assignment. It is an
// administrative side channel: it bypasses turn logic entirely, but only an
// administrator may use it.
func (s *Service) Override(ctx context.Context, newReviewerID, overriderID domain.PartyID, at time.Time) (workflow.ReviewerAssignment, error) {
	overrider, err := s.directory.Resolve(ctx, overriderID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return workflow.ReviewerAssignment{}, dErrors.New(dErrors.CodeForbidden, "overriding identity is unknown")
		}
		return workflow.ReviewerAssignment{}, dErrors.Wrap(dErrors.CodeInternal, "resolve overrider", err)
	}
	if overrider.Role != domain.RoleAdministrator {
		return workflow.ReviewerAssignment{}, dErrors.New(dErrors.CodeForbidden, "only an administrator may override the reviewer")
	}

	assigned, err := s.assignmentFor(ctx, newReviewerID)
	if err != nil {
		return workflow.ReviewerAssignment{}, err
	}
	assigned.AutoAssigned = false
	assigned.OverriddenBy = &overriderID
	assigned.OverriddenAt = &at
	return assigned, nil
}

func (s *Service) assignmentFor(ctx context.Context, id domain.PartyID) (workflow.ReviewerAssignment, error) {
	resolved, err := s.directory.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return workflow.ReviewerAssignment{}, dErrors.New(dErrors.CodeNoReviewerAvailable, "named reviewer is unknown to the directory")
		}
		return workflow.ReviewerAssignment{}, dErrors.Wrap(dErrors.CodeInternal, "resolve reviewer", err)
	}
	return assignmentOf(resolved), nil
}

func (s *Service) firstOfRole(ctx context.Context, role domain.Role, exclude domain.PartyID) (workflow.ReviewerAssignment, error) {
	candidates, err := s.directory.ListByRole(ctx, role)
	if err != nil {
		return workflow.ReviewerAssignment{}, dErrors.Wrap(dErrors.CodeInternal, "list reviewer candidates", err)
	}
	for _, candidate := range candidates {
		if candidate.ID != exclude {
			return assignmentOf(candidate), nil
		}
	}
	return workflow.ReviewerAssignment{}, sentinel.ErrNoCandidates
}

func assignmentOf(i *identity.Identity) workflow.ReviewerAssignment {
	return workflow.ReviewerAssignment{
		Party: workflow.Party{
			ID:        i.ID,
			Role:      i.Role,
			Authority: i.Authority(),
		},
		AutoAssigned: true,
	}
}
