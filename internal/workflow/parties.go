package workflow

import "driveflow/pkg/domain"

// Parties is the single party-resolution value for a request snapshot. It is
// computed once and every rule reads from it, so requester/reviewer/proposer
// matching cannot drift between code paths.
type Parties struct {
	RequesterID   domain.PartyID
	ReviewerID    domain.PartyID
	BeneficiaryID domain.PartyID // zero when no beneficiary was named

	// beneficiaryReviews is set when a coordinator created the request on
	// behalf of a named stakeholder; the beneficiary is then the de-facto
	// reviewer of record even if the stored assignment drifted.
	beneficiaryReviews bool

	ProposerID   domain.PartyID // zero when no live reschedule proposal
	ProposerRole domain.Role
}

// ResolveParties computes the party-resolution value for a snapshot.
func ResolveParties(r *Request) Parties {
	p := Parties{
		RequesterID: r.Requester.ID,
		ReviewerID:  r.Reviewer.ID,
	}
	if r.BeneficiaryID != nil {
		p.BeneficiaryID = *r.BeneficiaryID
		p.beneficiaryReviews = domain.NormalizeRole(string(r.CreatedByRole)) == domain.RoleCoordinator
	}
	if r.Proposal != nil {
		p.ProposerID = r.Proposal.ProposedBy
		p.ProposerRole = domain.NormalizeRole(string(r.Proposal.ProposedByRole))
	}
	return p
}

// IsReviewer reports whether the identity is the reviewer of record, or the
// named beneficiary in the coordinator-on-behalf-of case.
func (p Parties) IsReviewer(id domain.PartyID) bool {
	if id == p.ReviewerID {
		return true
	}
	return p.beneficiaryReviews && !p.BeneficiaryID.IsNil() && id == p.BeneficiaryID
}

// IsRequester reports whether the identity is the requester, or the named
// beneficiary when the beneficiary is not already classified as reviewer.
// The same identity is never both requester and reviewer for turn resolution.
func (p Parties) IsRequester(id domain.PartyID) bool {
	if id == p.RequesterID {
		return true
	}
	return !p.BeneficiaryID.IsNil() && id == p.BeneficiaryID && !p.IsReviewer(id)
}

// IsProposer reports whether the identity submitted the live reschedule
// proposal.
func (p Parties) IsProposer(id domain.PartyID) bool {
	return !p.ProposerID.IsNil() && id == p.ProposerID
}

// ProposerIsReviewerSide reports whether the live proposal came from the
// reviewer side of the request. Decides which ratification action the
// counterparty receives.
func (p Parties) ProposerIsReviewerSide() bool {
	return !p.ProposerID.IsNil() && p.IsReviewer(p.ProposerID)
}

// Counterparty returns the identity opposing the live proposer.
func (p Parties) Counterparty() domain.PartyID {
	if p.ProposerIsReviewerSide() {
		return p.RequesterID
	}
	return p.ReviewerID
}
