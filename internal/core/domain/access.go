package domain

// RequesterContext carries the caller's resolved clearance tags for the
// lifetime of one request. It is never persisted alongside content.
//
// A zero-value context is unresolved and fails closed: only public chunks
// (empty access tag set) are visible through it.
type RequesterContext struct {
	HeldTags []string
	Resolved bool
}

// NewRequesterContext builds a resolved context from the identity
// collaborator's claim set.
func NewRequesterContext(heldTags []string) RequesterContext {
	return RequesterContext{HeldTags: heldTags, Resolved: true}
}

// AccessPolicy is the visibility predicate for a single requester. It is
// injected into both index candidate-generation paths so unauthorized chunks
// are rejected before they can be scored, ranked, or logged.
type AccessPolicy struct {
	held     map[string]struct{}
	resolved bool
}

// NewAccessPolicy evaluates visibility for the given requester. An
// unresolved requester yields a policy that admits only public chunks.
func NewAccessPolicy(requester RequesterContext) AccessPolicy {
	policy := AccessPolicy{resolved: requester.Resolved}
	if !requester.Resolved {
		return policy
	}
	policy.held = make(map[string]struct{}, len(requester.HeldTags))
	for _, tag := range requester.HeldTags {
		if tag == "" {
			continue
		}
		policy.held[tag] = struct{}{}
	}
	return policy
}

// Visible reports whether a chunk with the given required tags may be seen.
// The rule is a subset relation: every required tag must be held. An empty
// requirement set is public and visible to everyone, including unresolved
// requesters.
func (p AccessPolicy) Visible(accessTags []string) bool {
	if len(accessTags) == 0 {
		return true
	}
	if !p.resolved {
		return false
	}
	for _, tag := range accessTags {
		if _, ok := p.held[tag]; !ok {
			return false
		}
	}
	return true
}
