package rbac

// Ownership predicates consulted by the composer and the scoring engine.
// Pure functions of (role, actor, owner, visibility); no state.

// CanViewTest: students see only active tests, educators only their own,
// admins everything.
func CanViewTest(role, actorID, ownerID string, isActive bool) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleEducator:
		return actorID == ownerID
	case RoleStudent:
		return isActive
	}
	return false
}

// CanMutateTest: only the owning educator. Admin bypass applies to reads,
// not mutations.
func CanMutateTest(role, actorID, ownerID string) bool {
	return role == RoleEducator && actorID == ownerID
}

// CanSubmit: students submit against active tests only.
func CanSubmit(role string, isActive bool) bool {
	return role != "" && isActive
}

// CanViewResult: the submitting user, an admin, or the educator owning the
// result's test.
func CanViewResult(role, actorID, resultOwnerID, testOwnerID string) bool {
	if role == RoleAdmin {
		return true
	}
	if actorID == resultOwnerID {
		return true
	}
	return role == RoleEducator && actorID == testOwnerID
}
