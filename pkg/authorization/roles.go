package authorization

// Rank returns the integer position of role in the ladder, or Unranked
// when the name is not one of the fixed roles.
func Rank(role Role) int {
	for i, r := range ladder {
		if r == role {
			return i
		}
	}
	return Unranked
}

// IsAuthorized reports whether actor ranks at or above required. An
// unknown actor role is never authorized, and neither is any actor when the
// required role itself is unknown.
func IsAuthorized(actor, required Role) bool {
	need := Rank(required)
	if need == Unranked {
		return false
	}
	return Rank(actor) >= need
}

// IsValid reports whether name is exactly one of the fixed roles
func IsValid(name string) bool {
	return Rank(Role(name)) != Unranked
}

// All returns the roles in ascending order
func All() []Role {
	out := make([]Role, len(ladder))
	copy(out, ladder)
	return out
}

// Names returns the role names in ascending order
func Names() []string {
	names := make([]string, len(ladder))
	for i, r := range ladder {
		names[i] = string(r)
	}
	return names
}
