package authorization

// Role is a named rank in the chat's privilege ladder
type Role string

const (
	User      Role = "User"
	Trial     Role = "Trial"
	Moderator Role = "Moderator"
	Admin     Role = "Admin"
	Head      Role = "Head"
	CoOwner   Role = "Co-owner"
	Owner     Role = "Owner"
)

// Default is the role given to freshly signed-up accounts
const Default = User

// Unranked is returned by Rank for names outside the ladder
const Unranked = -1

// ladder lists roles from least to most privileged
var ladder = []Role{User, Trial, Moderator, Admin, Head, CoOwner, Owner}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

// Rank returns the position of the role in the ladder
func (r Role) Rank() int {
	return Rank(r)
}

// AtLeast returns true if the role ranks at or above required
func (r Role) AtLeast(required Role) bool {
	return IsAuthorized(r, required)
}
