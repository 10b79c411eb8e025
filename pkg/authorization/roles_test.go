package authorization

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	cases := []struct {
		role Role
		want int
	}{
		{User, 0},
		{Trial, 1},
		{Moderator, 2},
		{Admin, 3},
		{Head, 4},
		{CoOwner, 5},
		{Owner, 6},
		{"admin", Unranked},
		{"", Unranked},
		{"Superuser", Unranked},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, Rank(tc.role))
			assert.Equal(t, tc.want, tc.role.Rank())
		})
	}
}

func TestIsAuthorized(t *testing.T) {
	t.Run("every pair follows rank order", func(t *testing.T) {
		for _, a := range All() {
			for _, b := range All() {
				want := Rank(a) >= Rank(b)
				assert.Equal(t, want, IsAuthorized(a, b), "%s vs %s", a, b)
				assert.Equal(t, want, a.AtLeast(b), "%s vs %s", a, b)
			}
		}
	})

	t.Run("examples", func(t *testing.T) {
		assert.True(t, IsAuthorized(Moderator, Trial))
		assert.False(t, IsAuthorized(User, Admin))
		assert.True(t, IsAuthorized(Admin, Admin))
	})

	t.Run("unknown roles never authorize", func(t *testing.T) {
		assert.False(t, IsAuthorized("ghost", User))
		assert.False(t, IsAuthorized(Owner, "ghost"))
		assert.False(t, IsAuthorized("ghost", "ghost"))
	})
}

func TestIsValid(t *testing.T) {
	for _, name := range Names() {
		assert.True(t, IsValid(name), name)
	}
	assert.False(t, IsValid("MODERATOR"))
	assert.False(t, IsValid("co-owner"))
	assert.False(t, IsValid(""))
}

func TestAllReturnsCopy(t *testing.T) {
	roles := All()
	roles[0] = Owner
	assert.Equal(t, User, All()[0])
	assert.Equal(t, []string{"User", "Trial", "Moderator", "Admin", "Head", "Co-owner", "Owner"}, Names())
}
