package entity

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
}

// SeedUser is one entry of the roster inserted on first run.
type SeedUser struct {
	Username string
	Password string
	Role     Role
}

// DefaultRoster is the class list used when SEED_USERS is not set.
func DefaultRoster() []SeedUser {
	students := []string{
		"alarcon", "alvarez", "garcia1", "garcia2", "gonzalez", "igual",
		"juarez", "lopez", "robles", "rodriguez", "segura",
	}

	roster := make([]SeedUser, 0, len(students)+1)
	for _, name := range students {
		roster = append(roster, SeedUser{Username: name, Password: "pass123", Role: RoleStudent})
	}

	// instructor account
	roster = append(roster, SeedUser{Username: "profesor", Password: "admin123", Role: RoleAdmin})

	return roster
}
