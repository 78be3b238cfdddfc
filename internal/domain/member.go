package domain

// Member is a user as seen by the room it joined.
type Member struct {
	User *User
}

func NewMember(user *User) *Member {
	return &Member{User: user}
}
