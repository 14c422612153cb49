package domain

// Community is the audience of a challenge. Membership management lives
// elsewhere; this system only resolves members at dispatch time.
type Community struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}
