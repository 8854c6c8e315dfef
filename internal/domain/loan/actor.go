package loan

const (
	RoleAdmin    = "admin"
	RoleOfficial = "official"
	RoleStaff    = "staff"
)

// Actor is the authenticated officer performing an administrative action.
type Actor struct {
	OfficerID int64
	Role      string
}

func (a Actor) CanClear() bool {
	return a.Role == RoleAdmin || a.Role == RoleOfficial
}

func (a Actor) ID() *int64 {
	if a.OfficerID == 0 {
		return nil
	}
	id := a.OfficerID
	return &id
}
