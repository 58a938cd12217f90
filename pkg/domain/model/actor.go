package model

// Actor is an identified user acting on the register
type Actor struct {
	ID   string
	Name string
}

// DisplayName returns the name, falling back to the ID
func (a *Actor) DisplayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
