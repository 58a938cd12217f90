package types

// Permission is a named capability granted to an actor by the authorization oracle
type Permission string

const (
	// PermissionViewReport allows non-administrators to view the official report
	PermissionViewReport Permission = "view_reportconfiguration"
)

// String returns the string representation of the permission
func (p Permission) String() string {
	return string(p)
}
