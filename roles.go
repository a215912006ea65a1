package console

// Role is the backend-assigned account role. Values are the literal strings
// the REST API returns; they are Spanish because the backend is.
type Role = string

const (
	// RoleAdministrator may sign into this console and manage accounts.
	RoleAdministrator Role = "administrador"
	// RoleDoctor provides care; the primary entity on the dashboard.
	RoleDoctor Role = "medico"
	// RolePatient receives care.
	RolePatient Role = "paciente"
	// RoleCaregiver looks after a patient.
	RoleCaregiver Role = "cuidador"
)

// IsValid checks the role against the closed set the backend issues.
func IsValidRole(r Role) bool {
	switch r {
	case RoleAdministrator, RoleDoctor, RolePatient, RoleCaregiver:
		return true
	default:
		return false
	}
}

// InvitableRoles returns the roles an invitation may carry; administrators
// are provisioned out of band, never through the wizard.
func InvitableRoles() []Role {
	return []Role{RolePatient, RoleCaregiver, RoleDoctor}
}

// ParseRole safely narrows a backend string into a Role.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, IsValidRole(role)
}

// RoleLabel maps a role to its display label.
func RoleLabel(r Role) string {
	switch r {
	case RoleAdministrator:
		return "Administrador"
	case RoleDoctor:
		return "Médico"
	case RolePatient:
		return "Paciente"
	case RoleCaregiver:
		return "Cuidador"
	default:
		return string(r)
	}
}
