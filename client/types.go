package client

// User is the account record as the backend serializes it. Field names are
// the literal Spanish wire names; they are kept verbatim so the console and
// the backend never disagree about shape.
type User struct {
	ID        string `json:"idUsuario"`
	Name      string `json:"nombre"`
	Email     string `json:"correo"`
	BirthDate string `json:"fechaNacimiento,omitempty"`
	Role      string `json:"rol"`
	Status    string `json:"status"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Account statuses the backend issues.
const (
	StatusActive   = "activo"
	StatusInactive = "inactivo"
	StatusInvited  = "invitado"
)

// LoginResult is the login exchange response.
type LoginResult struct {
	OK           bool   `json:"ok"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Invitation is the verified invitation record embedded in a registration
// link.
type Invitation struct {
	Email    string `json:"correo"`
	Role     string `json:"rol"`
	FullName string `json:"nombreCompleto"`
}

// UpdateUser is the partial profile update payload; nil-able fields are
// omitted so the PATCH stays partial.
type UpdateUser struct {
	Name      string `json:"nombre,omitempty"`
	BirthDate string `json:"fechaNacimiento,omitempty"`
	Status    string `json:"status,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
}

// CreateInvitation is the invitation request payload. IDMedico is always
// serialized, null included; the backend requires the key to be present.
type CreateInvitation struct {
	FullName string  `json:"nombreCompleto"`
	Email    string  `json:"email"`
	Role     string  `json:"rol"`
	IDMedico *string `json:"idMedico"`
}

// CompleteRegistration finalizes an invited registration.
type CompleteRegistration struct {
	Token    string `json:"token"`
	Name     string `json:"nombre"`
	Email    string `json:"correo"`
	Password string `json:"contrasenia"`
	Role     string `json:"rol"`
}

// SignUp is the direct (non-invited) registration payload.
type SignUp struct {
	Name      string `json:"nombre"`
	BirthDate string `json:"fechaNacimiento,omitempty"`
	Email     string `json:"correo"`
	Password  string `json:"contrasenia"`
	Role      string `json:"rol"`
}

// RemovalAction reports which operation actually ran when removing an
// account, so the UI can phrase the outcome honestly.
type RemovalAction string

const (
	RemovalDeleted     RemovalAction = "deleted"
	RemovalDeactivated RemovalAction = "deactivated"
)

type usersEnvelope struct {
	Users []User `json:"usuarios"`
}

type invitationEnvelope struct {
	Invitation Invitation `json:"invitacion"`
}
