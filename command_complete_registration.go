package console

import (
	"context"

	"github.com/douremember/go-admin-console/client"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// CompleteRegistrationMessage carries the final payload of the invited
// registration flow.
type CompleteRegistrationMessage struct {
	Token    string `json:"token" form:"token"`
	Name     string `json:"nombre" form:"nombre"`
	Email    string `json:"correo" form:"correo"`
	Password string `json:"contrasenia" form:"contrasenia"`
	Role     Role   `json:"rol" form:"rol"`
}

func (e CompleteRegistrationMessage) Type() string { return "user.registration.complete" }

// Validate will run validation rules.
func (e CompleteRegistrationMessage) Validate() error {
	return validation.Errors{
		"token": validation.Validate(e.Token,
			validation.Required.Error("Token de invitación requerido"),
		),
		"nombre": validation.Validate(e.Name,
			validation.Required.Error("El nombre es requerido"),
		),
		"correo": validation.Validate(e.Email,
			validation.Required.Error("El correo es requerido"),
			validation.Match(emailPattern).Error("Correo electrónico inválido"),
		),
		"contrasenia": validation.Validate(e.Password,
			validation.Required.Error("La contraseña es requerida"),
			validation.Length(minPasswordSize, 0).Error("Mínimo 10 caracteres"),
			validation.Match(upperPattern).Error("Debe incluir una mayúscula"),
			validation.Match(symbolPattern).Error("Debe incluir un símbolo"),
		),
		"rol": validation.Validate(e.Role,
			validation.Required.Error("Debes seleccionar un rol"),
		),
	}.Filter()
}

// RegistrationCompleter is the slice of the REST client the handler needs.
type RegistrationCompleter interface {
	CompleteRegistration(ctx context.Context, reg client.CompleteRegistration) error
}

type CompleteRegistrationHandler struct {
	backend RegistrationCompleter
	logger  Logger
}

func NewCompleteRegistrationHandler(backend RegistrationCompleter, logger Logger) *CompleteRegistrationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &CompleteRegistrationHandler{backend: backend, logger: logger}
}

func (h *CompleteRegistrationHandler) Execute(ctx context.Context, event CompleteRegistrationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while completing registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CompleteRegistrationHandler) execute(ctx context.Context, event CompleteRegistrationMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	h.logger.Debug("completing registration", "email", event.Email, "role", event.Role)

	return h.backend.CompleteRegistration(ctx, client.CompleteRegistration{
		Token:    event.Token,
		Name:     event.Name,
		Email:    event.Email,
		Password: event.Password,
		Role:     event.Role,
	})
}

// CompleteRegistration lets the handler stand in as the submission half of
// the wizard backend, so form submissions and direct command calls share the
// same validation path.
func (h *CompleteRegistrationHandler) CompleteRegistration(ctx context.Context, reg client.CompleteRegistration) error {
	return h.Execute(ctx, CompleteRegistrationMessage{
		Token:    reg.Token,
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
		Role:     reg.Role,
	})
}
