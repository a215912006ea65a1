package console

import (
	"context"
	"time"

	"github.com/douremember/go-admin-console/client"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// InviteUserMessage asks the backend to mint an invitation and email the
// registration link. The dashboard sends it with RoleDoctor.
type InviteUserMessage struct {
	FullName string `json:"nombreCompleto" form:"nombreCompleto"`
	Email    string `json:"email" form:"email"`
	Role     Role   `json:"rol" form:"rol"`
}

func (e InviteUserMessage) Type() string { return "user.invite" }

// Validate will run validation rules.
func (e InviteUserMessage) Validate() error {
	return validation.Errors{
		"nombreCompleto": validation.Validate(e.FullName,
			validation.Required.Error("El nombre es requerido"),
		),
		"email": validation.Validate(e.Email,
			validation.Required.Error("El correo es requerido"),
			is.Email.Error("Correo electrónico inválido"),
		),
		"rol": validation.Validate(e.Role,
			validation.Required.Error("Debes seleccionar un rol"),
			validation.In(toAnySlice(InvitableRoles())...).Error("Rol inválido"),
		),
	}.Filter()
}

// Inviter is the slice of the REST client the handler needs.
type Inviter interface {
	CreateInvitation(ctx context.Context, invite client.CreateInvitation) error
}

type InviteUserHandler struct {
	backend      Inviter
	activitySink ActivitySink
	logger       Logger
}

func NewInviteUserHandler(backend Inviter, sink ActivitySink, logger Logger) *InviteUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &InviteUserHandler{
		backend:      backend,
		activitySink: normalizeActivitySink(sink),
		logger:       logger,
	}
}

func (h *InviteUserHandler) Execute(ctx context.Context, event InviteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled while sending invitation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InviteUserHandler) execute(ctx context.Context, event InviteUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invitation request").
			WithCode(goerrors.CodeBadRequest)
	}

	err := h.backend.CreateInvitation(ctx, client.CreateInvitation{
		FullName: event.FullName,
		Email:    event.Email,
		Role:     event.Role,
		IDMedico: nil,
	})
	if err != nil {
		return err
	}

	h.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventInvitationSent,
		Metadata: map[string]any{
			"email": event.Email,
			"role":  event.Role,
		},
	})
	return nil
}

func (h *InviteUserHandler) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := h.activitySink.Record(ctx, event); err != nil {
		h.logger.Warn("invite activity sink error: %v", err)
	}
}

func toAnySlice(roles []Role) []any {
	out := make([]any, len(roles))
	for i, r := range roles {
		out[i] = r
	}
	return out
}
