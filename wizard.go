package console

import (
	"context"
	"regexp"
	"strings"

	"github.com/douremember/go-admin-console/client"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// WizardState is one of the registration flow's states.
type WizardState string

const (
	StateVerifyingInvitation WizardState = "verifying-invitation"
	StateInvalid             WizardState = "invalid"
	StateCollectingStep1     WizardState = "collecting-step-1"
	StateCollectingStep2     WizardState = "collecting-step-2"
	StateCollectingStep3     WizardState = "collecting-step-3"
	StateSubmitting          WizardState = "submitting"
	StateSucceeded           WizardState = "succeeded"
	StateFailed              WizardState = "failed"
)

// TotalSteps is the number of collecting steps in the flow.
const TotalSteps = 3

const (
	textCodeWizardTransition = "INVALID_WIZARD_TRANSITION"
	textCodeWizardTerminal   = "TERMINAL_WIZARD_STATE"
)

// ErrWizardTransition is returned when a requested flow change is not
// allowed from the current state.
var ErrWizardTransition = goerrors.New("invalid registration flow transition", goerrors.CategoryValidation).
	WithTextCode(textCodeWizardTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrWizardTerminal is returned when operating on a finished flow.
var ErrWizardTerminal = goerrors.New("registration flow already finished", goerrors.CategoryConflict).
	WithTextCode(textCodeWizardTerminal).
	WithCode(goerrors.CodeConflict)

// Draft is the wizard's working state. It lives only in memory: a reload
// restarts the whole flow at verification.
type Draft struct {
	ID              uuid.UUID
	Name            string
	Email           string
	Role            Role
	Password        string
	ConfirmPassword string
}

// Draft/field names used as error map keys and form field names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldRole            = "role"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldGeneral         = "general"
)

var (
	// Permissive on purpose: something before the @, a dot somewhere after
	// it, no embedded spaces. The backend runs the strict check.
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	symbolPattern   = regexp.MustCompile(`[!@#$%^&*]`)
	minPasswordSize = 10
)

// WizardBackend is the slice of the REST client the wizard depends on.
type WizardBackend interface {
	VerifyInvitation(ctx context.Context, token string) (*client.Invitation, error)
	CompleteRegistration(ctx context.Context, reg client.CompleteRegistration) error
}

// Wizard is the 3-step invited-registration flow: verify the invitation
// token, collect personal info, role and credentials with step-local
// validation gates, then submit. Transitions follow an explicit table; any
// move outside it fails with ErrWizardTransition.
type Wizard struct {
	backend      WizardBackend
	logger       Logger
	activitySink ActivitySink

	token       string
	state       WizardState
	step        int
	draft       Draft
	emailLocked bool
	fieldErrors map[string]string

	transitions map[WizardState]map[WizardState]struct{}
}

type WizardOption func(*Wizard)

// WithWizardLogger overrides the default logger.
func WithWizardLogger(logger Logger) WizardOption {
	return func(w *Wizard) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWizardActivitySink sets the sink receiving registration events.
func WithWizardActivitySink(sink ActivitySink) WizardOption {
	return func(w *Wizard) {
		w.activitySink = normalizeActivitySink(sink)
	}
}

func NewWizard(backend WizardBackend, opts ...WizardOption) *Wizard {
	w := &Wizard{
		backend:      backend,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		state:        StateVerifyingInvitation,
		step:         1,
		fieldErrors:  map[string]string{},
		transitions: map[WizardState]map[WizardState]struct{}{
			StateVerifyingInvitation: {
				StateInvalid:         {},
				StateCollectingStep1: {},
			},
			StateCollectingStep1: {
				StateCollectingStep2: {},
			},
			StateCollectingStep2: {
				StateCollectingStep1: {},
				StateCollectingStep3: {},
			},
			StateCollectingStep3: {
				StateCollectingStep2: {},
				StateSubmitting:      {},
			},
			StateSubmitting: {
				StateSucceeded: {},
				StateFailed:    {},
			},
			StateFailed: {
				StateSubmitting: {},
			},
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// State returns the current flow state.
func (w *Wizard) State() WizardState {
	return w.state
}

// Step returns the current collecting step in [1,3].
func (w *Wizard) Step() int {
	return w.step
}

// Draft returns a copy of the working state.
func (w *Wizard) Draft() Draft {
	return w.draft
}

// EmailLocked reports whether the email was pre-filled from a verified
// invitation and is therefore immutable.
func (w *Wizard) EmailLocked() bool {
	return w.emailLocked
}

// FieldErrors returns the current validation errors keyed by field name;
// the FieldGeneral key carries non-field messages.
func (w *Wizard) FieldErrors() map[string]string {
	out := make(map[string]string, len(w.fieldErrors))
	for k, v := range w.fieldErrors {
		out[k] = v
	}
	return out
}

// Begin verifies the invitation token and, on success, pre-fills the draft
// and opens step 1. A missing token or failed verification lands the flow
// in the terminal invalid state.
func (w *Wizard) Begin(ctx context.Context, token string) error {
	if w.state != StateVerifyingInvitation {
		return ErrWizardTransition.WithMetadata(map[string]any{
			"from": w.state,
		})
	}

	if token == "" {
		w.transition(StateInvalid)
		return nil
	}

	invitation, err := w.backend.VerifyInvitation(ctx, token)
	if err != nil {
		w.logger.Warn("invitation verification failed", "error", err)
		w.transition(StateInvalid)
		return nil
	}

	w.token = token
	w.draft.Email = invitation.Email
	if role, ok := ParseRole(invitation.Role); ok {
		w.draft.Role = role
	}
	if invitation.FullName != "" {
		w.draft.Name = invitation.FullName
	}
	w.emailLocked = w.draft.Email != ""

	// Deterministic draft id so repeated visits on the same invitation
	// produce the same identifier in logs.
	if id, err := hashid.NewUUID(w.draft.Email); err == nil {
		w.draft.ID = id
	} else {
		w.draft.ID = uuid.New()
	}

	w.transition(StateCollectingStep1)
	return nil
}

// SetField updates a draft field and clears that field's error, the same
// edit-clears-error behavior the form always had. The email is immutable
// once pre-filled from a verified invitation.
func (w *Wizard) SetField(field, value string) {
	switch field {
	case FieldName:
		w.draft.Name = value
	case FieldEmail:
		if w.emailLocked {
			return
		}
		w.draft.Email = value
	case FieldRole:
		w.draft.Role = value
		// Role errors surface under the general key.
		delete(w.fieldErrors, FieldGeneral)
	case FieldPassword:
		w.draft.Password = value
	case FieldConfirmPassword:
		w.draft.ConfirmPassword = value
	default:
		return
	}
	delete(w.fieldErrors, field)
}

// Advance validates the current step and, when it passes, moves the flow
// forward. It reports whether the step changed; on failure the field errors
// carry the reasons and the flow stays put.
func (w *Wizard) Advance() bool {
	if !w.collecting() {
		return false
	}

	errs := w.validateStep(w.step)
	w.fieldErrors = errs
	if len(errs) > 0 {
		return false
	}

	switch w.state {
	case StateCollectingStep1:
		w.step = 2
		w.transition(StateCollectingStep2)
	case StateCollectingStep2:
		w.step = 3
		w.transition(StateCollectingStep3)
	default:
		return false
	}
	return true
}

// Back moves one step backward, clearing every error currently displayed
// for the step being left. Always permitted while collecting.
func (w *Wizard) Back() bool {
	switch w.state {
	case StateCollectingStep2:
		w.step = 1
		w.transition(StateCollectingStep1)
	case StateCollectingStep3:
		w.step = 2
		w.transition(StateCollectingStep2)
	default:
		return false
	}
	w.fieldErrors = map[string]string{}
	return true
}

// Submit re-validates step 3 and calls the completion endpoint. A server
// failure leaves the flow in failed with the server's message under the
// general key; the user stays on step 3 and may resubmit. Success is
// terminal.
func (w *Wizard) Submit(ctx context.Context) error {
	switch w.state {
	case StateCollectingStep3, StateFailed:
	case StateSucceeded:
		return ErrWizardTerminal
	default:
		return ErrWizardTransition.WithMetadata(map[string]any{
			"from": w.state,
		})
	}

	errs := w.validateStep(3)
	w.fieldErrors = errs
	if len(errs) > 0 {
		w.state = StateCollectingStep3
		return nil
	}

	w.transition(StateSubmitting)

	err := w.backend.CompleteRegistration(ctx, client.CompleteRegistration{
		Token:    w.token,
		Name:     w.draft.Name,
		Email:    w.draft.Email,
		Password: w.draft.Password,
		Role:     w.draft.Role,
	})
	if err != nil {
		w.logger.Error("registration completion failed", "error", err)
		w.fieldErrors = map[string]string{
			FieldGeneral: surfaceMessage(err),
		}
		w.transition(StateFailed)
		return nil
	}

	w.transition(StateSucceeded)
	w.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventRegistrationDone,
		Actor:     ActorRef{ID: w.draft.ID.String(), Type: "invitee"},
		Metadata: map[string]any{
			"email": w.draft.Email,
			"role":  w.draft.Role,
		},
	})
	return nil
}

func (w *Wizard) collecting() bool {
	switch w.state {
	case StateCollectingStep1, StateCollectingStep2, StateCollectingStep3:
		return true
	default:
		return false
	}
}

func (w *Wizard) transition(to WizardState) {
	if allowed, ok := w.transitions[w.state]; ok {
		if _, exists := allowed[to]; exists {
			w.state = to
			return
		}
	}
	// Transition table and callers are maintained together; reaching this
	// is a programming error worth hearing about, not a user-visible one.
	w.logger.Error("wizard transition outside table", "from", w.state, "to", to)
	w.state = to
}

func (w *Wizard) validateStep(step int) map[string]string {
	errs := map[string]string{}

	collect := func(field string, value string, rules ...validation.Rule) {
		if err := validation.Validate(value, rules...); err != nil {
			errs[field] = err.Error()
		}
	}

	switch step {
	case 1:
		collect(FieldName, strings.TrimSpace(w.draft.Name),
			validation.Required.Error("El nombre es requerido"),
		)
		collect(FieldEmail, w.draft.Email,
			validation.Required.Error("El correo es requerido"),
			validation.Match(emailPattern).Error("Correo electrónico inválido"),
		)
	case 2:
		collect(FieldGeneral, w.draft.Role,
			validation.Required.Error("Debes seleccionar un rol"),
		)
	case 3:
		collect(FieldPassword, w.draft.Password,
			validation.Required.Error("La contraseña es requerida"),
			validation.Length(minPasswordSize, 0).Error("Mínimo 10 caracteres"),
			validation.Match(upperPattern).Error("Debe incluir una mayúscula"),
			validation.Match(symbolPattern).Error("Debe incluir un símbolo"),
		)
		if w.draft.Password != w.draft.ConfirmPassword {
			errs[FieldConfirmPassword] = "Las contraseñas no coinciden"
		}
	}

	return errs
}

func (w *Wizard) recordActivity(ctx context.Context, event ActivityEvent) {
	sink := normalizeActivitySink(w.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		w.logger.Warn("wizard activity sink error: %v", err)
	}
}

// surfaceMessage extracts the user-facing message from a backend error.
func surfaceMessage(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return "Error al crear la cuenta"
}
