package console

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/douremember/go-admin-console/client"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/nyaruka/phonenumbers"
)

// AdminBackend is the slice of the REST client the console handlers call.
// *client.Client satisfies it.
type AdminBackend interface {
	ListUsers(ctx context.Context) ([]client.User, error)
	FindUser(ctx context.Context, id string) (*client.User, error)
	UpdateProfile(ctx context.Context, id string, update client.UpdateUser) error
	RemoveUser(ctx context.Context, id string) (client.RemovalAction, error)
	ToggleStatus(ctx context.Context, id, currentStatus string) (string, error)
	CreateInvitation(ctx context.Context, invite client.CreateInvitation) error
	VerifyInvitation(ctx context.Context, token string) (*client.Invitation, error)
	CompleteRegistration(ctx context.Context, reg client.CompleteRegistration) error
	UpdateEmail(ctx context.Context, userID, email string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
	UploadPhoto(ctx context.Context, userID, filename, contentType string, size int64, content io.Reader) error
	DeletePhoto(ctx context.Context, userID string) error
	PhotoURL(userID string, cacheBust int64) string
}

// RegisterConsoleRoutes mounts the console on the given router. Admin and
// profile routes sit behind the gate; login and invited registration do not.
func RegisterConsoleRoutes[T any](app router.Router[T], opts ...ConsoleControllerOption) {
	controller := NewConsoleController(opts...)
	protected := controller.Gate.Protected()

	app.Get(controller.Routes.Login, controller.LoginShow).SetName("sign-in.get")
	app.Post(controller.Routes.Login, controller.LoginPost).SetName("sign-in.post")
	app.Get(controller.Routes.Logout, controller.Logout).SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegisterShow).SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegisterPost).SetName("register.post")

	app.Get(controller.Routes.Dashboard, protected(controller.Dashboard)).SetName("admin.get")
	app.Get(controller.Routes.Users, protected(controller.UsersIndex)).SetName("admin-users.get")
	app.Post(controller.Routes.Invitations, protected(controller.InvitePost)).SetName("admin-invite.post")
	app.Post(fmt.Sprintf("%s/:id/toggle", controller.Routes.Users), protected(controller.UserToggle)).
		SetName("admin-user-toggle.post")
	app.Post(fmt.Sprintf("%s/:id/remove", controller.Routes.Users), protected(controller.UserRemove)).
		SetName("admin-user-remove.post")
	app.Post(fmt.Sprintf("%s/:id", controller.Routes.Users), protected(controller.UserUpdate)).
		SetName("admin-user-update.post")

	app.Get(controller.Routes.Profile, protected(controller.ProfileShow)).SetName("profile.get")
	app.Post(controller.Routes.Profile, protected(controller.ProfileUpdate)).SetName("profile.post")
	app.Post(fmt.Sprintf("%s/photo", controller.Routes.Profile), protected(controller.ProfilePhotoUpload)).
		SetName("profile-photo.post")
	app.Post(fmt.Sprintf("%s/photo/delete", controller.Routes.Profile), protected(controller.ProfilePhotoDelete)).
		SetName("profile-photo-delete.post")
	app.Post(fmt.Sprintf("%s/email", controller.Routes.Profile), protected(controller.ProfileEmailUpdate)).
		SetName("profile-email.post")
	app.Post(fmt.Sprintf("%s/password", controller.Routes.Profile), protected(controller.ProfilePasswordChange)).
		SetName("profile-password.post")
}

type ConsoleControllerRoutes struct {
	Login       string
	Logout      string
	Register    string
	Dashboard   string
	Users       string
	Invitations string
	Profile     string
}

type ConsoleControllerViews struct {
	Login     string
	Register  string
	Dashboard string
	Users     string
	Profile   string
}

type ConsoleController struct {
	Debug        bool
	Logger       Logger
	Sessions     SessionStore
	Auther       Authenticator
	Gate         Gate
	Backend      AdminBackend
	Activity     ActivitySink
	Routes       *ConsoleControllerRoutes
	Views        *ConsoleControllerViews
	ErrorHandler router.ErrorHandler

	completer *CompleteRegistrationHandler

	mu      sync.Mutex
	wizards map[string]*Wizard
}

type ConsoleControllerOption func(*ConsoleController) *ConsoleController

func WithControllerLogger(logger Logger) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerSessions(sessions SessionStore) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Sessions = sessions
		return c
	}
}

func WithControllerAuther(auther Authenticator) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Auther = auther
		return c
	}
}

func WithControllerGate(gate Gate) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Gate = gate
		return c
	}
}

func WithControllerBackend(backend AdminBackend) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Backend = backend
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Activity = sink
		return c
	}
}

func WithControllerDebug(debug bool) ConsoleControllerOption {
	return func(c *ConsoleController) *ConsoleController {
		c.Debug = debug
		return c
	}
}

func NewConsoleController(opts ...ConsoleControllerOption) *ConsoleController {
	c := &ConsoleController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		wizards:      map[string]*Wizard{},
		Routes: &ConsoleControllerRoutes{
			Login:       "/login",
			Logout:      "/logout",
			Register:    "/register",
			Dashboard:   "/admin",
			Users:       "/admin/users",
			Invitations: "/admin/invitations",
			Profile:     "/profile",
		},
		Views: &ConsoleControllerViews{
			Login:     "login",
			Register:  "register",
			Dashboard: "dashboard",
			Users:     "users",
			Profile:   "profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Sessions == nil {
		panic("Missing SessionStore in console controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in console controller...")
	}

	if c.Gate == nil {
		panic("Missing Gate in console controller...")
	}

	if c.Backend == nil {
		panic("Missing AdminBackend in console controller...")
	}

	c.Activity = normalizeActivitySink(c.Activity)
	c.completer = NewCompleteRegistrationHandler(c.Backend, c.Logger)

	return c
}

func (a *ConsoleController) LoginShow(ctx router.Context) error {
	if a.Sessions.IsAuthenticated(ctx.Context()) {
		return ctx.Redirect(a.Routes.Dashboard, router.StatusSeeOther)
	}
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"correo" json:"correo"`
	Password string `form:"contrasenia" json:"contrasenia"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required.Error("El correo es requerido"),
			is.Email.Error("Correo electrónico inválido"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("La contraseña es requerida"),
		),
	)
}

func (a *ConsoleController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= CONSOLE LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	if _, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password); err != nil {
		a.Logger.Error("login error: ", "error", err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record": payload,
			"errors": map[string]string{
				"authentication": surfaceMessage(err),
			},
		})
	}

	redirect := a.Gate.GetRedirect(ctx, a.Routes.Dashboard)
	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *ConsoleController) Logout(ctx router.Context) error {
	if err := a.Auther.Logout(ctx.Context()); err != nil {
		a.Logger.Warn("logout error: ", "error", err)
	}
	return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
}

// wizardBackend routes verification straight to the REST client and
// submissions through the completion command, so both paths share validation.
type wizardBackend struct {
	backend   AdminBackend
	completer *CompleteRegistrationHandler
}

func (b wizardBackend) VerifyInvitation(ctx context.Context, token string) (*client.Invitation, error) {
	return b.backend.VerifyInvitation(ctx, token)
}

func (b wizardBackend) CompleteRegistration(ctx context.Context, reg client.CompleteRegistration) error {
	return b.completer.CompleteRegistration(ctx, reg)
}

// wizardFor returns the in-flight flow for a token, starting one on first
// sight. Flows live in memory only; a server restart voids them.
func (a *ConsoleController) wizardFor(ctx router.Context, token string) *Wizard {
	a.mu.Lock()
	defer a.mu.Unlock()

	if w, ok := a.wizards[token]; ok {
		return w
	}

	w := NewWizard(
		wizardBackend{backend: a.Backend, completer: a.completer},
		WithWizardLogger(a.Logger),
		WithWizardActivitySink(a.Activity),
	)
	if err := w.Begin(ctx.Context(), token); err != nil {
		a.Logger.Warn("wizard begin: ", "error", err)
	}
	// Invalid flows stay out of the registry so bogus tokens cannot grow it.
	if w.State() != StateInvalid {
		a.wizards[token] = w
	}
	return w
}

func (a *ConsoleController) dropWizard(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.wizards, token)
}

func (a *ConsoleController) renderWizard(ctx router.Context, token string, w *Wizard) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"token":       token,
		"state":       string(w.State()),
		"step":        w.Step(),
		"totalSteps":  TotalSteps,
		"record":      w.Draft(),
		"errors":      w.FieldErrors(),
		"emailLocked": w.EmailLocked(),
		"roles":       InvitableRoles(),
	})
}

func (a *ConsoleController) RegisterShow(ctx router.Context) error {
	token := ctx.Query("token", "")
	w := a.wizardFor(ctx, token)
	return a.renderWizard(ctx, token, w)
}

// RegisterStepPayload is one wizard form submission. Which fields matter
// depends on the step the flow is on.
type RegisterStepPayload struct {
	Token           string `form:"token" json:"token"`
	Action          string `form:"action" json:"action"`
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Role            string `form:"role" json:"role"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirmPassword" json:"confirmPassword"`
}

func (a *ConsoleController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterStepPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	w := a.wizardFor(ctx, payload.Token)

	switch w.Step() {
	case 1:
		w.SetField(FieldName, payload.Name)
		w.SetField(FieldEmail, payload.Email)
	case 2:
		w.SetField(FieldRole, payload.Role)
	case 3:
		w.SetField(FieldPassword, payload.Password)
		w.SetField(FieldConfirmPassword, payload.ConfirmPassword)
	}

	switch payload.Action {
	case "back":
		w.Back()
	case "submit":
		if err := w.Submit(ctx.Context()); err != nil {
			a.Logger.Error("register submit: ", "error", err)
		}
	default:
		w.Advance()
	}

	if w.State() == StateSucceeded {
		a.dropWizard(payload.Token)
		return flash.WithSuccess(ctx, router.ViewContext{
			"system_message": "Cuenta creada. Ya puedes iniciar sesión.",
		}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	return a.renderWizard(ctx, payload.Token, w)
}

func (a *ConsoleController) Dashboard(ctx router.Context) error {
	users, err := a.Backend.ListUsers(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	filter := DirectoryFilter{
		Query:  ctx.Query("q", ""),
		Status: ctx.Query("status", StatusFilterAll),
		Role:   RoleDoctor,
	}

	doctors := FilterUsers(users, filter)
	stats := Stats(users)

	if a.Debug {
		fmt.Println("======= DASHBOARD ======")
		fmt.Println(print.MaybePrettyJSON(stats))
		fmt.Println("========================")
	}

	session, _ := SessionFromContext(ctx)

	return ctx.Render(a.Views.Dashboard, router.ViewContext{
		"session": session,
		"doctors": doctors,
		"stats":   stats,
		"filter":  filter,
	})
}

func (a *ConsoleController) UsersIndex(ctx router.Context) error {
	users, err := a.Backend.ListUsers(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	filter := DirectoryFilter{
		Query:     ctx.Query("q", ""),
		Status:    ctx.Query("status", StatusFilterAll),
		Role:      ctx.Query("rol", RoleFilterAll),
		MatchRole: true,
	}

	session, _ := SessionFromContext(ctx)

	return ctx.Render(a.Views.Users, router.ViewContext{
		"session": session,
		"users":   FilterUsers(users, filter),
		"stats":   Stats(users),
		"filter":  filter,
		"roles":   []Role{RoleDoctor, RolePatient, RoleCaregiver, RoleAdministrator},
	})
}

func (a *ConsoleController) InvitePost(ctx router.Context) error {
	payload := new(InviteUserMessage)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("invite parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error al procesar el formulario",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	if payload.Role == "" {
		payload.Role = RoleDoctor
	}

	inviteUser := NewInviteUserHandler(a.Backend, a.Activity, a.Logger)
	if err := inviteUser.Execute(ctx.Context(), *payload); err != nil {
		a.Logger.Error("invite error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo enviar la invitación",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": fmt.Sprintf("Invitación enviada a %s", payload.Email),
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *ConsoleController) UserToggle(ctx router.Context) error {
	id := ctx.Param("id", "")
	current := ctx.Query("status", "")
	if current == "" {
		if user, err := a.Backend.FindUser(ctx.Context(), id); err == nil {
			current = user.Status
		}
	}

	next, err := a.Backend.ToggleStatus(ctx.Context(), id, current)
	if err != nil {
		a.Logger.Error("toggle status: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo cambiar el estado de la cuenta",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventUserStatusChanged,
		UserID:    id,
		Metadata:  map[string]any{"status": next},
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Estado actualizado",
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *ConsoleController) UserRemove(ctx router.Context) error {
	id := ctx.Param("id", "")

	action, err := a.Backend.RemoveUser(ctx.Context(), id)
	if err != nil {
		a.Logger.Error("remove user: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo eliminar la cuenta",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	message := "Cuenta eliminada"
	if action == client.RemovalDeactivated {
		message = "Cuenta desactivada"
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventUserDeleted,
		UserID:    id,
		Metadata:  map[string]any{"action": string(action)},
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": message,
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

// AdminUserUpdatePayload carries the fields an administrator can edit on
// another account from the dashboard.
type AdminUserUpdatePayload struct {
	Name      string `form:"nombre" json:"nombre"`
	BirthDate string `form:"fechaNacimiento" json:"fechaNacimiento"`
}

// Validate will run validation rules
func (r AdminUserUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required.Error("El nombre es requerido"),
			validation.Length(1, 200),
		),
		validation.Field(
			&r.BirthDate,
			validation.Date("2006-01-02").Error("Fecha de nacimiento inválida"),
		),
	)
}

func (a *ConsoleController) UserUpdate(ctx router.Context) error {
	id := ctx.Param("id", "")
	payload := new(AdminUserUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("user update parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Revisa los datos del usuario",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	update := client.UpdateUser{
		Name:      payload.Name,
		BirthDate: payload.BirthDate,
	}

	if err := a.Backend.UpdateProfile(ctx.Context(), id, update); err != nil {
		a.Logger.Error("user update: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo actualizar el usuario",
		}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventUserUpdated,
		UserID:    id,
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Datos actualizados",
	}).Redirect(a.Routes.Dashboard, fiber.StatusSeeOther)
}

func (a *ConsoleController) ProfileShow(ctx router.Context) error {
	session, ok := SessionFromContext(ctx)
	if !ok {
		return ctx.Redirect(a.Routes.Login, router.StatusSeeOther)
	}

	user, err := a.Backend.FindUser(ctx.Context(), session.UserID)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Profile, router.ViewContext{
		"session":  session,
		"record":   user,
		"photoURL": a.Backend.PhotoURL(user.ID, time.Now().Unix()),
	})
}

// ProfileUpdatePayload carries the editable profile fields. Fields left
// empty are dropped from the PATCH so the update stays partial.
type ProfileUpdatePayload struct {
	Name      string `form:"nombre" json:"nombre"`
	BirthDate string `form:"fechaNacimiento" json:"fechaNacimiento"`
	Phone     string `form:"telefono" json:"telefono"`
	Address   string `form:"direccion" json:"direccion"`
}

// Validate will run validation rules
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Name,
			validation.Required.Error("El nombre es requerido"),
			validation.Length(1, 200),
		),
		validation.Field(
			&r.Phone,
			validation.By(validatePhone),
		),
	)
}

// validatePhone accepts an empty value and otherwise requires a phone number
// that parses and validates for the MX region, the platform's home market.
func validatePhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	num, err := phonenumbers.Parse(s, "MX")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return stderrors.New("Teléfono inválido")
	}
	return nil
}

func (a *ConsoleController) ProfileUpdate(ctx router.Context) error {
	session, _ := SessionFromContext(ctx)
	payload := new(ProfileUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("profile parse payload: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		user, findErr := a.Backend.FindUser(ctx.Context(), session.UserID)
		if findErr != nil {
			return a.ErrorHandler(ctx, findErr)
		}
		return ctx.Render(a.Views.Profile, router.ViewContext{
			"session":    session,
			"record":     user,
			"validation": FormatValidationErrorToMap(err),
			"photoURL":   a.Backend.PhotoURL(user.ID, time.Now().Unix()),
		})
	}

	update := client.UpdateUser{
		Name:      payload.Name,
		BirthDate: payload.BirthDate,
		Phone:     payload.Phone,
		Address:   payload.Address,
	}

	if err := a.Backend.UpdateProfile(ctx.Context(), session.UserID, update); err != nil {
		a.Logger.Error("profile update: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo actualizar el perfil",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Perfil actualizado",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

func (a *ConsoleController) ProfilePhotoUpload(ctx router.Context) error {
	session, _ := SessionFromContext(ctx)

	header, err := ctx.FormFile("photo")
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Selecciona una imagen",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	file, err := header.Open()
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	err = a.Backend.UploadPhoto(
		ctx.Context(),
		session.UserID,
		header.Filename,
		contentType,
		header.Size,
		file,
	)
	if err != nil {
		a.Logger.Error("photo upload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo subir la foto",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfilePhotoChange,
		UserID:    session.UserID,
		Metadata:  map[string]any{"action": "uploaded"},
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Foto actualizada",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

func (a *ConsoleController) ProfilePhotoDelete(ctx router.Context) error {
	session, _ := SessionFromContext(ctx)

	if err := a.Backend.DeletePhoto(ctx.Context(), session.UserID); err != nil {
		a.Logger.Error("photo delete: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo eliminar la foto",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	a.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfilePhotoChange,
		UserID:    session.UserID,
		Metadata:  map[string]any{"action": "deleted"},
	})

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Foto eliminada",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

// ProfileEmailPayload updates the account email.
type ProfileEmailPayload struct {
	Email string `form:"correo" json:"correo"`
}

// Validate will run validation rules
func (r ProfileEmailPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required.Error("El correo es requerido"),
			is.Email.Error("Correo electrónico inválido"),
		),
	)
}

func (a *ConsoleController) ProfileEmailUpdate(ctx router.Context) error {
	session, _ := SessionFromContext(ctx)
	payload := new(ProfileEmailPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Correo electrónico inválido",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	if err := a.Backend.UpdateEmail(ctx.Context(), session.UserID, payload.Email); err != nil {
		a.Logger.Error("email update: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo actualizar el correo",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	// Keep the persisted session in line with the backend.
	session.Email = payload.Email
	if err := a.Sessions.Set(ctx.Context(), session); err != nil {
		a.Logger.Warn("session email sync: ", "error", err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Correo actualizado",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

// ProfilePasswordPayload changes the account password. The new password
// follows the same rules the registration wizard enforces.
type ProfilePasswordPayload struct {
	Current         string `form:"actual" json:"actual"`
	Password        string `form:"contrasenia" json:"contrasenia"`
	ConfirmPassword string `form:"confirmar" json:"confirmar"`
}

// Validate will run validation rules
func (r ProfilePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Current,
			validation.Required.Error("La contraseña actual es requerida"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("La contraseña es requerida"),
			validation.Length(minPasswordSize, 0).Error("Mínimo 10 caracteres"),
			validation.Match(upperPattern).Error("Debe incluir una mayúscula"),
			validation.Match(symbolPattern).Error("Debe incluir un símbolo"),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required.Error("Las contraseñas no coinciden"),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *ConsoleController) ProfilePasswordChange(ctx router.Context) error {
	session, _ := SessionFromContext(ctx)
	payload := new(ProfilePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Revisa los campos de contraseña",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	err := a.Backend.ChangePassword(ctx.Context(), session.UserID, payload.Current, payload.Password)
	if err != nil {
		a.Logger.Error("password change: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  surfaceMessage(err),
			"system_message": "No se pudo cambiar la contraseña",
		}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Contraseña actualizada",
	}).Redirect(a.Routes.Profile, fiber.StatusSeeOther)
}

func (a *ConsoleController) recordActivity(ctx router.Context, event ActivityEvent) {
	if session, ok := SessionFromContext(ctx); ok {
		event.Actor = ActorRef{ID: session.UserID, Type: "admin"}
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := a.Activity.Record(ctx.Context(), event); err != nil {
		a.Logger.Warn("activity sink error: %v", err)
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return stderrors.New("Las contraseñas no coinciden")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field-to-message map the views can index.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if stderrors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
