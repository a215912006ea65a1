package console_test

import (
	"context"
	"net/http"
	"testing"

	console "github.com/douremember/go-admin-console"
	"github.com/douremember/go-admin-console/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestController(backend *MockAdminBackend) *console.ConsoleController {
	store := console.NewStore(console.NewMemoryStorage())
	return console.NewConsoleController(
		console.WithControllerSessions(store),
		console.WithControllerAuther(&MockAuthenticator{}),
		console.WithControllerGate(console.NewRouteGate(store)),
		console.WithControllerBackend(backend),
	)
}

func TestUserUpdatePersistsAndRedirects(t *testing.T) {
	backend := &MockAdminBackend{}
	controller := newTestController(backend)

	backend.On("UpdateProfile", mock.Anything, "u-9", client.UpdateUser{
		Name:      "Ana Cordero",
		BirthDate: "1980-05-04",
	}).Return(nil).Once()

	mockCtx := new(MockContext)
	mockCtx.On("Param", "id", "").Return("u-9")
	mockCtx.On("Context").Return(context.Background())
	mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*console.AdminUserUpdatePayload)
		payload.Name = "Ana Cordero"
		payload.BirthDate = "1980-05-04"
	}).Return(nil)
	mockCtx.On("Locals", mock.Anything).Return(nil)
	mockCtx.On("Locals", mock.Anything, mock.Anything).Return(nil)
	mockCtx.On("Cookie", mock.Anything).Return()
	mockCtx.On("Redirect", "/admin", []int{http.StatusSeeOther}).Return(nil)

	require.NoError(t, controller.UserUpdate(mockCtx))

	backend.AssertExpectations(t)
	mockCtx.AssertExpectations(t)
}

func TestUserUpdateRejectsEmptyName(t *testing.T) {
	backend := &MockAdminBackend{}
	controller := newTestController(backend)

	mockCtx := new(MockContext)
	mockCtx.On("Param", "id", "").Return("u-9")
	mockCtx.On("Bind", mock.Anything).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*console.AdminUserUpdatePayload)
		payload.Name = ""
	}).Return(nil)
	mockCtx.On("Locals", mock.Anything).Return(nil)
	mockCtx.On("Locals", mock.Anything, mock.Anything).Return(nil)
	mockCtx.On("Cookie", mock.Anything).Return()
	mockCtx.On("Redirect", "/admin", []int{http.StatusSeeOther}).Return(nil)

	require.NoError(t, controller.UserUpdate(mockCtx))

	backend.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserUpdateRejectsMalformedBirthDate(t *testing.T) {
	backend := &MockAdminBackend{}
	_ = newTestController(backend)

	payload := console.AdminUserUpdatePayload{Name: "Ana Cordero", BirthDate: "04/05/1980"}
	err := payload.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fecha de nacimiento inválida")

	backend.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterShowDoesNotCacheInvalidFlows(t *testing.T) {
	backend := &MockAdminBackend{}
	controller := newTestController(backend)

	backend.On("VerifyInvitation", mock.Anything, "bogus-token").
		Return(nil, assert.AnError).Twice()

	for i := 0; i < 2; i++ {
		mockCtx := new(MockContext)
		mockCtx.On("Query", "token", "").Return("bogus-token")
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("Render", "register", mock.Anything).Return(nil)

		require.NoError(t, controller.RegisterShow(mockCtx))
		mockCtx.AssertExpectations(t)
	}

	// Each visit on a bogus token re-verifies instead of filling the registry.
	backend.AssertExpectations(t)
}

func TestRegisterShowReusesVerifiedFlow(t *testing.T) {
	backend := &MockAdminBackend{}
	controller := newTestController(backend)

	backend.On("VerifyInvitation", mock.Anything, "tok-1").
		Return(&client.Invitation{Email: "doc@douremember.com", Role: "medico"}, nil).Once()

	for i := 0; i < 2; i++ {
		mockCtx := new(MockContext)
		mockCtx.On("Query", "token", "").Return("tok-1")
		mockCtx.On("Context").Return(context.Background())
		mockCtx.On("Render", "register", mock.Anything).Return(nil)

		require.NoError(t, controller.RegisterShow(mockCtx))
		mockCtx.AssertExpectations(t)
	}

	backend.AssertExpectations(t)
}
