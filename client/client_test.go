package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/douremember/go-admin-console/client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticToken(token string) client.TokenSourceFunc {
	return func(ctx context.Context) (string, bool) {
		return token, token != ""
	}
}

func TestLoginSuccess(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/usuarios-autenticacion/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"ok":           true,
			"user_id":      "u-1",
			"access_token": "token-1",
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	result, err := c.Login(context.Background(), "admin@douremember.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", result.UserID)
	assert.Equal(t, "token-1", result.AccessToken)
	assert.Equal(t, "admin@douremember.com", gotBody["email"])
	assert.Equal(t, "secret", gotBody["password"])
}

func TestLoginRejectedWhenNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.Login(context.Background(), "admin@douremember.com", "wrong")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.Equal(t, "Credenciales inválidas", richErr.Message)
}

func TestErrorMessageExtraction(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field", http.StatusBadRequest, `{"message":"El correo ya existe"}`, "El correo ya existe"},
		{"error field", http.StatusBadRequest, `{"error":"Token inválido"}`, "Token inválido"},
		{"raw text", http.StatusBadRequest, "algo salió mal", "algo salió mal"},
		{"empty body", http.StatusBadRequest, "", "Error en la solicitud"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := client.New(srv.URL)
			_, err := c.Login(context.Background(), "a@b.com", "x")
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, tc.expected, richErr.Message)
		})
	}
}

func TestResponseErrorCategories(t *testing.T) {
	cases := []struct {
		status   int
		category goerrors.Category
	}{
		{http.StatusUnauthorized, goerrors.CategoryAuth},
		{http.StatusForbidden, goerrors.CategoryAuthz},
		{http.StatusNotFound, goerrors.CategoryNotFound},
		{http.StatusUnprocessableEntity, goerrors.CategoryBadInput},
		{http.StatusInternalServerError, goerrors.CategoryInternal},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
		_, err := c.ListUsers(context.Background())
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, tc.category, richErr.Category, "status %d", tc.status)
		assert.Equal(t, tc.status, richErr.Code)
		srv.Close()
	}
}

func TestFindUserUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usuarios-autenticacion/buscarUsuario/u-1", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"usuarios": []map[string]any{
				{"idUsuario": "u-1", "nombre": "Ana", "correo": "ana@x.com", "rol": "administrador", "status": "activo"},
			},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("token-1")))
	user, err := c.FindUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "administrador", user.Role)
}

func TestFindUserEmptyEnvelopeIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"usuarios": []any{}})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	_, err := c.FindUser(context.Background(), "ghost")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryNotFound, richErr.Category)
	assert.Equal(t, "No se encontró el usuario", richErr.Message)
}

func TestListDoctorsFiltersClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"usuarios": []map[string]any{
				{"idUsuario": "1", "rol": "medico"},
				{"idUsuario": "2", "rol": "paciente"},
				{"idUsuario": "3", "rol": "medico"},
			},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	doctors, err := c.ListDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 2)
	assert.Equal(t, "1", doctors[0].ID)
	assert.Equal(t, "3", doctors[1].ID)
}

func TestRemoveUserFallsBackToDeactivation(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotImplemented)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))

	action, err := c.RemoveUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, client.RemovalDeactivated, action)
	assert.False(t, c.Capabilities().HardDelete)
	assert.Equal(t, []string{
		"DELETE /api/usuarios-autenticacion/borrarPerfil/u-1",
		"PATCH /api/usuarios-autenticacion/cuentaInactiva/u-1",
	}, calls)

	// The renegotiated capability sticks: no second DELETE attempt.
	calls = nil
	action, err = c.RemoveUser(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, client.RemovalDeactivated, action)
	assert.Equal(t, []string{"PATCH /api/usuarios-autenticacion/cuentaInactiva/u-2"}, calls)
}

func TestRemoveUserHardDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	action, err := c.RemoveUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, client.RemovalDeleted, action)
	assert.True(t, c.Capabilities().HardDelete)
}

func TestRemoveUserRealFailureIsNotRenegotiated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	_, err := c.RemoveUser(context.Background(), "u-1")
	require.Error(t, err)
	assert.True(t, c.Capabilities().HardDelete)
}

func TestToggleStatusFlips(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/usuarios-autenticacion/actualizarPerfil/u-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))

	next, err := c.ToggleStatus(context.Background(), "u-1", client.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, client.StatusInactive, next)
	assert.Equal(t, client.StatusInactive, gotBody["status"])

	next, err = c.ToggleStatus(context.Background(), "u-1", client.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, client.StatusActive, next)
}

func TestVerifyInvitationEscapesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usuarios-autenticacion/verificarToken", r.URL.Path)
		assert.Equal(t, "tok/+1", r.URL.Query().Get("token"))
		// Verification happens before the invitee has a session.
		assert.Empty(t, r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"invitacion": map[string]any{
				"correo":         "doc@x.com",
				"rol":            "medico",
				"nombreCompleto": "Carla Ruiz",
			},
		})
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	inv, err := c.VerifyInvitation(context.Background(), "tok/+1")
	require.NoError(t, err)
	assert.Equal(t, "doc@x.com", inv.Email)
	assert.Equal(t, "medico", inv.Role)
	assert.Equal(t, "Carla Ruiz", inv.FullName)
}

func TestCreateInvitationSerializesNullIDMedico(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	err := c.CreateInvitation(context.Background(), client.CreateInvitation{
		FullName: "Carla Ruiz",
		Email:    "doc@x.com",
		Role:     "medico",
	})
	require.NoError(t, err)

	// The backend requires the key even when there is no value.
	value, present := raw["idMedico"]
	require.True(t, present)
	assert.Equal(t, "null", string(value))
}

func TestUploadPhotoRejectsNonImage(t *testing.T) {
	c := client.New("http://unused", client.WithTokenSource(staticToken("t")))

	err := c.UploadPhoto(context.Background(), "u-1", "doc.pdf", "application/pdf", 100, strings.NewReader("x"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Contains(t, richErr.Message, "imagen válida")
}

func TestUploadPhotoRejectsOversize(t *testing.T) {
	c := client.New("http://unused", client.WithTokenSource(staticToken("t")))

	err := c.UploadPhoto(context.Background(), "u-1", "big.png", "image/png", client.MaxPhotoSize+1, strings.NewReader("x"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "La imagen no debe superar 5MB", richErr.Message)
}

func TestUploadPhotoSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/usuarios/u-1/foto", r.URL.Path)
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(client.MaxPhotoSize))
		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "avatar.png", header.Filename)

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	err := c.UploadPhoto(context.Background(), "u-1", "avatar.png", "image/png", 4, strings.NewReader("data"))
	require.NoError(t, err)
}

func TestPhotoURLCacheBust(t *testing.T) {
	c := client.New("http://api.local")

	assert.Equal(t, "http://api.local/api/usuarios/u-1/foto", c.PhotoURL("u-1", 0))
	assert.Equal(t, "http://api.local/api/usuarios/u-1/foto?t=1700000000", c.PhotoURL("u-1", 1700000000))
}

func TestAuthorizedCallWithoutTokenFailsEarly(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := client.New(srv.URL)
	_, err := c.ListUsers(context.Background())
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.False(t, called)
}

func TestChangePasswordPayload(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/usuarios-autenticacion/cambiar-contrasena", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTokenSource(staticToken("t")))
	require.NoError(t, c.ChangePassword(context.Background(), "u-1", "old", "Newpass+123"))
	assert.Equal(t, "u-1", gotBody["idUsuario"])
	assert.Equal(t, "old", gotBody["contraseniaActual"])
	assert.Equal(t, "Newpass+123", gotBody["contraseniaNueva"])
}
