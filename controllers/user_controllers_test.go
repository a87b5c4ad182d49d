package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dordoifood/restaurant-app/controllers"
	"github.com/dordoifood/restaurant-app/middlewares"
)

func newUserRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := newTestDB(t)
	userCtrl := controllers.NewUserController(db)

	r := gin.New()
	r.POST("/register", middlewares.OptionalAuth(), userCtrl.Register)
	r.POST("/login", userCtrl.Login)
	return r
}

func TestRegisterAndLogin(t *testing.T) {
	env := &testEnv{router: newUserRouter(t)}

	// First registration is open and bootstraps the admin account.
	code, resp := env.request(t, http.MethodPost, "/register", map[string]string{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": "secret12345",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User registered", resp.Message)

	// After the first account, anonymous registration is closed.
	code, resp = env.request(t, http.MethodPost, "/register", map[string]string{
		"name":     "Intruder",
		"email":    "intruder@example.com",
		"password": "secret12345",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Status)

	code, resp = env.request(t, http.MethodPost, "/login", map[string]string{
		"email":    "admin@example.com",
		"password": "secret12345",
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", resp.Message)
	token, _ := resp.Data["token"].(string)
	assert.NotEmpty(t, token)
	assert.Equal(t, "admin", resp.Data["user_role"])

	// An admin's token reopens registration for staff accounts.
	code, resp = env.requestAs(t, http.MethodPost, "/register", token, map[string]string{
		"name":     "Cashier",
		"email":    "cashier@example.com",
		"password": "secret12345",
		"role":     "staff",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User registered", resp.Message)

	code, resp = env.request(t, http.MethodPost, "/login", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, resp.Status)
}
