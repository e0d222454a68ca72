package handlers

import (
	"context"
	"net/http"
	"time"

	boilerassistant "github.com/prairiewillow-rgb/Boiler-Assistant"
	"github.com/prairiewillow-rgb/Boiler-Assistant/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockBoiler struct {
	boostErr    error
	safetyErr   error
	resetErr    error
	settings    boilerassistant.Settings
	settingsErr error
	updateErr   error

	boostCalls  int
	safetyCalls int
	resetCalls  int
	lastReason  string
	lastPatch   service.SettingsPatch
}

func (m *mockBoiler) StartBoost(ctx context.Context) error {
	m.boostCalls++
	return m.boostErr
}
func (m *mockBoiler) ForceSafety(ctx context.Context, reason string) error {
	m.safetyCalls++
	m.lastReason = reason
	return m.safetyErr
}
func (m *mockBoiler) ClearSafety(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}
func (m *mockBoiler) GetSettings(ctx context.Context) (boilerassistant.Settings, error) {
	return m.settings, m.settingsErr
}
func (m *mockBoiler) UpdateSettings(ctx context.Context, p service.SettingsPatch) (boilerassistant.Settings, error) {
	m.lastPatch = p
	if m.updateErr != nil {
		return boilerassistant.Settings{}, m.updateErr
	}
	return m.settings, nil
}

type mockMonitoring struct {
	status boilerassistant.ControlStatus
	err    error
}

func (m *mockMonitoring) Status(ctx context.Context) (boilerassistant.ControlStatus, error) {
	return m.status, m.err
}

type mockEventLog struct {
	resp     []boilerassistant.BoilerEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]boilerassistant.BoilerEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
