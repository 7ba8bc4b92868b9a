package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/avalonhealth/hospital-api/api"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the reponse. Got '%s'", response.Body.String())
	}
}

func TestApp_AdmissionsUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/admin/admissions", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_AdmissionsInvalidToken(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/admin/admissions", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_DoctorRouteRejectsMissingToken(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/doctor/admissions", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_DoctorCanReachAdmitRoute(t *testing.T) {
	a.Router = a.New()
	token, err := api.IssueJWT(a.Config.JWTSecret, "doc-1", "doc@example.com", "doctor", []string{"doctor"})
	if err != nil {
		t.Fatal(err)
	}

	// empty body fails validation inside the handler, which proves the
	// route is mounted for doctor tokens rather than admin only
	req, _ := http.NewRequest("POST", "/api/doctor/admissions", strings.NewReader(`{}`))
	req.Header.Add("Authorization", "Bearer "+token)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusBadRequest, response.Code)
}

func TestApp_DoctorCanReachDischargeRoute(t *testing.T) {
	a.Router = a.New()

	req, _ := http.NewRequest("POST", "/api/doctor/admissions/ADM0001/discharge", nil)
	var match mux.RouteMatch
	if !a.Router.Match(req, &match) || match.MatchErr != nil {
		t.Errorf("discharge route is not mounted for doctor tokens")
	}
}

func TestApp_PortalRouteUnauthorized(t *testing.T) {
	a.Router = a.New()
	req, _ := http.NewRequest("GET", "/api/user/patients/1234/portal", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}
