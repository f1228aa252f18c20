package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carebridge/carebridge/internal/domain/note"
	"github.com/carebridge/carebridge/internal/domain/schedule"
	"github.com/carebridge/carebridge/internal/domain/steps"
	"github.com/carebridge/carebridge/internal/domain/user"
	"github.com/carebridge/carebridge/internal/rabbit"
	"github.com/carebridge/carebridge/internal/testserver"
)

func doJSON(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHTTPServer_Health(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_Register(t *testing.T) {
	ts := testserver.New(t)

	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/register", "", map[string]any{
		"email":      "Doc@Example.com",
		"password":   "s3cret-pass",
		"first_name": "Ada",
		"last_name":  "Bell",
		"role":       "Doctor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body["id"])
	require.Equal(t, "doc@example.com", body["email"])
	require.NotContains(t, body, "password_hash")
	require.NotContains(t, body, "private_key")
}

func TestHTTPServer_Register_Rejections(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)

	duplicate := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/register", "", map[string]any{
		"email":      "doc@example.com",
		"password":   "s3cret-pass",
		"first_name": "Ada",
		"last_name":  "Bell",
		"role":       "Doctor",
	})
	defer duplicate.Body.Close()
	require.Equal(t, http.StatusBadRequest, duplicate.StatusCode)

	badRole := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/register", "", map[string]any{
		"email":      "new@example.com",
		"password":   "s3cret-pass",
		"first_name": "Ada",
		"last_name":  "Bell",
		"role":       "Admin",
	})
	defer badRole.Body.Close()
	require.Equal(t, http.StatusBadRequest, badRole.StatusCode)
}

func TestHTTPServer_LoginAndRefresh(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)

	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/login", "", map[string]any{
		"email":    "pat@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login user.LoginResult
	decodeJSON(t, resp, &login)
	require.Equal(t, []user.Role{user.RolePatient}, login.Role)
	require.NotEmpty(t, login.Access)
	require.NotEmpty(t, login.Refresh)
	require.NotEmpty(t, login.AccessTokenExpiry)

	wrong := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/login", "", map[string]any{
		"email":    "pat@example.com",
		"password": "wrong",
	})
	defer wrong.Body.Close()
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)

	refreshed := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/token/refresh", "", map[string]any{
		"refresh": login.Refresh,
	})
	require.Equal(t, http.StatusOK, refreshed.StatusCode)

	var second user.LoginResult
	decodeJSON(t, refreshed, &second)
	require.NotEmpty(t, second.Access)

	garbage := doJSON(t, http.MethodPost, ts.Server.URL+"/api/auth/token/refresh", "", map[string]any{
		"refresh": "not-a-token",
	})
	defer garbage.Body.Close()
	require.Equal(t, http.StatusUnauthorized, garbage.StatusCode)
}

func TestHTTPServer_CurrentUser(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	token := ts.AccessToken(t, "doc@example.com", "s3cret-pass")

	resp := doJSON(t, http.MethodGet, ts.Server.URL+"/api/auth/user", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decodeJSON(t, resp, &body)
	require.Equal(t, "doc@example.com", body["email"])

	anonymous := doJSON(t, http.MethodGet, ts.Server.URL+"/api/auth/user", "", nil)
	defer anonymous.Body.Close()
	require.Equal(t, http.StatusUnauthorized, anonymous.StatusCode)

	forged := doJSON(t, http.MethodGet, ts.Server.URL+"/api/auth/user", "not-a-token", nil)
	defer forged.Body.Close()
	require.Equal(t, http.StatusUnauthorized, forged.StatusCode)
}

func TestHTTPServer_CreateNote(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	token := ts.AccessToken(t, "doc@example.com", "s3cret-pass")

	const content = "Take blood pressure medication every morning."
	resp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", token, map[string]any{
		"patient_id": patient.ID,
		"content":    content,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created note.Note
	decodeJSON(t, resp, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, content, created.Content)

	stored, err := ts.NoteStore.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotEqual(t, content, stored.Content)

	messages := ts.Publisher.Messages(rabbit.NotesQueue)
	require.Len(t, messages, 1)
	var queued note.QueueMessage
	require.NoError(t, json.Unmarshal(messages[0], &queued))
	require.Equal(t, created.ID, queued.NoteID)
	require.Equal(t, patient.ID, queued.PatientID)
	require.Equal(t, content, queued.NoteContent)
}

func TestHTTPServer_CreateNote_Rejections(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	docToken := ts.AccessToken(t, "doc@example.com", "s3cret-pass")
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	asPatient := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", patToken, map[string]any{
		"patient_id": patient.ID,
		"content":    "self-prescribed",
	})
	defer asPatient.Body.Close()
	require.Equal(t, http.StatusForbidden, asPatient.StatusCode)

	unknownPatient := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", docToken, map[string]any{
		"patient_id": "missing",
		"content":    "note",
	})
	defer unknownPatient.Body.Close()
	require.Equal(t, http.StatusBadRequest, unknownPatient.StatusCode)

	empty := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", docToken, map[string]any{
		"patient_id": patient.ID,
		"content":    "   ",
	})
	defer empty.Body.Close()
	require.Equal(t, http.StatusBadRequest, empty.StatusCode)

	anonymous := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", "", map[string]any{
		"patient_id": patient.ID,
		"content":    "note",
	})
	defer anonymous.Body.Close()
	require.Equal(t, http.StatusUnauthorized, anonymous.StatusCode)
}

func TestHTTPServer_GetNote(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	ts.RegisterUser(t, "other@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	docToken := ts.AccessToken(t, "doc@example.com", "s3cret-pass")
	otherToken := ts.AccessToken(t, "other@example.com", "s3cret-pass")
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	const content = "Schedule a physical therapy session."
	createResp := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes", docToken, map[string]any{
		"patient_id": patient.ID,
		"content":    content,
	})
	var created note.Note
	decodeJSON(t, createResp, &created)

	for _, token := range []string{docToken, patToken} {
		resp := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/"+created.ID, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var got note.Note
		decodeJSON(t, resp, &got)
		require.Equal(t, content, got.Content)
	}

	foreign := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/"+created.ID, otherToken, nil)
	defer foreign.Body.Close()
	require.Equal(t, http.StatusForbidden, foreign.StatusCode)

	missing := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/does-not-exist", docToken, nil)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func seedSteps(t *testing.T, ts *testserver.TestServer, noteID, patientID string) []string {
	t.Helper()

	ids, err := ts.Steps.CreateActionableSteps(context.Background(), noteID, steps.Payload{
		Checklist: []steps.ChecklistItem{
			{Description: "Check temperature", Priority: steps.PriorityHigh},
		},
		Plan: []steps.PlanItem{
			{
				Description: "Take antibiotics",
				PatientID:   patientID,
				Schedule: schedule.Definition{
					Type:          schedule.FrequencyIntervalBased,
					Duration:      2,
					IntervalHours: 8,
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	return ids
}

func TestHTTPServer_ListSteps(t *testing.T) {
	ts := testserver.New(t)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	seedSteps(t, ts, "note1", patient.ID)

	resp := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/note1/steps", patToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []steps.Step
	decodeJSON(t, resp, &list)
	require.Len(t, list, 2)
	require.Equal(t, steps.TypeChecklist, list[0].Type)
	require.Equal(t, steps.TypePlan, list[1].Type)
}

func TestHTTPServer_CompleteStep(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	docToken := ts.AccessToken(t, "doc@example.com", "s3cret-pass")
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	ids := seedSteps(t, ts, "note1", patient.ID)
	planStepID := ids[1]
	completeURL := ts.Server.URL + "/api/notes/note1/steps/" + planStepID + "/complete"

	asDoctor := doJSON(t, http.MethodPost, completeURL, docToken, nil)
	defer asDoctor.Body.Close()
	require.Equal(t, http.StatusForbidden, asDoctor.StatusCode)

	first := doJSON(t, http.MethodPost, completeURL, patToken, nil)
	require.Equal(t, http.StatusOK, first.StatusCode)
	var state schedule.State
	decodeJSON(t, first, &state)
	require.Equal(t, 1, state.CompletedOccurrences)
	require.Equal(t, 2, state.TotalOccurrences)
	require.True(t, state.IsActive)

	second := doJSON(t, http.MethodPost, completeURL, patToken, nil)
	require.Equal(t, http.StatusOK, second.StatusCode)
	decodeJSON(t, second, &state)
	require.Equal(t, 2, state.CompletedOccurrences)
	require.False(t, state.IsActive)

	third := doJSON(t, http.MethodPost, completeURL, patToken, nil)
	defer third.Body.Close()
	require.Equal(t, http.StatusNotFound, third.StatusCode)
}

func TestHTTPServer_Notifications(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	docToken := ts.AccessToken(t, "doc@example.com", "s3cret-pass")
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	seedSteps(t, ts, "note1", patient.ID)

	// Nothing is due right after scheduling.
	resp := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/note1/notifications", patToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var due []schedule.Notification
	decodeJSON(t, resp, &due)
	require.Empty(t, due)

	entry, err := json.Marshal(schedule.CacheEntry{
		NextOccurrence: time.Now().UTC().Add(-time.Hour),
		Description:    "Take antibiotics",
	})
	require.NoError(t, err)
	key := schedule.CacheKey("note1", patient.ID)
	require.NoError(t, ts.Cache.Set(context.Background(), key, entry, time.Hour))

	resp = doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/note1/notifications", patToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &due)
	require.Len(t, due, 1)
	require.Equal(t, "Take antibiotics", due[0].Description)
	require.Equal(t, patient.ID, due[0].PatientID)

	// Doctors must name the patient they are asking about.
	noParam := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/note1/notifications", docToken, nil)
	defer noParam.Body.Close()
	require.Equal(t, http.StatusBadRequest, noParam.StatusCode)

	asDoctor := doJSON(t, http.MethodGet, ts.Server.URL+"/api/notes/note1/notifications?patient_id="+patient.ID, docToken, nil)
	require.Equal(t, http.StatusOK, asDoctor.StatusCode)
	decodeJSON(t, asDoctor, &due)
	require.Len(t, due, 1)
}

func TestHTTPServer_CancelSchedules(t *testing.T) {
	ts := testserver.New(t)
	ts.RegisterUser(t, "doc@example.com", "s3cret-pass", user.RoleDoctor)
	patient := ts.RegisterUser(t, "pat@example.com", "s3cret-pass", user.RolePatient)
	docToken := ts.AccessToken(t, "doc@example.com", "s3cret-pass")
	patToken := ts.AccessToken(t, "pat@example.com", "s3cret-pass")

	ids := seedSteps(t, ts, "note1", patient.ID)
	planStepID := ids[1]

	asPatient := doJSON(t, http.MethodDelete, ts.Server.URL+"/api/notes/note1/schedules", patToken, nil)
	defer asPatient.Body.Close()
	require.Equal(t, http.StatusForbidden, asPatient.StatusCode)

	resp := doJSON(t, http.MethodDelete, ts.Server.URL+"/api/notes/note1/schedules", docToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeJSON(t, resp, &body)
	require.Equal(t, "cancelled", body["status"])

	complete := doJSON(t, http.MethodPost, ts.Server.URL+"/api/notes/note1/steps/"+planStepID+"/complete", patToken, nil)
	defer complete.Body.Close()
	require.Equal(t, http.StatusNotFound, complete.StatusCode)
}
