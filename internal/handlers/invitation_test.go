package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/mpavlov/studyhub-api/internal/middleware"
	"github.com/mpavlov/studyhub-api/internal/models"
	"github.com/mpavlov/studyhub-api/internal/services"
	"github.com/mpavlov/studyhub-api/pkg/dto"
	"github.com/mpavlov/studyhub-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupInvitationTest(t *testing.T) (*testutil.MockInvitationService, *testutil.MockSessionService, *InvitationHandler, *services.JWTService) {
	t.Helper()
	mockInvitationService := new(testutil.MockInvitationService)
	mockSessionService := new(testutil.MockSessionService)
	handler := NewInvitationHandler(mockInvitationService, mockSessionService)
	jwtSvc := services.NewJWTService("test-secret-key", 15*time.Minute)
	return mockInvitationService, mockSessionService, handler, jwtSvc
}

func invitationTestApp(handler *InvitationHandler, jwtSvc *services.JWTService) http.Handler {
	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/sessions/:id/invitations", handler.CreateForSession)
	app.Get("/sessions/:id/invitations", handler.ListForSession)
	app.Get("/invitations", handler.ListMine)
	app.Get("/invitations/pending", handler.ListPending)
	app.Post("/invitations/:id/accept", handler.Accept)
	app.Post("/invitations/:id/decline", handler.Decline)
	app.Post("/invitations/:id/rejoin", handler.Rejoin)
	return app
}

func TestInvitationHandler_CreateForSession_Success(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	sessionID := uuid.New()
	recipientID := uuid.New()
	created := []models.Invitation{
		{
			ID:          uuid.New(),
			SessionID:   sessionID,
			RecipientID: recipientID,
			SenderID:    &userID,
			Status:      models.InvitationStatusPending,
			Message:     "Join us",
		},
	}

	mockInvitationService.On("CreateInvitations", mock.Anything, sessionID, userID, []uuid.UUID{recipientID}, "Join us").
		Return(created, nil)

	app := invitationTestApp(handler, jwtSvc)
	body := dto.CreateInvitationsRequest{RecipientIDs: []uuid.UUID{recipientID}, Message: "Join us"}
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/sessions/"+sessionID.String()+"/invitations", body)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var response []dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, recipientID, response[0].RecipientID)
	assert.Equal(t, models.InvitationStatusPending, response[0].Status)

	mockInvitationService.AssertExpectations(t)
}

func TestInvitationHandler_CreateForSession_NoRecipients(t *testing.T) {
	_, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	sessionID := uuid.New()

	app := invitationTestApp(handler, jwtSvc)
	body := dto.CreateInvitationsRequest{RecipientIDs: []uuid.UUID{}}
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/sessions/"+sessionID.String()+"/invitations", body)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "recipient_ids is required")
}

func TestInvitationHandler_ListForSession_CreatorOnly(t *testing.T) {
	_, mockSessionService, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	sessionID := uuid.New()
	session := &models.Session{
		ID:        sessionID,
		GroupID:   uuid.New(),
		CreatedBy: uuid.New(),
	}

	mockSessionService.On("GetByID", mock.Anything, sessionID).Return(session, nil)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodGet, "/sessions/"+sessionID.String()+"/invitations", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockSessionService.AssertExpectations(t)
}

func TestInvitationHandler_Accept_Success(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	invitationID := uuid.New()
	respondedAt := time.Now()
	invitation := &models.Invitation{
		ID:          invitationID,
		SessionID:   uuid.New(),
		RecipientID: userID,
		Status:      models.InvitationStatusAccepted,
		RespondedAt: &respondedAt,
	}

	mockInvitationService.On("Respond", mock.Anything, invitationID, userID, services.ResponseAccept).
		Return(invitation, nil)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/invitations/"+invitationID.String()+"/accept", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, models.InvitationStatusAccepted, response.Status)
	assert.NotNil(t, response.RespondedAt)

	mockInvitationService.AssertExpectations(t)
}

func TestInvitationHandler_Decline_AlreadyResponded(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	invitationID := uuid.New()

	mockInvitationService.On("Respond", mock.Anything, invitationID, userID, services.ResponseDecline).
		Return(nil, services.ErrInvitationNotPending)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/invitations/"+invitationID.String()+"/decline", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already been responded to")
	mockInvitationService.AssertExpectations(t)
}

func TestInvitationHandler_Accept_WrongRecipient(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	invitationID := uuid.New()

	mockInvitationService.On("Respond", mock.Anything, invitationID, userID, services.ResponseAccept).
		Return(nil, services.ErrNotInviteRecipient)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/invitations/"+invitationID.String()+"/accept", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockInvitationService.AssertExpectations(t)
}

func TestInvitationHandler_Rejoin_NotDeclined(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	invitationID := uuid.New()

	mockInvitationService.On("Rejoin", mock.Anything, invitationID, userID).
		Return(nil, services.ErrInvitationNotDeclined)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodPost, "/invitations/"+invitationID.String()+"/rejoin", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "declined invitations")
	mockInvitationService.AssertExpectations(t)
}

func TestInvitationHandler_ListPending_MissingGroupID(t *testing.T) {
	_, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodGet, "/invitations/pending", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvitationHandler_ListPending_Success(t *testing.T) {
	mockInvitationService, _, handler, jwtSvc := setupInvitationTest(t)

	userID := uuid.New()
	groupID := uuid.New()
	invitations := []models.Invitation{
		{
			ID:          uuid.New(),
			SessionID:   uuid.New(),
			RecipientID: userID,
			Status:      models.InvitationStatusPending,
			Session: &models.Session{
				ID:      uuid.New(),
				GroupID: groupID,
				Title:   "Algebra review",
			},
		},
	}

	mockInvitationService.On("GetPendingForUserInGroup", mock.Anything, userID, groupID).
		Return(invitations, nil)

	app := invitationTestApp(handler, jwtSvc)
	req := authedRequest(t, jwtSvc, userID, http.MethodGet, "/invitations/pending?groupId="+groupID.String(), nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.InvitationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	require.NotNil(t, response[0].Session)
	assert.Equal(t, "Algebra review", response[0].Session.Title)

	mockInvitationService.AssertExpectations(t)
}
