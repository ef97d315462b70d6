package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=profile_test

type profileService interface {
	Get(ctx context.Context, id int) (*Profile, error)
	Update(ctx context.Context, id int, in Input) (*Profile, error)
	RequestEmailChange(ctx context.Context, id int, newEmail string) (string, error)
	ConfirmEmailChange(ctx context.Context, id int, requestID, code string) (*Profile, error)
}

type Handler struct {
	service profileService
}

func NewHandler(service profileService) *Handler {
	return &Handler{
		service: service,
	}
}

type EmailChangeRequest struct {
	Email string `json:"email"`
}

type EmailChangeResponse struct {
	RequestID string `json:"requestId"`
}

type EmailConfirmRequest struct {
	RequestID string `json:"requestId"`
	Code      string `json:"code"`
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.get")
	defer span.End()

	id, ok := profileIDFromVars(w, r)
	if !ok {
		return
	}

	p, err := handler.service.Get(ctx, id)
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}

	writeProfile(w, p, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.update")
	defer span.End()

	id, ok := profileIDFromVars(w, r)
	if !ok {
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		log.Errorf("update profile, unmarshal json input: %s", err)
		http.Error(w, "update profile failed, invalid input", http.StatusBadRequest)
		return
	}

	p, err := handler.service.Update(ctx, id, in)
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}

	log.Debugf("profile [%d] updated, fields: %v", id, in.Fields())
	writeProfile(w, p, http.StatusOK)
}

func (handler *Handler) HandleRequestEmailChange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.request_email_change")
	defer span.End()

	id, ok := profileIDFromVars(w, r)
	if !ok {
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req EmailChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("request email change, unmarshal json: %s", err)
		http.Error(w, "request email change failed, invalid input", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "error, email is required", http.StatusBadRequest)
		return
	}

	requestID, err := handler.service.RequestEmailChange(ctx, id, req.Email)
	if err != nil {
		writeServiceError(w, "request email change", err)
		return
	}

	respJson, err := json.Marshal(EmailChangeResponse{RequestID: requestID})
	if err != nil {
		log.Errorf("marshal email change response: %s", err)
		http.Error(w, "request email change failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusAccepted)
}

func (handler *Handler) HandleConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profile.confirm_email_change")
	defer span.End()

	id, ok := profileIDFromVars(w, r)
	if !ok {
		return
	}
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req EmailConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("confirm email change, unmarshal json: %s", err)
		http.Error(w, "confirm email change failed, invalid input", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" || req.Code == "" {
		http.Error(w, "error, request id and code are required", http.StatusBadRequest)
		return
	}

	p, err := handler.service.ConfirmEmailChange(ctx, id, req.RequestID, req.Code)
	if err != nil {
		writeServiceError(w, "confirm email change", err)
		return
	}

	log.Debugf("profile [%d] email changed", id)
	writeProfile(w, p, http.StatusOK)
}

func profileIDFromVars(w http.ResponseWriter, r *http.Request) (int, bool) {
	idParam := mux.Vars(r)["id"]
	if idParam == "" {
		http.Error(w, "error, profile id empty", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.Atoi(idParam)
	if err != nil || id <= 0 {
		http.Error(w, "error, profile id invalid", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeProfile(w http.ResponseWriter, p *Profile, status int) {
	pJson, err := json.Marshal(p)
	if err != nil {
		log.Errorf("marshal profile: %s", err)
		http.Error(w, "marshal profile failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, pJson, status)
}

func writeServiceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrProfileNotFound):
		http.Error(w, action+" failed, profile not found", http.StatusNotFound)
	case errors.Is(err, ErrRequestNotFound):
		http.Error(w, action+" failed, request not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidCode):
		http.Error(w, action+" failed, "+err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, action+" failed, email already in use", http.StatusConflict)
	case errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrUnknownField),
		errors.Is(err, ErrVerificationOnly):
		http.Error(w, action+" failed, "+err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", action, err)
		http.Error(w, action+" failed", http.StatusInternalServerError)
	}
}
