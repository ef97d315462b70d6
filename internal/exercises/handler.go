package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/metrics"
	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=exercises_test

type exerciseTypesRepo interface {
	Get(ctx context.Context, id string) (ExerciseType, error)
	List(ctx context.Context, params ListParams) ([]ExerciseType, int, error)
	Add(ctx context.Context, exerciseType ExerciseType) error
	Update(ctx context.Context, exerciseType ExerciseType) error
	Delete(ctx context.Context, id string) error
}

type ListResponse struct {
	ExerciseTypes []ExerciseType `json:"exercises"`
	Total         int            `json:"total"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
}

type Handler struct {
	repo    exerciseTypesRepo
	metrics *metrics.Manager
}

func NewHandler(repo exerciseTypesRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	query := r.URL.Query()
	page, err := intParam(query.Get("page"), 0)
	if err != nil || page < 0 {
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	size, err := intParam(query.Get("size"), DefaultPageSize)
	if err != nil || size < 1 {
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	// the row offset must stay a 32-bit int
	if page > math.MaxInt32/size {
		http.Error(w, "parse form error, parameter <page> too big", http.StatusBadRequest)
		return
	}

	muscleGroup := strings.ToLower(query.Get("muscleGroup"))
	if muscleGroup != "" && !IsMuscleGroup(muscleGroup) {
		http.Error(w, "error, invalid muscle group", http.StatusBadRequest)
		return
	}

	var equipment []string
	if equipmentParam := query.Get("equipment"); equipmentParam != "" {
		equipment = cleanList(strings.Split(equipmentParam, ","))
	}

	params := ListParams{
		FilterParams: FilterParams{
			MuscleGroup: muscleGroup,
			Query:       query.Get("q"),
			Equipment:   equipment,
		},
		Page: page,
		Size: size,
	}

	exerciseTypes, total, err := handler.repo.List(ctx, params)
	if err != nil {
		log.Errorf("list exercise types: %s", err)
		http.Error(w, "failed to get exercise types", http.StatusInternalServerError)
		return
	}
	if exerciseTypes == nil {
		exerciseTypes = []ExerciseType{}
	}

	respJson, err := json.Marshal(ListResponse{
		ExerciseTypes: exerciseTypes,
		Total:         total,
		Page:          page,
		Size:          size,
	})
	if err != nil {
		log.Errorf("marshal exercise types: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	exerciseType, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrExerciseTypeNotFound) {
			http.Error(w, "exercise type not found", http.StatusNotFound)
			return
		}
		log.Errorf("get exercise type: %s", err)
		http.Error(w, "get exercise type failed", http.StatusInternalServerError)
		return
	}

	exTypeJson, err := json.Marshal(exerciseType)
	if err != nil {
		log.Errorf("marshal exercise type: %s", err)
		http.Error(w, "get exercise type failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exTypeJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	exerciseType, ok := decodeExerciseType(w, r, "add")
	if !ok {
		return
	}
	if exerciseType.CreatedAt.IsZero() {
		exerciseType.CreatedAt = time.Now()
	}

	if err := handler.repo.Add(ctx, exerciseType); err != nil {
		if errors.Is(err, ErrExerciseTypeExists) {
			http.Error(w, "add exercise type failed, already exists", http.StatusConflict)
			return
		}
		log.Errorf("add exercise type: %s", err)
		http.Error(w, "add exercise type failed", http.StatusInternalServerError)
		return
	}

	handler.countChange("add")
	log.Debugf("new exercise type added: %+v", exerciseType)
	w.WriteHeader(http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	exerciseType, ok := decodeExerciseType(w, r, "update")
	if !ok {
		return
	}
	if id := mux.Vars(r)["id"]; id != "" && id != exerciseType.ID {
		http.Error(w, "error, exercise id mismatch", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, exerciseType); err != nil {
		if errors.Is(err, ErrExerciseTypeNotFound) {
			http.Error(w, "update exercise type failed, not found", http.StatusNotFound)
			return
		}
		log.Errorf("update exercise type: %s", err)
		http.Error(w, "update exercise type failed", http.StatusInternalServerError)
		return
	}

	handler.countChange("update")
	log.Debugf("exercise type updated: %+v", exerciseType)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrExerciseTypeNotFound) {
			http.Error(w, "delete exercise type failed, not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete exercise type: %s", err)
		http.Error(w, "delete exercise type failed", http.StatusInternalServerError)
		return
	}

	handler.countChange("delete")
	log.Debugf("exercise type deleted: %s", id)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) countChange(op string) {
	handler.metrics.CounterExerciseTypesChanges.With(prometheus.Labels{"op": op}).Inc()
}

func decodeExerciseType(w http.ResponseWriter, r *http.Request, action string) (ExerciseType, bool) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return ExerciseType{}, false
	}

	var exerciseType ExerciseType
	if err := json.NewDecoder(r.Body).Decode(&exerciseType); err != nil {
		log.Errorf("%s exercise type, unmarshal json params: %s", action, err)
		http.Error(w, action+" exercise type failed", http.StatusBadRequest)
		return ExerciseType{}, false
	}

	exerciseType.normalize()
	if exerciseType.ID == "" || exerciseType.MuscleGroup == "" || exerciseType.Name == "" {
		http.Error(w, "error, exercise id, muscle group, and name are required", http.StatusBadRequest)
		return ExerciseType{}, false
	}
	if !IsMuscleGroup(exerciseType.MuscleGroup) {
		http.Error(w, "error, invalid muscle group", http.StatusBadRequest)
		return ExerciseType{}, false
	}

	return exerciseType, true
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
