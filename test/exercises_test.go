//go:build integration_test || all_tests

package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/fitcoach/internal/exercises"
	"github.com/2beens/fitcoach/internal/profile"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) exercisesRequest(method, path string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", profile.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBody
}

func (s *IntegrationTestSuite) listExercises(query url.Values) exercises.ListResponse {
	status, body := s.exercisesRequest(http.MethodGet, "/exercises?"+query.Encode(), nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp exercises.ListResponse
	s.Require().NoError(json.Unmarshal(body, &resp))
	return resp
}

func (s *IntegrationTestSuite) TestExercises_CRUD() {
	// a tag unique to this run keeps the list filters apart from other rows
	tag := strings.ToLower(gofakeit.LetterN(10))

	curl := exercises.ExerciseType{
		ID:          "curl-" + tag,
		MuscleGroup: "Biceps",
		Name:        "Barbell curl " + tag,
		Equipment:   []string{"barbell", " "},
	}
	hammer := exercises.ExerciseType{
		ID:          "hammer-" + tag,
		MuscleGroup: exercises.MuscleGroup.Biceps,
		Name:        "Hammer curl " + tag,
		Equipment:   []string{"dumbbell"},
	}
	squat := exercises.ExerciseType{
		ID:          "squat-" + tag,
		MuscleGroup: exercises.MuscleGroup.Legs,
		Name:        "Back squat " + tag,
		Equipment:   []string{"barbell", "rack"},
	}

	for _, exerciseType := range []exercises.ExerciseType{curl, hammer, squat} {
		status, body := s.exercisesRequest(http.MethodPost, "/exercises", exerciseType)
		s.Require().Equal(http.StatusCreated, status, string(body))
	}

	status, _ := s.exercisesRequest(http.MethodPost, "/exercises", curl)
	s.Equal(http.StatusConflict, status)

	// get, normalized on the way in
	status, body := s.exercisesRequest(http.MethodGet, "/exercises/"+curl.ID, nil)
	s.Require().Equal(http.StatusOK, status)
	var got exercises.ExerciseType
	s.Require().NoError(json.Unmarshal(body, &got))
	s.Equal(exercises.MuscleGroup.Biceps, got.MuscleGroup)
	s.Equal([]string{"barbell"}, got.Equipment)
	s.False(got.CreatedAt.IsZero())

	// filters
	list := s.listExercises(url.Values{"q": {tag}})
	s.Equal(3, list.Total)
	s.Len(list.ExerciseTypes, 3)
	// ordered by name
	s.Equal(squat.ID, list.ExerciseTypes[0].ID)

	list = s.listExercises(url.Values{"q": {tag}, "muscleGroup": {"BICEPS"}})
	s.Equal(2, list.Total)

	list = s.listExercises(url.Values{"q": {tag}, "equipment": {"barbell"}})
	s.Equal(2, list.Total)

	list = s.listExercises(url.Values{"q": {tag}, "equipment": {"rack,dumbbell"}})
	s.Equal(2, list.Total)

	// paging
	list = s.listExercises(url.Values{"q": {tag}, "size": {"2"}, "page": {"1"}})
	s.Equal(3, list.Total)
	s.Equal(1, list.Page)
	s.Equal(2, list.Size)
	s.Require().Len(list.ExerciseTypes, 1)
	s.Equal(hammer.ID, list.ExerciseTypes[0].ID)

	// update
	hammer.Description = "Neutral grip"
	hammer.Equipment = []string{"dumbbell", "bench"}
	status, body = s.exercisesRequest(http.MethodPut, "/exercises/"+hammer.ID, hammer)
	s.Require().Equal(http.StatusNoContent, status, string(body))

	status, body = s.exercisesRequest(http.MethodGet, "/exercises/"+hammer.ID, nil)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NoError(json.Unmarshal(body, &got))
	s.Equal("Neutral grip", got.Description)
	s.Equal([]string{"dumbbell", "bench"}, got.Equipment)

	status, _ = s.exercisesRequest(http.MethodPut, "/exercises/"+curl.ID, hammer)
	s.Equal(http.StatusBadRequest, status)

	// delete
	status, _ = s.exercisesRequest(http.MethodDelete, "/exercises/"+squat.ID, nil)
	s.Equal(http.StatusNoContent, status)
	status, _ = s.exercisesRequest(http.MethodDelete, "/exercises/"+squat.ID, nil)
	s.Equal(http.StatusNotFound, status)
	status, _ = s.exercisesRequest(http.MethodGet, "/exercises/"+squat.ID, nil)
	s.Equal(http.StatusNotFound, status)

	var count int
	s.Require().NoError(s.DB.QueryRow(
		`SELECT COUNT(*) FROM exercise_type WHERE name LIKE $1`, fmt.Sprintf("%%%s", tag),
	).Scan(&count))
	s.Equal(2, count)
}

func (s *IntegrationTestSuite) TestMetrics_Exposed() {
	status, _ := s.exercisesRequest(http.MethodGet, "/exercises", nil)
	s.Require().Equal(http.StatusOK, status)

	resp, err := s.httpClient.Get(metricsEndpoint)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "request_duration")
}
