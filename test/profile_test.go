//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fitcoach/internal/autosave"
	"github.com/2beens/fitcoach/internal/notify"
	"github.com/2beens/fitcoach/internal/profile"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lib/pq"
)

const testDebounceDelay = 50 * time.Millisecond

func (s *IntegrationTestSuite) newEditorSession() (*profile.Client, *autosave.Coordinator, *notify.ChanNotifier) {
	client := profile.NewClient(serverEndpoint, s.httpClient, 512*1024)
	notifier := notify.NewChanNotifier(8)
	coordinator := autosave.New(client, client, notifier, autosave.Options{
		Delay:           testDebounceDelay,
		NotifyOnSuccess: true,
	})
	return client, coordinator, notifier
}

func (s *IntegrationTestSuite) waitForNotification(notifier *notify.ChanNotifier) notify.Notification {
	select {
	case n := <-notifier.C():
		return n
	case <-time.After(5 * time.Second):
		s.FailNow("no notification received")
		return notify.Notification{}
	}
}

func (s *IntegrationTestSuite) TestProfile_AutoSave() {
	ctx := context.Background()
	id := s.newProfile()

	client, coordinator, notifier := s.newEditorSession()
	defer coordinator.Close()

	p, err := client.FetchProfile(ctx, id)
	s.Require().NoError(err)
	coordinator.Load(p)

	newBio := gofakeit.Sentence(10)
	coordinator.Edit(profile.FieldBio, profile.String(newBio[:5]))
	coordinator.Edit(profile.FieldBio, profile.String(newBio))
	coordinator.Edit(profile.FieldHeight, profile.Number(181.5))
	coordinator.Edit(profile.FieldLanguages, profile.Strings("en", "sr"))

	n := s.waitForNotification(notifier)
	s.Equal(notify.LevelSuccess, n.Level)
	s.Equal(autosave.StateIdle, coordinator.State())

	var (
		bio       string
		height    sql.NullFloat64
		languages []string
		firstName string
	)
	err = s.DB.QueryRow(
		`SELECT bio, height, languages, first_name FROM profile WHERE id = $1`, id,
	).Scan(&bio, &height, pq.Array(&languages), &firstName)
	s.Require().NoError(err)
	s.Equal(newBio, bio)
	s.True(height.Valid)
	s.Equal(181.5, height.Float64)
	s.Equal([]string{"en", "sr"}, languages)
	s.Equal(p.FirstName, firstName)

	// the client cache was dropped after the save
	fresh, err := client.FetchProfile(ctx, id)
	s.Require().NoError(err)
	s.Equal(newBio, fresh.Bio)
	s.Equal(newBio, coordinator.Draft().Bio)
}

func (s *IntegrationTestSuite) TestProfile_AutoSave_ClearNullable() {
	ctx := context.Background()
	id := s.newProfile()
	_, err := s.DB.Exec(`UPDATE profile SET phone = $2, weight = $3 WHERE id = $1`, id, gofakeit.Phone(), 80.0)
	s.Require().NoError(err)

	client, coordinator, notifier := s.newEditorSession()
	defer coordinator.Close()

	p, err := client.FetchProfile(ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(p.Phone)
	coordinator.Load(p)

	coordinator.Edit(profile.FieldPhone, profile.Null())
	coordinator.Edit(profile.FieldWeight, profile.Null())
	s.Equal(notify.LevelSuccess, s.waitForNotification(notifier).Level)

	var (
		phone  sql.NullString
		weight sql.NullFloat64
	)
	err = s.DB.QueryRow(`SELECT phone, weight FROM profile WHERE id = $1`, id).Scan(&phone, &weight)
	s.Require().NoError(err)
	s.False(phone.Valid)
	s.False(weight.Valid)
}

func (s *IntegrationTestSuite) TestProfile_AutoSave_RejectedThenFixed() {
	ctx := context.Background()
	id := s.newProfile()

	client, coordinator, notifier := s.newEditorSession()
	defer coordinator.Close()

	p, err := client.FetchProfile(ctx, id)
	s.Require().NoError(err)
	coordinator.Load(p)

	// right kind, out of range: only the server rejects it
	coordinator.Edit(profile.FieldHeight, profile.Number(1000))
	n := s.waitForNotification(notifier)
	s.Equal(notify.LevelError, n.Level)
	s.Equal(autosave.StatePending, coordinator.State())
	s.Contains(coordinator.Pending(), profile.FieldHeight)
	s.Equal(1000.0, *coordinator.Draft().Height)

	var height sql.NullFloat64
	s.Require().NoError(s.DB.QueryRow(`SELECT height FROM profile WHERE id = $1`, id).Scan(&height))
	s.False(height.Valid)

	coordinator.Edit(profile.FieldHeight, profile.Number(190))
	s.Equal(notify.LevelSuccess, s.waitForNotification(notifier).Level)
	s.Empty(coordinator.Pending())

	s.Require().NoError(s.DB.QueryRow(`SELECT height FROM profile WHERE id = $1`, id).Scan(&height))
	s.Equal(190.0, height.Float64)
}

func (s *IntegrationTestSuite) TestProfile_AutoSave_CloseReturnsUnsent() {
	ctx := context.Background()
	id := s.newProfile()

	client := profile.NewClient(serverEndpoint, s.httpClient, 512*1024)
	coordinator := autosave.New(client, client, nil, autosave.Options{Delay: time.Hour})

	p, err := client.FetchProfile(ctx, id)
	s.Require().NoError(err)
	coordinator.Load(p)
	coordinator.Edit(profile.FieldLocation, profile.String("Belgrade"))

	unsent := coordinator.Close()
	s.Equal(profile.Input{profile.FieldLocation: profile.String("Belgrade")}, unsent)

	var location string
	s.Require().NoError(s.DB.QueryRow(`SELECT location FROM profile WHERE id = $1`, id).Scan(&location))
	s.Empty(location)
}

func (s *IntegrationTestSuite) TestProfile_NotFound() {
	client := profile.NewClient(serverEndpoint, s.httpClient, 512*1024)
	_, err := client.FetchProfile(context.Background(), 987654)

	var apiErr *profile.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
}

func (s *IntegrationTestSuite) TestProfile_EmailChange() {
	ctx := context.Background()
	id := s.newProfile()
	client := profile.NewClient(serverEndpoint, s.httpClient, 512*1024)

	newEmail := gofakeit.Email()
	requestID, err := client.RequestEmailChange(ctx, id, newEmail)
	s.Require().NoError(err)
	s.NotEmpty(requestID)

	code := s.mailer.lastCode(newEmail)
	s.Require().Len(code, 6)

	wrongCode := "000000"
	if code == wrongCode {
		wrongCode = "111111"
	}
	_, err = client.ConfirmEmailChange(ctx, id, requestID, wrongCode)
	var apiErr *profile.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusUnprocessableEntity, apiErr.StatusCode)

	changed, err := client.ConfirmEmailChange(ctx, id, requestID, code)
	s.Require().NoError(err)
	s.Equal(newEmail, changed.Email)

	var email string
	s.Require().NoError(s.DB.QueryRow(`SELECT email FROM profile WHERE id = $1`, id).Scan(&email))
	s.Equal(newEmail, email)

	// a confirmed request is gone
	_, err = client.ConfirmEmailChange(ctx, id, requestID, code)
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
}

func (s *IntegrationTestSuite) TestProfile_EmailChange_Taken() {
	ctx := context.Background()
	id := s.newProfile()
	otherID := s.newProfile()

	var takenEmail string
	s.Require().NoError(s.DB.QueryRow(`SELECT email FROM profile WHERE id = $1`, otherID).Scan(&takenEmail))

	client := profile.NewClient(serverEndpoint, s.httpClient, 512*1024)
	requestID, err := client.RequestEmailChange(ctx, id, takenEmail)
	s.Require().NoError(err)

	_, err = client.ConfirmEmailChange(ctx, id, requestID, s.mailer.lastCode(takenEmail))
	var apiErr *profile.APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusConflict, apiErr.StatusCode)
}

func (s *IntegrationTestSuite) TestProfile_EmailChange_RateLimited() {
	id := s.newProfile()
	target := fmt.Sprintf("%s/profiles/%d/email", serverEndpoint, id)

	var statuses []int
	for i := 0; i <= testEmailRequestsPerMin; i++ {
		body := fmt.Sprintf(`{"email":%q}`, gofakeit.Email())
		req, err := http.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
		s.Require().NoError(err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", profile.UserAgent)
		// own rate limit bucket, apart from the other tests
		req.Header.Set("X-Real-Ip", "10.20.30.40")

		resp, err := s.httpClient.Do(req)
		s.Require().NoError(err)
		statuses = append(statuses, resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			s.NotEmpty(resp.Header.Get("Retry-After"))
		}
		s.Require().NoError(resp.Body.Close())
	}

	for i := 0; i < testEmailRequestsPerMin; i++ {
		s.Equal(http.StatusAccepted, statuses[i], "request %d", i)
	}
	s.Equal(http.StatusTooManyRequests, statuses[testEmailRequestsPerMin])
}

func (s *IntegrationTestSuite) TestProfile_EmailConfirm_RateLimited() {
	id := s.newProfile()
	target := fmt.Sprintf("%s/profiles/%d/email/confirm", serverEndpoint, id)

	var statuses []int
	for i := 0; i <= testEmailConfirmsPerMin; i++ {
		body := fmt.Sprintf(`{"requestId":%q,"code":"%06d"}`, gofakeit.UUID(), i)
		req, err := http.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
		s.Require().NoError(err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", profile.UserAgent)
		req.Header.Set("X-Real-Ip", "10.20.30.41")

		resp, err := s.httpClient.Do(req)
		s.Require().NoError(err)
		statuses = append(statuses, resp.StatusCode)
		s.Require().NoError(resp.Body.Close())
	}

	for i := 0; i < testEmailConfirmsPerMin; i++ {
		s.Equal(http.StatusNotFound, statuses[i], "confirm %d", i)
	}
	s.Equal(http.StatusTooManyRequests, statuses[testEmailConfirmsPerMin])
}
