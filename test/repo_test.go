//go:build integration_test || all_tests

package test

import (
	"context"

	"github.com/2beens/fitcoach/internal/exercises"
	"github.com/2beens/fitcoach/internal/profile"
	"github.com/2beens/fitcoach/pkg"

	"github.com/brianvoe/gofakeit/v6"
)

func (s *IntegrationTestSuite) TestProfileRepo_PartialUpdate() {
	ctx := context.Background()
	id := s.newProfile()

	before, err := s.profileRepo.Get(ctx, id)
	s.Require().NoError(err)

	updated, err := s.profileRepo.Update(ctx, id, profile.Input{
		profile.FieldFirstName:       profile.String("Ana"),
		profile.FieldLastName:        profile.String(before.LastName),
		profile.FieldExperienceYears: profile.Number(0),
		profile.FieldSpecialties:     profile.Strings("mobility", "kettlebells"),
	})
	s.Require().NoError(err)
	s.Equal("Ana", updated.FirstName)
	s.Equal(before.Bio, updated.Bio)
	s.Require().NotNil(updated.ExperienceYears)
	s.Equal(0.0, *updated.ExperienceYears)
	s.Equal([]string{"mobility", "kettlebells"}, updated.Specialties)
	s.False(updated.UpdatedAt.Before(before.UpdatedAt))

	_, err = s.profileRepo.Get(ctx, 999999)
	s.ErrorIs(err, profile.ErrProfileNotFound)
	_, err = s.profileRepo.Update(ctx, 999999, profile.Input{profile.FieldBio: profile.String("x")})
	s.ErrorIs(err, profile.ErrProfileNotFound)
}

func (s *IntegrationTestSuite) TestProfileRepo_UpdateEmailTaken() {
	ctx := context.Background()
	id := s.newProfile()
	other, err := s.profileRepo.Get(ctx, s.newProfile())
	s.Require().NoError(err)

	_, err = s.profileRepo.UpdateEmail(ctx, id, other.Email)
	s.Require().Error(err)
	constraint, ok := pkg.UniqueViolation(err)
	s.True(ok)
	s.Equal("profile_email_key", constraint)
}

func (s *IntegrationTestSuite) TestExercisesRepo_Filters() {
	ctx := context.Background()
	repo := exercises.NewRepo(s.dbPool)
	tag := gofakeit.LetterN(12)

	for i, group := range []string{exercises.MuscleGroup.Core, exercises.MuscleGroup.Core, exercises.MuscleGroup.Back} {
		s.Require().NoError(repo.Add(ctx, exercises.ExerciseType{
			ID:          gofakeit.UUID(),
			MuscleGroup: group,
			Name:        gofakeit.Noun() + " " + tag,
			Equipment:   []string{[]string{"mat", "ball", "bar"}[i]},
		}))
	}

	count, err := repo.Count(ctx, exercises.FilterParams{Query: tag})
	s.Require().NoError(err)
	s.Equal(3, count)

	count, err = repo.Count(ctx, exercises.FilterParams{Query: tag, MuscleGroup: exercises.MuscleGroup.Core})
	s.Require().NoError(err)
	s.Equal(2, count)

	list, total, err := repo.List(ctx, exercises.ListParams{
		FilterParams: exercises.FilterParams{Query: tag, Equipment: []string{"bar", "ball"}},
		Size:         1,
	})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(list, 1)

	s.ErrorIs(repo.Delete(ctx, "missing-"+tag), exercises.ErrExerciseTypeNotFound)
	s.ErrorIs(repo.Update(ctx, exercises.ExerciseType{ID: "missing-" + tag, MuscleGroup: "core", Name: "x"}), exercises.ErrExerciseTypeNotFound)
}
