package exercises

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"
	"github.com/2beens/fitcoach/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrExerciseTypeNotFound = errors.New("exercise type not found")
	ErrExerciseTypeExists   = errors.New("exercise type already exists")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type FilterParams struct {
	MuscleGroup string
	// Query matches a part of the name, case insensitive.
	Query string
	// Equipment matches exercise types that need any of the listed items.
	Equipment []string
}

type ListParams struct {
	FilterParams
	// Page is zero based.
	Page int
	Size int
}

const filterWhere = `
	WHERE ($1::text = '' OR muscle_group = $1)
	  AND ($2::text = '' OR lower(name) LIKE '%' || lower($2) || '%')
	  AND (cardinality($3::text[]) = 0 OR equipment && $3::text[])
`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func filterArgs(params FilterParams) []any {
	equipment := params.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return []any{params.MuscleGroup, strings.TrimSpace(params.Query), equipment}
}

func (r *Repo) Get(ctx context.Context, id string) (_ ExerciseType, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exerciseType ExerciseType
	err = r.db.QueryRow(
		ctx,
		`
			SELECT
			    id, muscle_group, name, description, equipment, created_at
			FROM exercise_type
			WHERE id = $1
		`,
		id,
	).Scan(
		&exerciseType.ID,
		&exerciseType.MuscleGroup,
		&exerciseType.Name,
		&exerciseType.Description,
		&exerciseType.Equipment,
		&exerciseType.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ExerciseType{}, ErrExerciseTypeNotFound
		}
		return ExerciseType{}, fmt.Errorf("exercise type [query row]: %w", err)
	}

	return exerciseType, nil
}

// List returns one page of exercise types ordered by name, and the total
// count of the filtered set.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []ExerciseType, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("params.page", params.Page),
		attribute.Int("params.size", params.Size),
	)
	if params.MuscleGroup != "" {
		span.SetAttributes(attribute.String("params.muscleGroup", params.MuscleGroup))
	}

	if params.Size <= 0 {
		params.Size = DefaultPageSize
	}
	if params.Page < 0 {
		params.Page = 0
	}

	total, err = r.Count(ctx, params.FilterParams)
	if err != nil {
		return nil, -1, err
	}

	args := append(filterArgs(params.FilterParams), params.Size, params.Page*params.Size)
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
			    id, muscle_group, name, description, equipment, created_at
			FROM exercise_type
		`+filterWhere+`
			ORDER BY name, id
			LIMIT $4
			OFFSET $5
		`,
		args...,
	)
	if err != nil {
		return nil, -1, fmt.Errorf("exercise types [query]: %w", err)
	}
	defer rows.Close()

	exerciseTypes := []ExerciseType{}
	for rows.Next() {
		var exerciseType ExerciseType
		err := rows.Scan(
			&exerciseType.ID,
			&exerciseType.MuscleGroup,
			&exerciseType.Name,
			&exerciseType.Description,
			&exerciseType.Equipment,
			&exerciseType.CreatedAt,
		)
		if err != nil {
			return nil, -1, fmt.Errorf("exercise types [rows scan]: %w", err)
		}
		exerciseTypes = append(exerciseTypes, exerciseType)
	}
	if err := rows.Err(); err != nil {
		return nil, -1, fmt.Errorf("exercise types [rows error]: %w", err)
	}

	return exerciseTypes, total, nil
}

func (r *Repo) Count(ctx context.Context, params FilterParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var count int
	err = r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM exercise_type`+filterWhere,
		filterArgs(params)...,
	).Scan(&count)
	if err != nil {
		return -1, fmt.Errorf("exercise types count: %w", err)
	}

	return count, nil
}

func (r *Repo) Add(ctx context.Context, exerciseType ExerciseType) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if exerciseType.CreatedAt.IsZero() {
		exerciseType.CreatedAt = time.Now()
	}
	if exerciseType.Equipment == nil {
		exerciseType.Equipment = []string{}
	}

	_, err = r.db.Exec(
		ctx,
		`
			INSERT INTO exercise_type
			    (id, muscle_group, name, description, equipment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
		exerciseType.ID,
		exerciseType.MuscleGroup,
		exerciseType.Name,
		exerciseType.Description,
		exerciseType.Equipment,
		exerciseType.CreatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrExerciseTypeExists
		}
		return err
	}

	return nil
}

func (r *Repo) Update(ctx context.Context, exerciseType ExerciseType) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if exerciseType.Equipment == nil {
		exerciseType.Equipment = []string{}
	}

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE exercise_type
			SET muscle_group = $2, name = $3, description = $4, equipment = $5
			WHERE id = $1
		`,
		exerciseType.ID,
		exerciseType.MuscleGroup,
		exerciseType.Name,
		exerciseType.Description,
		exerciseType.Equipment,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrExerciseTypeNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`
			DELETE FROM exercise_type
			WHERE id = $1
		`,
		id,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrExerciseTypeNotFound
	}

	return nil
}
