package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/fitcoach/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const profileColumns = `id, email, first_name, last_name, bio, location, phone,
	specialties, languages, height, weight, experience_years, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.Bio,
		&p.Location,
		&p.Phone,
		&p.Specialties,
		&p.Languages,
		&p.Height,
		&p.Weight,
		&p.ExperienceYears,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("profile.id", id))

	p, err := scanProfile(r.db.QueryRow(
		ctx,
		`SELECT `+profileColumns+` FROM profile WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("profile [query row]: %w", err)
	}

	return p, nil
}

// Create inserts a new profile. ID and UpdatedAt are set by the database.
func (r *Repo) Create(ctx context.Context, p Profile) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if p.Specialties == nil {
		p.Specialties = []string{}
	}
	if p.Languages == nil {
		p.Languages = []string{}
	}

	created, err := scanProfile(r.db.QueryRow(
		ctx,
		`
			INSERT INTO profile
			    (email, first_name, last_name, bio, location, phone,
			     specialties, languages, height, weight, experience_years)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING `+profileColumns,
		p.Email,
		p.FirstName,
		p.LastName,
		p.Bio,
		p.Location,
		p.Phone,
		p.Specialties,
		p.Languages,
		p.Height,
		p.Weight,
		p.ExperienceYears,
	))
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	return created, nil
}

// Update changes only the columns of the fields carried by in.
func (r *Repo) Update(ctx context.Context, id int, in Input) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("profile.id", id),
		attribute.Int("input.fields", len(in)),
	)

	query, args, err := buildUpdateQuery(id, in)
	if err != nil {
		return nil, err
	}

	updated, err := scanProfile(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return updated, nil
}

func (r *Repo) UpdateEmail(ctx context.Context, id int, email string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profile.update_email")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("profile.id", id))

	updated, err := scanProfile(r.db.QueryRow(
		ctx,
		`
			UPDATE profile
			SET email = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+profileColumns,
		id,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("update profile email: %w", err)
	}

	return updated, nil
}

func buildUpdateQuery(id int, in Input) (string, []any, error) {
	if len(in) == 0 {
		return "", nil, fmt.Errorf("%w: no fields to update", ErrInvalidValue)
	}

	args := []any{id}
	sets := make([]string, 0, len(in)+1)
	for _, field := range in.Fields() {
		if err := CheckField(field); err != nil {
			return "", nil, err
		}
		spec := fieldSpecsByField[field]
		arg := in[field].SQLArg()
		if spec.Kind == KindStrings && arg == nil {
			arg = []string{}
		}
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", spec.Column, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE profile SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + profileColumns

	return query, args, nil
}
