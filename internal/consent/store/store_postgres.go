package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"trialconsent/internal/consent/models"
	"trialconsent/pkg/domain"
	"trialconsent/pkg/platform/sentinel"
	txcontext "trialconsent/pkg/platform/tx"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const consentColumns = `id, subject_identifier, version, screening_identifier, consent_datetime,
	first_name, last_name, initials, dob, gender, gender_other, identity, identity_type,
	recruit_source, recruit_source_other, recruitment_clinic, recruitment_clinic_other, is_literate,
	created, modified, user_created, user_modified`

// PostgresConsentStore persists informed consents. Inside RunInTx it joins
// the transaction carried on the context.
type PostgresConsentStore struct {
	db *sql.DB
}

func NewPostgresConsentStore(db *sql.DB) *PostgresConsentStore {
	return &PostgresConsentStore{db: db}
}

func (s *PostgresConsentStore) FindConsent(ctx context.Context, subject domain.SubjectIdentifier, version domain.ConsentVersion) (*models.InformedConsent, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+consentColumns+` FROM informed_consents WHERE subject_identifier = $1 AND version = $2`,
		subject.String(), version.String())
	c, err := scanConsent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find consent: %w", err)
	}
	return c, nil
}

func (s *PostgresConsentStore) ListConsents(ctx context.Context, subject domain.SubjectIdentifier) ([]*models.InformedConsent, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+consentColumns+` FROM informed_consents WHERE subject_identifier = $1
		ORDER BY length(version), version`,
		subject.String())
	if err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	defer rows.Close()

	var out []*models.InformedConsent
	for rows.Next() {
		c, err := scanConsent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list consents: %w", err)
	}
	return out, nil
}

// SaveConsent upserts on (subject_identifier, version). A row for the same
// key under another ID is left untouched and reported as sentinel.ErrConflict.
func (s *PostgresConsentStore) SaveConsent(ctx context.Context, c *models.InformedConsent) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO informed_consents (`+consentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		ON CONFLICT (subject_identifier, version) DO UPDATE SET
			screening_identifier = EXCLUDED.screening_identifier,
			consent_datetime = EXCLUDED.consent_datetime,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			initials = EXCLUDED.initials,
			dob = EXCLUDED.dob,
			gender = EXCLUDED.gender,
			gender_other = EXCLUDED.gender_other,
			identity = EXCLUDED.identity,
			identity_type = EXCLUDED.identity_type,
			recruit_source = EXCLUDED.recruit_source,
			recruit_source_other = EXCLUDED.recruit_source_other,
			recruitment_clinic = EXCLUDED.recruitment_clinic,
			recruitment_clinic_other = EXCLUDED.recruitment_clinic_other,
			is_literate = EXCLUDED.is_literate,
			modified = EXCLUDED.modified,
			user_modified = EXCLUDED.user_modified
		WHERE informed_consents.id = EXCLUDED.id`,
		c.ID, c.SubjectIdentifier.String(), c.Version.String(), c.ScreeningIdentifier.String(), c.ConsentDatetime,
		c.FirstName, c.LastName, c.Initials, c.DOB, c.Gender.String(), c.GenderOther, c.Identity, c.IdentityType.String(),
		c.RecruitSource, c.RecruitSourceOther, c.RecruitmentClinic, c.RecruitmentClinicOther, c.IsLiterate.String(),
		c.Created, c.Modified, c.UserCreated, c.UserModified,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save consent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save consent: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsent(row rowScanner) (*models.InformedConsent, error) {
	var (
		c                                models.InformedConsent
		subject, version, screening      string
		gender, identityType, isLiterate string
	)
	err := row.Scan(
		&c.ID, &subject, &version, &screening, &c.ConsentDatetime,
		&c.FirstName, &c.LastName, &c.Initials, &c.DOB, &gender, &c.GenderOther, &c.Identity, &identityType,
		&c.RecruitSource, &c.RecruitSourceOther, &c.RecruitmentClinic, &c.RecruitmentClinicOther, &isLiterate,
		&c.Created, &c.Modified, &c.UserCreated, &c.UserModified,
	)
	if err != nil {
		return nil, err
	}
	c.SubjectIdentifier = domain.SubjectIdentifier(subject)
	c.Version = domain.ConsentVersion(version)
	c.ScreeningIdentifier = domain.ScreeningIdentifier(screening)
	c.Gender = domain.Gender(gender)
	c.IdentityType = domain.IdentityType(identityType)
	c.IsLiterate = domain.YesNo(isLiterate)
	return &c, nil
}

// PostgresEligibilityStore persists eligibility confirmations.
type PostgresEligibilityStore struct {
	db *sql.DB
}

func NewPostgresEligibilityStore(db *sql.DB) *PostgresEligibilityStore {
	return &PostgresEligibilityStore{db: db}
}

func (s *PostgresEligibilityStore) FindEligibility(ctx context.Context, screening domain.ScreeningIdentifier) (*models.EligibilityConfirmation, error) {
	var (
		rec models.EligibilityConfirmation
		age sql.NullInt32
	)
	err := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		SELECT age_in_years, report_datetime, created, modified, user_created, user_modified
		FROM eligibility_confirmations WHERE screening_identifier = $1`,
		screening.String(),
	).Scan(&age, &rec.ReportDatetime, &rec.Created, &rec.Modified, &rec.UserCreated, &rec.UserModified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find eligibility: %w", err)
	}
	rec.ScreeningIdentifier = screening
	if age.Valid {
		v := int(age.Int32)
		rec.AgeInYears = &v
	}
	return &rec, nil
}

func (s *PostgresEligibilityStore) SaveEligibility(ctx context.Context, rec *models.EligibilityConfirmation) error {
	var age sql.NullInt32
	if rec.AgeInYears != nil {
		age = sql.NullInt32{Int32: int32(*rec.AgeInYears), Valid: true}
	}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO eligibility_confirmations
			(screening_identifier, age_in_years, report_datetime, created, modified, user_created, user_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (screening_identifier) DO UPDATE SET
			age_in_years = EXCLUDED.age_in_years,
			report_datetime = EXCLUDED.report_datetime,
			modified = EXCLUDED.modified,
			user_modified = EXCLUDED.user_modified`,
		rec.ScreeningIdentifier.String(), age, rec.ReportDatetime,
		rec.Created, rec.Modified, rec.UserCreated, rec.UserModified,
	)
	if err != nil {
		return fmt.Errorf("save eligibility: %w", err)
	}
	return nil
}
