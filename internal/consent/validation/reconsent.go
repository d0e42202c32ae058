package validation

import (
	"context"
	"errors"
	"fmt"

	"trialconsent/internal/consent/models"
	"trialconsent/internal/consent/ports"
	"trialconsent/pkg/platform/sentinel"
)

type reconsentField struct {
	name  string
	value func(c *models.InformedConsent) string
}

// reconsentFields may not change between a stored consent and a
// resubmission of the same version. Checked in this order.
var reconsentFields = []reconsentField{
	{"first_name", func(c *models.InformedConsent) string { return c.FirstName }},
	{"last_name", func(c *models.InformedConsent) string { return c.LastName }},
	{"dob", func(c *models.InformedConsent) string { return c.DOB.String() }},
	{"recruit_source", func(c *models.InformedConsent) string { return c.RecruitSource }},
	{"recruit_source_other", func(c *models.InformedConsent) string { return c.RecruitSourceOther }},
	{"recruitment_clinic", func(c *models.InformedConsent) string { return c.RecruitmentClinic }},
	{"recruitment_clinic_other", func(c *models.InformedConsent) string { return c.RecruitmentClinicOther }},
	{"is_literate", func(c *models.InformedConsent) string { return c.IsLiterate.String() }},
	{"identity", func(c *models.InformedConsent) string { return c.Identity }},
	{"identity_type", func(c *models.InformedConsent) string { return c.IdentityType.String() }},
}

// ReconsentFieldNames lists the immutable re-consent fields in check order.
func ReconsentFieldNames() []string {
	names := make([]string, len(reconsentFields))
	for i, f := range reconsentFields {
		names[i] = f.name
	}
	return names
}

// ReconsentValidator compares a resubmission with the stored consent of the
// same subject and version.
type ReconsentValidator struct {
	consents ports.ConsentFinder
}

func NewReconsentValidator(consents ports.ConsentFinder) *ReconsentValidator {
	return &ReconsentValidator{consents: consents}
}

func (v *ReconsentValidator) Validate(ctx context.Context, sub *models.Submission, mode Mode, res *Result) error {
	stored, err := v.consents.FindConsent(ctx, sub.SubjectIdentifier, sub.Version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find consent for re-consent check: %w", err)
	}

	for _, f := range reconsentFields {
		previous := f.value(stored)
		if f.value(&sub.InformedConsent) == previous {
			continue
		}
		res.AddError(f.name, CodeReconsentChanged,
			fmt.Sprintf("%s was previously reported as, %s, please correct.", f.name, previous))
		if mode == StopAtFirst {
			return nil
		}
	}
	return nil
}
