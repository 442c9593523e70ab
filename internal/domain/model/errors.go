package model

import (
	"errors"
	"fmt"
)

// Validation errors. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")

	ErrCampaignNameRequired   = fmt.Errorf("%w: campaign name is required", ErrValidation)
	ErrProjectRequired        = fmt.Errorf("%w: project is required", ErrValidation)
	ErrInvalidObjective       = fmt.Errorf("%w: objective must be one of the supported objectives", ErrValidation)
	ErrInvalidBudget          = fmt.Errorf("%w: budget must be greater than 0", ErrValidation)
	ErrInvalidDateRange       = fmt.Errorf("%w: start date must be before end date", ErrValidation)
	ErrPersonaNameRequired    = fmt.Errorf("%w: persona name is required", ErrValidation)
	ErrAdCopyIncomplete       = fmt.Errorf("%w: headline and description are required", ErrValidation)
	ErrLeadNameRequired       = fmt.Errorf("%w: lead name is required", ErrValidation)
	ErrInvalidStatus          = fmt.Errorf("%w: unknown lead status", ErrValidation)
	ErrInvalidRejectionReason = fmt.Errorf("%w: unknown rejection reason", ErrValidation)
)
