package service

import (
	"errors"
	"fmt"

	"github.com/okian/estatecamp/internal/domain/model"
)

// Service errors. Callers match them with errors.Is.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrBackpressure     = errors.New("score queue is full")
	ErrPDFUnavailable   = errors.New("pdf export is not configured")
	ErrUnsupportedMedia = errors.New("only image and video files are accepted")
	ErrEmptyUpload      = fmt.Errorf("%w: uploaded file is empty", model.ErrValidation)
	ErrUnknownPersona   = fmt.Errorf("%w: assigned persona does not belong to the campaign", model.ErrValidation)
)
