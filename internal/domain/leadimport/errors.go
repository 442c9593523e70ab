package leadimport

import (
	"errors"
	"fmt"

	"github.com/okian/estatecamp/internal/domain/model"
)

// Import errors wrap model.ErrValidation so callers can map them to a 400.
var (
	ErrTooFewRows   = fmt.Errorf("%w: CSV file must contain at least a header row and one data row", model.ErrValidation)
	ErrNoNameColumn = fmt.Errorf("%w: could not find a name column; ensure the CSV has a column with \"name\" in the header", model.ErrValidation)
	ErrTooManyRows  = fmt.Errorf("%w: too many rows", model.ErrValidation)
	ErrMalformedCSV = errors.New("malformed csv")
)
