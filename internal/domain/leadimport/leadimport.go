// Package leadimport turns spreadsheet exports into leads.
//
// Column headers are matched loosely: any header containing one of the known
// patterns is taken, first match wins. Only the name column is required.
// Phones are normalized to E.164 when they parse for the configured region
// and rows repeating an email or phone already seen are dropped.
package leadimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/okian/estatecamp/internal/domain/model"
)

const (
	defaultRegion  = "MY"
	defaultMaxRows = 5_000
)

//nolint:gochecknoglobals // fixed lookup tables
var (
	namePatterns  = []string{"name", "full name", "fullname", "customer name", "client name", "lead name"}
	emailPatterns = []string{"email", "e-mail", "email address", "contact email", "mail"}
	phonePatterns = []string{"phone", "telephone", "mobile", "contact", "contact number", "phone number", "tel", "cell"}
)

// Columns reports which fields were found in the header.
type Columns struct {
	Name  bool `json:"name"`
	Email bool `json:"email"`
	Phone bool `json:"phone"`
}

// Report summarizes one import.
type Report struct {
	Columns       Columns `json:"columns"`
	Rows          int     `json:"rows"`
	Imported      int     `json:"imported"`
	Duplicates    int     `json:"duplicates"`
	InvalidPhones int     `json:"invalid_phones"`
}

// Summary renders the report as a one-line message for the UI.
func (r Report) Summary() string {
	mark := func(ok bool, label string) string {
		if ok {
			return "✓ " + label
		}
		return "✗ " + label
	}
	return fmt.Sprintf("Successfully imported %d leads. Found columns: %s, %s, %s",
		r.Imported, mark(r.Columns.Name, "Name"), mark(r.Columns.Email, "Email"), mark(r.Columns.Phone, "Phone"))
}

// Result holds the parsed leads and the report.
type Result struct {
	Leads  []model.Lead `json:"-"`
	Report Report       `json:"report"`
}

// Importer parses CSV lead lists. It is safe for concurrent use.
type Importer struct {
	region  string
	maxRows int
}

// Option configures an Importer.
type Option func(*Importer)

// WithRegion sets the ISO 3166 region used for numbers without a country code.
func WithRegion(region string) Option {
	return func(im *Importer) {
		if region != "" {
			im.region = strings.ToUpper(region)
		}
	}
}

// WithMaxRows caps the number of data rows. Zero or less means no cap.
func WithMaxRows(n int) Option {
	return func(im *Importer) {
		im.maxRows = n
	}
}

// New creates an importer.
func New(opts ...Option) *Importer {
	im := &Importer{region: defaultRegion, maxRows: defaultMaxRows}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Parse reads a CSV document. existing holds leads already on the campaign;
// rows that repeat one of their emails or phones count as duplicates.
func (im *Importer) Parse(r io.Reader, existing []model.Lead) (Result, error) {
	// Spreadsheet exports often carry a BOM or come out as UTF-16.
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := nextRecord(cr)
	if errors.Is(err, io.EOF) {
		return Result{}, ErrTooFewRows
	}
	if err != nil {
		return Result{}, err
	}

	fold := cases.Fold()
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = strings.TrimSpace(fold.String(h))
	}
	nameIdx := findColumn(headers, namePatterns)
	emailIdx := findColumn(headers, emailPatterns)
	phoneIdx := findColumn(headers, phonePatterns)
	if nameIdx < 0 {
		return Result{}, ErrNoNameColumn
	}

	res := Result{
		Leads: make([]model.Lead, 0),
		Report: Report{Columns: Columns{
			Name:  true,
			Email: emailIdx >= 0,
			Phone: phoneIdx >= 0,
		}},
	}

	seen := make(map[string]struct{})
	for _, l := range existing {
		for _, k := range contactKeys(l.Email, l.Phone) {
			seen[k] = struct{}{}
		}
	}

	for {
		rec, err := nextRecord(cr)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, err
		}
		res.Report.Rows++
		if im.maxRows > 0 && res.Report.Rows > im.maxRows {
			return Result{}, fmt.Errorf("%w: limit is %d", ErrTooManyRows, im.maxRows)
		}

		lead := model.Lead{
			Name:   field(rec, nameIdx),
			Email:  field(rec, emailIdx),
			Phone:  field(rec, phoneIdx),
			Status: model.StatusNew,
		}
		if lead.Name == "" {
			lead.Name = fmt.Sprintf("Lead %d", res.Report.Rows)
		}
		if lead.Phone != "" {
			phone, ok := normalizePhone(lead.Phone, im.region)
			if !ok {
				res.Report.InvalidPhones++
			}
			lead.Phone = phone
		}

		keys := contactKeys(lead.Email, lead.Phone)
		if duplicate(seen, keys) {
			res.Report.Duplicates++
			continue
		}
		for _, k := range keys {
			seen[k] = struct{}{}
		}
		res.Leads = append(res.Leads, lead)
	}

	if res.Report.Rows == 0 {
		return Result{}, ErrTooFewRows
	}
	res.Report.Imported = len(res.Leads)
	return res, nil
}

// nextRecord returns the next record that has at least one non-blank field.
func nextRecord(cr *csv.Reader) ([]string, error) {
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
		for _, f := range rec {
			if strings.TrimSpace(f) != "" {
				return rec, nil
			}
		}
	}
}

func findColumn(headers, patterns []string) int {
	for i, h := range headers {
		for _, p := range patterns {
			if strings.Contains(h, p) {
				return i
			}
		}
	}
	return -1
}

// field returns the trimmed value at idx with one pair of stray quotes removed.
func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[idx])
	v = strings.TrimPrefix(strings.TrimPrefix(v, `"`), `'`)
	v = strings.TrimSuffix(strings.TrimSuffix(v, `"`), `'`)
	return strings.TrimSpace(v)
}

// normalizePhone formats raw as E.164. Numbers that do not parse or are not
// valid for region are returned trimmed with ok false.
func normalizePhone(raw, region string) (string, bool) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw, false
	}
	return phonenumbers.Format(num, phonenumbers.E164), true
}

func contactKeys(email, phone string) []string {
	keys := make([]string, 0, 2)
	if e := strings.ToLower(strings.TrimSpace(email)); e != "" {
		keys = append(keys, "email:"+e)
	}
	if p := strings.TrimSpace(phone); p != "" {
		keys = append(keys, "phone:"+p)
	}
	return keys
}

func duplicate(seen map[string]struct{}, keys []string) bool {
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return true
		}
	}
	return false
}
