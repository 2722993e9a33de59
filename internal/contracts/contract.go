// Package contracts renders employment contracts as HTML and, through a
// headless browser, as PDF.
package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed templates/contract.html.tmpl templates/contract_data.schema.json
var assets embed.FS

// Data is everything printed on a contract.
type Data struct {
	CompanyName      string  `json:"company_name"`
	CompanyAddress   string  `json:"company_address,omitempty"`
	EmployeeName     string  `json:"employee_name"`
	EmployeeEmail    string  `json:"employee_email"`
	EmployeeAddress  string  `json:"employee_address,omitempty"`
	Position         string  `json:"position"`
	Department       string  `json:"department,omitempty"`
	ManagerName      string  `json:"manager_name,omitempty"`
	EmploymentType   string  `json:"employment_type"`
	StartDate        string  `json:"start_date"`
	Salary           float64 `json:"salary"`
	Currency         string  `json:"currency"`
	ProbationMonths  int     `json:"probation_months"`
	NoticePeriodDays int     `json:"notice_period_days"`
	GeneratedOn      string  `json:"generated_on,omitempty"`
}

// Renderer turns contract data into HTML.
type Renderer struct {
	tmpl   *template.Template
	schema *gojsonschema.Schema
}

// NewRenderer parses the contract template. An empty templatePath uses the
// built-in template.
func NewRenderer(templatePath string) (*Renderer, error) {
	var content []byte
	var err error
	if templatePath == "" {
		content, err = assets.ReadFile("templates/contract.html.tmpl")
	} else {
		content, err = os.ReadFile(templatePath)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Message: fmt.Sprintf("template file not found: %s", templatePath), Cause: err}
		}
		return nil, &TemplateError{Message: "failed to read template", Cause: err}
	}

	tmpl, err := template.New("contract").Funcs(template.FuncMap{"money": formatMoney}).Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Message: "failed to parse template", Cause: err}
	}

	schemaBytes, err := assets.ReadFile("templates/contract_data.schema.json")
	if err != nil {
		return nil, &TemplateError{Message: "failed to read contract schema", Cause: err}
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
	if err != nil {
		return nil, &TemplateError{Message: "failed to load contract schema", Cause: err}
	}

	return &Renderer{tmpl: tmpl, schema: schema}, nil
}

// Validate checks d against the contract data schema.
func (r *Renderer) Validate(d Data) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal contract data: %w", err)
	}
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate contract data: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}

// HTML validates d and renders the contract.
func (r *Renderer) HTML(d Data) (string, error) {
	if err := r.Validate(d); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, d); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return buf.String(), nil
}

// formatMoney prints an amount with two decimals and thousands separators.
func formatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")

	var sb strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	out := sb.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
