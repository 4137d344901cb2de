// Package testkit drives HTTP API tests from JSON scenario files.
//
// A scenario file holds an array of request/expectation pairs:
//
//	[
//	  {
//	    "name": "ship an order",
//	    "requestMethod": "PATCH",
//	    "requestUrl": "/api/admin/orders/O1",
//	    "headers": {"Authorization": "Bearer {{adminToken}}"},
//	    "requestBody": {"status": "shipped"},
//	    "expectedCode": 200,
//	    "expectedBody": {"ok": true, "stockUpdated": true}
//	  }
//	]
//
// {{name}} placeholders in the URL, headers and request body are filled from
// Runner.Vars. expectedBody must match exactly; expectedFields only checks the
// listed top-level keys.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod string            `json:"requestMethod"`
	RequestURL    string            `json:"requestUrl"`
	Headers       map[string]string `json:"headers"`
	RequestBody   json.RawMessage   `json:"requestBody"`
	// RequestFileName is read relative to the scenario file when RequestBody
	// is empty.
	RequestFileName string `json:"requestFileName"`

	ExpectedCode   int                        `json:"expectedCode"`
	ExpectedBody   json.RawMessage            `json:"expectedBody"`
	ExpectedFields map[string]json.RawMessage `json:"expectedFields"`
	// ExpectedHeaders are compared exactly, e.g. a redirect Location.
	ExpectedHeaders map[string]string `json:"expectedHeaders"`

	dir string
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("%s: requestUrl is required", s.Name)
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("%s: expectedCode is required", s.Name)
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	s.RequestMethod = strings.ToUpper(s.RequestMethod)
	return nil
}

// body returns the raw request body, or nil when the scenario sends none.
func (s *Scenario) body() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	p := s.RequestFileName
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.dir, p)
	}
	return os.ReadFile(p)
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// Load reads every scenario in the JSON array at path.
func Load(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q item %d: %w", abs, i, err)
		}
		s.dir = filepath.Dir(abs)
	}
	return scenarios, nil
}

// expand replaces {{key}} with vars[key]. Unknown keys are left alone.
func expand(s string, vars map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}
