package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runner fires scenarios at Handler.
type Runner struct {
	Handler http.Handler
	Vars    map[string]string
	// Setup, when set, runs before every scenario so each one starts from a
	// known state.
	Setup func(t *testing.T)
}

// RunFile runs each scenario in path as a subtest.
func (r Runner) RunFile(t *testing.T, path string) {
	t.Helper()

	scenarios, err := Load(path)
	require.NoError(t, err)
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			r.Run(t, s)
		})
	}
}

// RunDir runs every *.json file in dir.
func (r Runner) RunDir(t *testing.T, dir string) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no scenario files in %s", dir)
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			r.RunFile(t, f)
		})
	}
}

// Run executes one scenario and returns the recorded response.
func (r Runner) Run(t *testing.T, s *Scenario) *httptest.ResponseRecorder {
	t.Helper()

	if r.Setup != nil {
		r.Setup(t)
	}

	raw, err := s.body()
	require.NoError(t, err, "[%s] request body", s.Name)

	var body io.Reader
	if raw != nil {
		body = bytes.NewReader([]byte(expand(string(raw), r.Vars)))
	}

	req := httptest.NewRequest(s.RequestMethod, expand(s.RequestURL, r.Vars), body)
	req.Header.Set("Accept", "application/json")
	if raw != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.Headers {
		req.Header.Set(k, expand(v, r.Vars))
	}

	rec := httptest.NewRecorder()
	r.Handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONBody(t, s, s.ExpectedBody, rec.Body.Bytes())
	}
	if len(s.ExpectedFields) > 0 {
		AssertJSONFields(t, s, s.ExpectedFields, rec.Body.Bytes())
	}
	for k, want := range s.ExpectedHeaders {
		assert.Equal(t, want, rec.Header().Get(k), "[%s] header %s", s.Name, k)
	}
	return rec
}
