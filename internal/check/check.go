// Package check holds the verification units the harness runs against the
// service under test, and the runner that executes them.
//
// A check produces either nil (pass) or a *Failure describing the assertion
// that did not hold. Failures are values: they are reported and never stop
// the remaining checks. Infrastructure problems (transport errors, unreadable
// bodies) are returned as ordinary errors and abort the whole run, since they
// indicate a broken harness rather than a broken service.
package check

import (
	"fmt"
	"net/http"
)

// Failure describes one failed assertion: the condition that did not hold and
// the observed values.
type Failure struct {
	Cond string
	Msg  string
}

func failf(cond, format string, args ...any) *Failure {
	return &Failure{Cond: cond, Msg: fmt.Sprintf(format, args...)}
}

// Descriptor pairs a human-readable description with an executable HTTP check.
// The description doubles as the progress label printed before the result.
type Descriptor struct {
	Desc string
	Run  func(s *Session) (*Failure, error)
}

// Session wraps a shared HTTP client bound to the base URL of the service
// under test. One session spans a whole check run, like a browser session
// would.
type Session struct {
	BaseURL string
	Client  *http.Client
}

func NewSession(baseURL string) *Session {
	return &Session{BaseURL: baseURL, Client: &http.Client{}}
}

// Get issues a GET against path (which may include a query string) relative
// to the session base URL.
func (s *Session) Get(path string) (*http.Response, error) {
	resp, err := s.Client.Get(s.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("GET %s%s: %w", s.BaseURL, path, err)
	}
	return resp, nil
}
