package check

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
)

// DefaultChecks returns the fixed HTTP check set in its canonical order.
// Order here is execution order; keep it deterministic so runs are
// reproducible.
func DefaultChecks() []Descriptor {
	return []Descriptor{
		{"HTTP GET / returns 200 or 404", checkRoot},
		{"HTTP GET /fnhjkdniudsancyne returns 404", checkNonexistentPath},
		{"HTTP GET /city/v1/get returns 400 with error JSON with message", checkNoParams},
		{"HTTP GET /city/v1/get?id=123 returns 400 with error JSON with message", checkJustIDParam},
		{"HTTP GET /city/v1/get?id=blabla&language=cs returns 400 with error JSON with message", checkInvalidID},
		{"HTTP GET /city/v1/get?language=cs returns 400 with error JSON with message", checkJustLanguageParam},
		{"HTTP GET /city/v1/get?id=123&language=cs returns 404 (this does not exist) with error JSON with message", checkNonexistentCityID},
		{"HTTP GET /city/v1/get?id=101748111&language=cs returns 200 and correct object", checkPlzenCs},
		{"HTTP GET /city/v1/get?id=101748109&language=de returns 200 and correct object", checkBrnoDe},
		{"HTTP GET /city/v1/get?id=1108839329&language=cs&extra=paramShouldBeIgnored returns 200 and correct object", checkGrazCsExtraParam},
	}
}

func checkRoot(s *Session) (*Failure, error) {
	resp, body, err := get(s, "/")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return failf("status in (200, 404)", "got %d: %s", resp.StatusCode, body), nil
	}
	return nil, nil
}

func checkNonexistentPath(s *Session) (*Failure, error) {
	resp, body, err := get(s, "/fnhjkdniudsancyne")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusNotFound {
		return failf("status == 404", "got %d: %s", resp.StatusCode, body), nil
	}
	return nil, nil
}

func checkNoParams(s *Session) (*Failure, error) {
	return errorReplyCheck(s, "/city/v1/get", http.StatusBadRequest)
}

func checkJustIDParam(s *Session) (*Failure, error) {
	return errorReplyCheck(s, "/city/v1/get?id=123", http.StatusBadRequest)
}

func checkInvalidID(s *Session) (*Failure, error) {
	return errorReplyCheck(s, "/city/v1/get?id=blabla&language=cs", http.StatusBadRequest)
}

func checkJustLanguageParam(s *Session) (*Failure, error) {
	return errorReplyCheck(s, "/city/v1/get?language=cs", http.StatusBadRequest)
}

func checkNonexistentCityID(s *Session) (*Failure, error) {
	return errorReplyCheck(s, "/city/v1/get?id=123&language=cs", http.StatusNotFound)
}

func checkPlzenCs(s *Session) (*Failure, error) {
	return cityReplyCheck(s, "/city/v1/get?id=101748111&language=cs",
		101748111, "Plzeň", "Plzeňský kraj", "CZ")
}

func checkBrnoDe(s *Session) (*Failure, error) {
	return cityReplyCheck(s, "/city/v1/get?id=101748109&language=de",
		101748109, "Brünn", "Südmährische Region", "CZ")
}

func checkGrazCsExtraParam(s *Session) (*Failure, error) {
	return cityReplyCheck(s, "/city/v1/get?id=1108839329&language=cs&extra=paramShouldBeIgnored",
		1108839329, "Štýrský Hradec", "Štýrsko", "AT")
}

// get issues the request and drains the body; callers assert on both.
func get(s *Session, path string) (*http.Response, []byte, error) {
	resp, err := s.Get(path)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading body of GET %s: %w", path, err)
	}
	return resp, body, nil
}

// errorReplyCheck asserts the common error-reply contract: expected status,
// exact application/json content type, and a JSON body carrying "message".
func errorReplyCheck(s *Session, path string, wantStatus int) (*Failure, error) {
	resp, body, err := get(s, path)
	if err != nil {
		return nil, err
	}
	return assertErrorReply(resp, body, wantStatus), nil
}

func assertErrorReply(resp *http.Response, body []byte, wantStatus int) *Failure {
	if resp.StatusCode != wantStatus {
		return failf(fmt.Sprintf("status == %d", wantStatus), "got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		return failf("content-type == application/json", "got %q", ct)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return failf("body is valid JSON", "%v: %s", err, body)
	}
	if _, ok := payload["message"]; !ok {
		return failf("error JSON contains message", "got %s", body)
	}
	return nil
}

// cityReplyCheck asserts a successful city lookup: status 200, JSON content
// type, exactly the five contract fields, and their expected values.
func cityReplyCheck(s *Session, path string, wantID int64, wantName, wantRegion, wantCountry string) (*Failure, error) {
	resp, body, err := get(s, path)
	if err != nil {
		return nil, err
	}
	return assertCityReply(resp, body, wantID, wantName, wantRegion, wantCountry), nil
}

func assertCityReply(resp *http.Response, body []byte, wantID int64, wantName, wantRegion, wantCountry string) *Failure {
	if resp.StatusCode != http.StatusOK {
		return failf("status == 200", "got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		return failf("content-type == application/json", "got %q", ct)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return failf("body is valid JSON", "%v: %s", err, body)
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	wantKeys := []string{"countryISO", "id", "isFeatured", "name", "regionName"}
	if !equalStrings(keys, wantKeys) {
		return failf("keys == {countryISO, id, isFeatured, name, regionName}", "got %v", keys)
	}

	if got := payload["countryISO"]; got != wantCountry {
		return failf(fmt.Sprintf("countryISO == %q", wantCountry), "got %v", got)
	}
	// JSON numbers decode as float64; the contract ids fit exactly.
	if got, ok := payload["id"].(float64); !ok || int64(got) != wantID {
		return failf(fmt.Sprintf("id == %d", wantID), "got %v", payload["id"])
	}
	// Not yet populated by the backing index, so only the type is checked.
	if _, ok := payload["isFeatured"].(bool); !ok {
		return failf("isFeatured is a boolean", "got %v", payload["isFeatured"])
	}
	if got := payload["name"]; got != wantName {
		return failf(fmt.Sprintf("name == %q", wantName), "got %v", got)
	}
	if got := payload["regionName"]; got != wantRegion {
		return failf(fmt.Sprintf("regionName == %q", wantRegion), "got %v", got)
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
