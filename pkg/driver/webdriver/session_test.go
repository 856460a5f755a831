package webdriver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/core"
	"github.com/devicelab-dev/gaiatest/pkg/driver"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *Session {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL)
	client.sessionID = "s"
	return NewSession(client)
}

func noSuchElement(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	writeJSON(w, map[string]interface{}{
		"value": map[string]interface{}{"error": "no such element", "message": "not here"},
	})
}

func TestOpen(t *testing.T) {
	timeoutsSet := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session":
			writeJSON(w, map[string]interface{}{"value": map[string]interface{}{"sessionId": "abc"}})
		case "/session/abc/timeouts":
			timeoutsSet = true
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	s, err := Open(Options{ServerURL: server.URL, ScriptTimeout: time.Minute})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s.Client().SessionID() != "abc" {
		t.Errorf("session id = %q", s.Client().SessionID())
	}
	if !timeoutsSet {
		t.Error("script timeout not configured")
	}
}

func TestOpen_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := Open(Options{ServerURL: url})
	execErr, ok := core.AsExecutionError(err)
	if !ok || execErr.Code != core.ErrServerUnreachable.Code {
		t.Fatalf("expected server_unreachable, got %v", err)
	}
}

func TestSession_FindElementMapsLookupFailure(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		noSuchElement(w)
	})

	_, err := s.FindElement(driver.ID("sim-import-button"))
	if !core.IsLookupFailure(err) {
		t.Fatalf("expected lookup failure, got %v", err)
	}
	execErr, _ := core.AsExecutionError(err)
	if execErr.Details["selector"] != "id=sim-import-button" {
		t.Errorf("selector detail = %v", execErr.Details["selector"])
	}
	var wdErr *Error
	if !errors.As(err, &wdErr) {
		t.Error("cause should keep the wire error")
	}
}

func TestSession_FindElementsEmpty(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": []interface{}{}})
	})

	elements, err := s.FindElements(driver.CSS("#contacts-list li"))
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("got %d elements", len(elements))
	}
}

func TestSession_StaleElement(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"error": "stale element reference", "message": "gone"},
		})
	})

	el := &Element{id: "e", session: s}
	_, err := el.Text()
	execErr, ok := core.AsExecutionError(err)
	if !ok || execErr.Code != core.ErrStaleElement.Code {
		t.Fatalf("expected stale_element, got %v", err)
	}
	if !core.IsLookupFailure(err) {
		t.Error("stale element should be a lookup failure")
	}
}

func TestSession_ScriptErrorMapping(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"value": map[string]interface{}{"error": "javascript error", "message": "boom"},
		})
	})

	_, err := s.ExecuteScript("throw 'boom'")
	execErr, ok := core.AsExecutionError(err)
	if !ok || execErr.Code != core.ErrScriptFailed.Code {
		t.Fatalf("expected script_failed, got %v", err)
	}
}

func TestSession_ExecuteScriptElementRoundTrip(t *testing.T) {
	var sentArgs []interface{}
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s/execute/sync" {
			body := readBody(t, r)
			sentArgs, _ = body["args"].([]interface{})
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{
					"frame": map[string]interface{}{w3cElementKey: "iframe-7"},
					"name":  "Contacts",
					"list":  []interface{}{map[string]interface{}{w3cElementKey: "li-1"}},
				},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	arg := &Element{id: "host", session: s}
	result, err := s.ExecuteScript("return {}", arg, "plain", []interface{}{arg})
	if err != nil {
		t.Fatalf("ExecuteScript failed: %v", err)
	}

	first, _ := sentArgs[0].(map[string]interface{})
	if first[w3cElementKey] != "host" {
		t.Errorf("element arg not encoded: %v", sentArgs[0])
	}
	if sentArgs[1] != "plain" {
		t.Errorf("plain arg changed: %v", sentArgs[1])
	}
	nested, _ := sentArgs[2].([]interface{})
	if ref, _ := nested[0].(map[string]interface{}); ref[w3cElementKey] != "host" {
		t.Errorf("nested element arg not encoded: %v", sentArgs[2])
	}

	m := result.(map[string]interface{})
	frame, ok := m["frame"].(driver.Element)
	if !ok || frame.Handle() != "iframe-7" {
		t.Errorf("frame = %#v", m["frame"])
	}
	if m["name"] != "Contacts" {
		t.Errorf("name = %v", m["name"])
	}
	list := m["list"].([]interface{})
	if el, ok := list[0].(driver.Element); !ok || el.Handle() != "li-1" {
		t.Errorf("list[0] = %#v", list[0])
	}
}

func TestElement_TapFallsBackToClick(t *testing.T) {
	clicked := false
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s/actions":
			w.WriteHeader(http.StatusNotFound)
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"error": "unknown command", "message": "no actions"},
			})
		case "/session/s/element/e/click":
			clicked = true
			writeJSON(w, map[string]interface{}{"value": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	el := &Element{id: "e", session: s}
	if err := el.Tap(); err != nil {
		t.Fatalf("Tap failed: %v", err)
	}
	if !clicked {
		t.Error("expected click fallback")
	}
}

func TestElement_ScopedFind(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/s/element/list/element":
			writeJSON(w, map[string]interface{}{"value": map[string]interface{}{w3cElementKey: "child"}})
		case "/session/s/element/list/elements":
			noSuchElement(w)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	parent := &Element{id: "list", session: s}
	child, err := parent.FindElement(driver.TagName("p"))
	if err != nil {
		t.Fatalf("FindElement failed: %v", err)
	}
	if child.Handle() != "child" {
		t.Errorf("child = %q", child.Handle())
	}

	_, err = parent.FindElements(driver.XPath("./p[2]"))
	if !core.IsLookupFailure(err) {
		t.Errorf("expected lookup failure, got %v", err)
	}
}

func TestSession_SwitchToFrameNil(t *testing.T) {
	var body map[string]interface{}
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		body = readBody(t, r)
		writeJSON(w, map[string]interface{}{"value": nil})
	})

	if err := s.SwitchToFrame(nil); err != nil {
		t.Fatalf("SwitchToFrame(nil) failed: %v", err)
	}
	if v, ok := body["id"]; !ok || v != nil {
		t.Errorf("body = %v", body)
	}
}
