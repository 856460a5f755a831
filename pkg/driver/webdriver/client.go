// Package webdriver implements driver.Session over the W3C WebDriver protocol,
// the HTTP dialect the device's automation server speaks.
package webdriver

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/rs/zerolog"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// Error is a W3C WebDriver error response.
type Error struct {
	Status  int
	Code    string // e.g. "no such element"
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client handles HTTP communication with the automation server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	log       zerolog.Logger
}

// NewClient creates a new client for serverURL.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute, // async data-layer scripts can run long
		},
		log: logger.WithComponent("webdriver"),
	}
}

// SessionID returns the active session id, empty before Connect.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	if capabilities == nil {
		capabilities = map[string]interface{}{}
	}
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}
	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// Element Operations

// FindElement finds a single element in the current frame.
func (c *Client) FindElement(strategy, value string) (string, error) {
	return c.findOne(c.sessionPath()+"/element", strategy, value)
}

// FindElements finds all matching elements in the current frame.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	return c.findMany(c.sessionPath()+"/elements", strategy, value)
}

// FindElementFrom finds a single element below parentID.
func (c *Client) FindElementFrom(parentID, strategy, value string) (string, error) {
	return c.findOne(c.elementPath(parentID)+"/element", strategy, value)
}

// FindElementsFrom finds all matching elements below parentID.
func (c *Client) FindElementsFrom(parentID, strategy, value string) ([]string, error) {
	return c.findMany(c.elementPath(parentID)+"/elements", strategy, value)
}

func (c *Client) findOne(path, strategy, value string) (string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", &Error{Code: "no such element", Message: "empty element response"}
	}
	id := extractElementID(elemValue)
	if id == "" {
		return "", &Error{Code: "no such element", Message: "response carries no element reference"}
	}
	return id, nil
}

func (c *Client) findMany(path, strategy, value string) ([]string, error) {
	resp, err := c.post(path, map[string]interface{}{
		"using": strategy,
		"value": value,
	})
	if err != nil {
		return nil, err
	}

	items, _ := resp["value"].([]interface{})
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]interface{}); ok {
			if id := extractElementID(m); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", nil)
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", nil)
	return err
}

// SendKeysToElement types text into an element.
func (c *Client) SendKeysToElement(elementID, text string) error {
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text": text,
	})
	return err
}

// GetElementText returns an element's text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// GetElementAttribute returns an element's attribute value.
func (c *Client) GetElementAttribute(elementID, name string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/attribute/" + name)
	if err != nil {
		return "", err
	}
	switch v := resp["value"].(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(v), nil
	}
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// IsElementEnabled checks if element is enabled.
func (c *Client) IsElementEnabled(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/enabled")
	if err != nil {
		return false, err
	}
	enabled, _ := resp["value"].(bool)
	return enabled, nil
}

// Touch Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// TapElement performs a tap on an element using W3C touch actions with element origin.
func (c *Client) TapElement(elementID string) error {
	return c.performTouchAction([]map[string]interface{}{
		{
			"type":     "pointerMove",
			"duration": 0,
			"x":        0,
			"y":        0,
			"origin":   map[string]interface{}{w3cElementKey: elementID},
		},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// Frames

// SwitchToFrame enters the iframe elementID; an empty id selects the top-level document.
func (c *Client) SwitchToFrame(elementID string) error {
	var id interface{}
	if elementID != "" {
		id = map[string]interface{}{w3cElementKey: elementID}
	}
	_, err := c.post(c.sessionPath()+"/frame", map[string]interface{}{"id": id})
	return err
}

// SwitchToParentFrame leaves the current frame.
func (c *Client) SwitchToParentFrame() error {
	_, err := c.post(c.sessionPath()+"/frame/parent", map[string]interface{}{})
	return err
}

// Scripts

// ExecuteSync runs script in the current frame and returns its raw result.
func (c *Client) ExecuteSync(script string, args []interface{}) (interface{}, error) {
	return c.execute("/execute/sync", script, args)
}

// ExecuteAsync runs script with a completion callback appended to args.
func (c *Client) ExecuteAsync(script string, args []interface{}) (interface{}, error) {
	return c.execute("/execute/async", script, args)
}

func (c *Client) execute(endpoint, script string, args []interface{}) (interface{}, error) {
	if args == nil {
		args = []interface{}{}
	}
	resp, err := c.post(c.sessionPath()+endpoint, map[string]interface{}{
		"script": script,
		"args":   args,
	})
	if err != nil {
		return nil, err
	}
	return resp["value"], nil
}

// Screen Operations

// Screenshot returns a screenshot as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Source returns the page source of the current frame.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// Timeouts

// SetTimeouts sets the script and implicit wait timeouts. Zero values are left unchanged.
func (c *Client) SetTimeouts(script, implicit time.Duration) error {
	body := map[string]interface{}{}
	if script > 0 {
		body["script"] = script.Milliseconds()
	}
	if implicit > 0 {
		body["implicit"] = implicit.Milliseconds()
	}
	if len(body) == 0 {
		return nil
	}
	_, err := c.post(c.sessionPath()+"/timeouts", body)
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path
	start := time.Now()

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("nil response from server")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request")

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &Error{Status: resp.StatusCode, Code: "unknown error", Message: strings.TrimSpace(string(respBody))}
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			errMsg, _ := errValue["message"].(string)
			return result, &Error{Status: resp.StatusCode, Code: errType, Message: errMsg}
		}
	}
	if resp.StatusCode >= 400 {
		return result, &Error{Status: resp.StatusCode, Code: "unknown error", Message: http.StatusText(resp.StatusCode)}
	}

	return result, nil
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}
