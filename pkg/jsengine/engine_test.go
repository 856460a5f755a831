package jsengine

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	engine := New()
	defer engine.Close()

	if engine == nil {
		t.Fatal("expected engine to be created")
	}
	if engine.runtime == nil {
		t.Fatal("expected runtime to be initialized")
	}
}

func TestEval(t *testing.T) {
	engine := New()
	defer engine.Close()

	tests := []struct {
		name     string
		script   string
		expected interface{}
	}{
		{"simple number", "1 + 2", int64(3)},
		{"string concat", "'hello' + ' ' + 'world'", "hello world"},
		{"boolean", "true && false", false},
		{"array length", "[1, 2, 3].length", int64(3)},
		{"object property", "({name: 'test'}).name", "test"},
		{"window is global", "window === this", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Eval(tt.script)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v (%T), got %v (%T)", tt.expected, tt.expected, result, result)
			}
		})
	}
}

func TestSetVariable(t *testing.T) {
	engine := New()
	defer engine.Close()

	engine.SetVariable("ssid", "gaia-test")

	result, err := engine.Eval("ssid + '!'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "gaia-test!" {
		t.Errorf("expected 'gaia-test!', got %v", result)
	}
}

func TestConsoleLog(t *testing.T) {
	engine := New()
	defer engine.Close()

	// Just make sure it doesn't panic
	err := engine.RunScript(`
		console.log("test message");
		console.error("error message");
		console.warn("warning message");
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetTimeout(t *testing.T) {
	engine := New()
	defer engine.Close()

	// Set up a flag that will be set by setTimeout
	engine.SetVariable("flag", false)

	err := engine.RunScript(`
		setTimeout(function() {
			flag = true;
		}, 50);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait for timeout to fire
	time.Sleep(100 * time.Millisecond)

	result, err := engine.Eval("flag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != true {
		t.Errorf("expected flag to be true after setTimeout, got %v", result)
	}
}

func TestClearTimeout(t *testing.T) {
	engine := New()
	defer engine.Close()

	engine.SetVariable("flag", false)

	err := engine.RunScript(`
		var id = setTimeout(function() {
			flag = true;
		}, 50);
		clearTimeout(id);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait longer than the timeout would have been
	time.Sleep(100 * time.Millisecond)

	result, err := engine.Eval("flag")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != false {
		t.Errorf("expected flag to still be false after clearTimeout, got %v", result)
	}
}

func TestSetInterval(t *testing.T) {
	engine := New()
	defer engine.Close()

	engine.SetVariable("counter", int64(0))

	err := engine.RunScript(`
		intervalId = setInterval(function() {
			counter = counter + 1;
		}, 30);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Wait for a few intervals
	time.Sleep(100 * time.Millisecond)

	// Clear the interval
	engine.RunScript("clearInterval(intervalId)")

	result, err := engine.Eval("counter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counter, ok := result.(int64)
	if !ok {
		t.Fatalf("expected int64, got %T", result)
	}
	if counter < 2 {
		t.Errorf("expected counter >= 2, got %d", counter)
	}
}

func TestCall_Arguments(t *testing.T) {
	engine := New()
	defer engine.Close()

	result, err := engine.Call("return arguments[0] + arguments.length;", []interface{}{"n=", 2}, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result != "n=2" {
		t.Errorf("expected 'n=2', got %v", result)
	}
}

func TestCall_UndefinedResult(t *testing.T) {
	engine := New()
	defer engine.Close()

	result, err := engine.Call("var x = 1;", nil, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestCall_GoValuesRoundTrip(t *testing.T) {
	engine := New()
	defer engine.Close()

	type node struct{ id string }
	n := &node{id: "frame"}

	result, err := engine.Call("return {frame: arguments[0], name: 'FTU'};", []interface{}{n}, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", result)
	}
	if m["frame"] != n {
		t.Errorf("Go pointer did not survive the round trip: %#v", m["frame"])
	}
}

func TestCall_Error(t *testing.T) {
	engine := New()
	defer engine.Close()

	if _, err := engine.Call("throw new Error('boom');", nil, nil); err == nil {
		t.Error("expected runtime error")
	}
	if _, err := engine.Call("return {{{{", nil, nil); err == nil {
		t.Error("expected compile error")
	}
}

func TestSetHost(t *testing.T) {
	engine := New()
	defer engine.Close()

	var got []interface{}
	engine.SetHost("GaiaDevice", map[string]HostFunc{
		"echo": func(args ...interface{}) (interface{}, error) {
			got = args
			return args[0], nil
		},
		"fail": func(args ...interface{}) (interface{}, error) {
			return nil, errors.New("screen is broken")
		},
	})

	result, err := engine.Call("return window.GaiaDevice.echo('hi', 3);", nil, nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if result != "hi" || len(got) != 2 {
		t.Errorf("result = %v, args = %v", result, got)
	}

	_, err = engine.Call("GaiaDevice.fail();", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "screen is broken") {
		t.Errorf("expected host error to surface, got %v", err)
	}
}

func TestCallAsync_SyncCompletion(t *testing.T) {
	engine := New()
	defer engine.Close()

	result, err := engine.CallAsync("arguments[arguments.length - 1](arguments[0] * 2);", []interface{}{21}, nil, time.Second)
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}
	if result != int64(42) {
		t.Errorf("expected 42, got %v (%T)", result, result)
	}
}

func TestCallAsync_DeferredThroughHost(t *testing.T) {
	engine := New()
	defer engine.Close()

	engine.SetHost("GaiaDataLayer", map[string]HostFunc{
		"getSetting": func(args ...interface{}) (interface{}, error) {
			name := args[0].(string)
			done := args[1].(Callback)
			done(name == "geolocation.enabled")
			return nil, nil
		},
	})

	result, err := engine.CallAsync(`
		var done = arguments[arguments.length - 1];
		GaiaDataLayer.getSetting(arguments[0], done);
	`, []interface{}{"geolocation.enabled"}, nil, time.Second)
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}
	if result != true {
		t.Errorf("expected true, got %v", result)
	}
}

func TestCallAsync_Timer(t *testing.T) {
	engine := New()
	defer engine.Close()

	result, err := engine.CallAsync(`
		var done = arguments[0];
		setTimeout(function() { done('late'); }, 20);
	`, nil, nil, time.Second)
	if err != nil {
		t.Fatalf("CallAsync failed: %v", err)
	}
	if result != "late" {
		t.Errorf("expected 'late', got %v", result)
	}
}

func TestCallAsync_Timeout(t *testing.T) {
	engine := New()
	defer engine.Close()

	_, err := engine.CallAsync("/* never calls back */", nil, nil, 30*time.Millisecond)
	if !errors.Is(err, ErrScriptTimeout) {
		t.Errorf("expected ErrScriptTimeout, got %v", err)
	}
}

type fakeNode struct {
	attrs map[string]interface{}
}

func (f *fakeNode) Get(key string) (interface{}, bool) {
	v, ok := f.attrs[key]
	return v, ok
}

func (f *fakeNode) Set(key string, value interface{}) bool {
	f.attrs[key] = value
	return true
}

func (f *fakeNode) Keys() []string {
	keys := make([]string, 0, len(f.attrs))
	for k := range f.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestHostObjectGlobals(t *testing.T) {
	engine := New()
	defer engine.Close()

	node := &fakeNode{attrs: map[string]interface{}{"value": ""}}
	var lookup HostFunc = func(args ...interface{}) (interface{}, error) {
		if args[0] == "msgToSend" {
			return node, nil
		}
		return nil, nil
	}
	document := &fakeNode{attrs: map[string]interface{}{"getElementById": lookup}}

	_, err := engine.Call(`
		var msgToSend = document.getElementById('msgToSend');
		msgToSend.value = "this is a test";
	`, nil, map[string]interface{}{"document": document})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if node.attrs["value"] != "this is a test" {
		t.Errorf("value = %v", node.attrs["value"])
	}

	missing, err := engine.Call("return document.getElementById('nope');", nil, map[string]interface{}{"document": document})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected null for a missing node, got %v", missing)
	}
}

func TestRunScriptError(t *testing.T) {
	engine := New()
	defer engine.Close()

	err := engine.RunScript("invalid javascript {{{{")
	if err == nil {
		t.Error("expected error for invalid javascript")
	}
}

func TestEvalError(t *testing.T) {
	engine := New()
	defer engine.Close()

	_, err := engine.Eval("undefinedVariable.property")
	if err == nil {
		t.Error("expected error for undefined variable")
	}
}
