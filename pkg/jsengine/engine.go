// Package jsengine runs device-side scripts for the in-memory device: the
// launcher, data layer and DOM helpers that a real device injects into its
// browser are exposed here as Go host objects.
package jsengine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/logger"
	"github.com/dop251/goja"
)

// ErrScriptTimeout is returned when an async script never calls back.
var ErrScriptTimeout = errors.New("script timeout")

// HostFunc is a Go function callable from scripts. Arguments arrive exported
// to Go values; script functions arrive as Callback.
type HostFunc func(args ...interface{}) (interface{}, error)

// Callback invokes a script function from host code. The call is deferred
// until the engine is idle.
type Callback func(args ...interface{})

// HostObject is a Go value exposed to scripts with live property access.
type HostObject interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}) bool
	Keys() []string
}

// Engine wraps a goja runtime shared by every script of one device.
type Engine struct {
	runtime *goja.Runtime
	timers  *timerRegistry
	mu      sync.Mutex
}

// timerRegistry manages setTimeout/setInterval timers
type timerRegistry struct {
	timers    map[int]*time.Timer
	tickers   map[int]*time.Ticker
	nextID    int
	mu        sync.Mutex
	stopChan  chan struct{}
	closeOnce sync.Once
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{
		timers:   make(map[int]*time.Timer),
		tickers:  make(map[int]*time.Ticker),
		nextID:   1,
		stopChan: make(chan struct{}),
	}
}

// New creates a new JS engine instance
func New() *Engine {
	e := &Engine{
		runtime: goja.New(),
		timers:  newTimerRegistry(),
	}

	e.setupBuiltins()
	return e
}

// setupBuiltins registers all built-in functions and objects
func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.setupTimers()

	// Scripts address host objects through window, as on the device.
	e.runtime.Set("window", e.runtime.GlobalObject())
}

// setupConsole routes console.log and friends to the run log.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			msg := fmt.Sprint(args...)
			switch level {
			case "error":
				logger.Error("js: %s", msg)
			case "warn":
				logger.Warn("js: %s", msg)
			default:
				logger.Debug("js: %s", msg)
			}
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc("log"))
	console.Set("error", makeConsoleFunc("error"))
	console.Set("warn", makeConsoleFunc("warn"))
	e.runtime.Set("console", console)
}

// setupTimers adds setTimeout, setInterval, clearTimeout, clearInterval
func (e *Engine) setupTimers() {
	// setTimeout
	e.runtime.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.runtime.NewTypeError("setTimeout requires 2 arguments"))
		}

		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(e.runtime.NewTypeError("first argument must be a function"))
		}

		delay := call.Arguments[1].ToInteger()

		e.timers.mu.Lock()
		id := e.timers.nextID
		e.timers.nextID++

		timer := time.AfterFunc(time.Duration(delay)*time.Millisecond, func() {
			e.mu.Lock()
			defer e.mu.Unlock()

			if _, err := callback(goja.Undefined()); err != nil {
				logger.Warn("setTimeout callback error: %v", err)
			}

			e.timers.mu.Lock()
			delete(e.timers.timers, id)
			e.timers.mu.Unlock()
		})

		e.timers.timers[id] = timer
		e.timers.mu.Unlock()

		return e.runtime.ToValue(id)
	})

	// clearTimeout
	e.runtime.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}

		id := int(call.Arguments[0].ToInteger())

		e.timers.mu.Lock()
		if timer, ok := e.timers.timers[id]; ok {
			timer.Stop()
			delete(e.timers.timers, id)
		}
		e.timers.mu.Unlock()

		return goja.Undefined()
	})

	// setInterval
	e.runtime.Set("setInterval", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(e.runtime.NewTypeError("setInterval requires 2 arguments"))
		}

		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(e.runtime.NewTypeError("first argument must be a function"))
		}

		interval := call.Arguments[1].ToInteger()
		if interval <= 0 {
			interval = 1
		}

		e.timers.mu.Lock()
		id := e.timers.nextID
		e.timers.nextID++

		ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
		e.timers.tickers[id] = ticker
		e.timers.mu.Unlock()

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-e.timers.stopChan:
					return
				case <-ticker.C:
					e.mu.Lock()
					if _, err := callback(goja.Undefined()); err != nil {
						logger.Warn("setInterval callback error: %v", err)
					}
					e.mu.Unlock()
				}
			}
		}()

		return e.runtime.ToValue(id)
	})

	// clearInterval
	e.runtime.Set("clearInterval", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}

		id := int(call.Arguments[0].ToInteger())

		e.timers.mu.Lock()
		if ticker, ok := e.timers.tickers[id]; ok {
			ticker.Stop()
			delete(e.timers.tickers, id)
		}
		e.timers.mu.Unlock()

		return goja.Undefined()
	})
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runtime.Set(name, e.toValue(value))
}

// SetHost exposes a Go object with methods as a global.
func (e *Engine) SetHost(name string, methods map[string]HostFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj := e.runtime.NewObject()
	for method, fn := range methods {
		obj.Set(method, e.wrapHostFunc(fn))
	}
	e.runtime.Set(name, obj)
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}

	return result.Export(), nil
}

// RunScript runs a JavaScript file/script
func (e *Engine) RunScript(script string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.runtime.RunString(script)
	if err != nil {
		return fmt.Errorf("JS runtime error: %w", err)
	}

	return nil
}

// Call runs script as a function body with args bound to arguments, after
// setting globals. The function's return value is exported.
func (e *Engine) Call(script string, args []interface{}, globals map[string]interface{}) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.invoke(script, args, globals)
	if err != nil {
		return nil, err
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, nil
	}
	return result.Export(), nil
}

// CallAsync runs script with a completion callback appended to args and
// returns the first value passed to it. It fails with ErrScriptTimeout when
// the callback is not invoked within timeout.
func (e *Engine) CallAsync(script string, args []interface{}, globals map[string]interface{}, timeout time.Duration) (interface{}, error) {
	done := make(chan interface{}, 1)
	var once sync.Once
	finish := func(call goja.FunctionCall) goja.Value {
		var v interface{}
		if arg := call.Argument(0); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			v = arg.Export()
		}
		once.Do(func() { done <- v })
		return goja.Undefined()
	}

	e.mu.Lock()
	callArgs := make([]interface{}, 0, len(args)+1)
	callArgs = append(callArgs, args...)
	callArgs = append(callArgs, e.runtime.ToValue(finish))
	_, err := e.invoke(script, callArgs, globals)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case v := <-done:
		return v, nil
	case <-time.After(timeout):
		return nil, ErrScriptTimeout
	}
}

func (e *Engine) invoke(script string, args []interface{}, globals map[string]interface{}) (goja.Value, error) {
	for name, value := range globals {
		e.runtime.Set(name, e.toValue(value))
	}

	fnValue, err := e.runtime.RunString("(function() {\n" + script + "\n})")
	if err != nil {
		return nil, fmt.Errorf("JS compile error: %w", err)
	}
	fn, ok := goja.AssertFunction(fnValue)
	if !ok {
		return nil, fmt.Errorf("JS compile error: not a function")
	}

	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i] = e.toValue(arg)
	}

	result, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, fmt.Errorf("JS runtime error: %w", err)
	}
	return result, nil
}

// toValue converts host values; callers hold e.mu.
func (e *Engine) toValue(v interface{}) goja.Value {
	switch val := v.(type) {
	case goja.Value:
		return val
	case HostFunc:
		return e.runtime.ToValue(e.wrapHostFunc(val))
	case HostObject:
		return e.runtime.NewDynamicObject(&dynamicObject{engine: e, host: val})
	default:
		return e.runtime.ToValue(v)
	}
}

func (e *Engine) wrapHostFunc(fn HostFunc) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]interface{}, len(call.Arguments))
		for i, arg := range call.Arguments {
			if f, ok := goja.AssertFunction(arg); ok {
				args[i] = e.callback(f)
				continue
			}
			args[i] = arg.Export()
		}
		result, err := fn(args...)
		if err != nil {
			panic(e.runtime.NewGoError(err))
		}
		return e.toValue(result)
	}
}

// callback defers invocation of a script function to its own goroutine so
// host code may call it while a script is still running.
func (e *Engine) callback(f goja.Callable) Callback {
	return func(args ...interface{}) {
		go func() {
			e.mu.Lock()
			defer e.mu.Unlock()

			jsArgs := make([]goja.Value, len(args))
			for i, arg := range args {
				jsArgs[i] = e.toValue(arg)
			}
			if _, err := f(goja.Undefined(), jsArgs...); err != nil {
				logger.Warn("callback error: %v", err)
			}
		}()
	}
}

// dynamicObject adapts a HostObject to goja.DynamicObject.
type dynamicObject struct {
	engine *Engine
	host   HostObject
}

func (d *dynamicObject) Get(key string) goja.Value {
	v, ok := d.host.Get(key)
	if !ok {
		return nil
	}
	return d.engine.toValue(v)
}

func (d *dynamicObject) Set(key string, val goja.Value) bool {
	return d.host.Set(key, val.Export())
}

func (d *dynamicObject) Has(key string) bool {
	_, ok := d.host.Get(key)
	return ok
}

func (d *dynamicObject) Delete(string) bool { return false }

func (d *dynamicObject) Keys() []string { return d.host.Keys() }

// Close cleans up the engine (stops timers, etc.)
// Safe to call multiple times.
func (e *Engine) Close() {
	e.timers.closeOnce.Do(func() {
		e.timers.mu.Lock()
		defer e.timers.mu.Unlock()

		// Stop all timers
		for _, timer := range e.timers.timers {
			timer.Stop()
		}
		e.timers.timers = make(map[int]*time.Timer)

		// Stop all tickers
		for _, ticker := range e.timers.tickers {
			ticker.Stop()
		}
		e.timers.tickers = make(map[int]*time.Ticker)

		// Signal stop to goroutines
		close(e.timers.stopChan)
	})
}
