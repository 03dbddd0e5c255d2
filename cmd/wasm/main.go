//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"sync"
	"syscall/js"

	"github.com/himanishpuri/FolkDNA/internal/abc"
	"github.com/himanishpuri/FolkDNA/internal/features"
	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/internal/query"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorProcessing
	ErrorIndexNotLoaded
	ErrorIndexCorrupt
	ErrorInvalidTranscription
)

var (
	mu          sync.Mutex
	engine      *query.Engine
	transcriber *features.Transcriber
)

// loadIndexFromJSON(jsonText) parses the JSON form of a tune index.
// Returns: {error: number, data: {tunes, settings} | string}
func loadIndexFromJSON(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: index JSON text")
	}

	idx, err := index.Parse([]byte(args[0].String()))
	if err != nil {
		return makeErrorResponse(ErrorIndexCorrupt, fmt.Sprintf("Failed to load index: %v", err))
	}

	mu.Lock()
	engine = query.New(idx)
	mu.Unlock()

	st := idx.Stats()
	data := js.Global().Get("Object").New()
	data.Set("tunes", st.Tunes)
	data.Set("settings", st.Settings)
	return makeResponse(data)
}

// startTranscription(sampleRate) begins a new streaming transcription.
func startTranscription(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 1 argument: sampleRate")
	}

	t, err := features.NewTranscriber(args[0].Int())
	if err != nil {
		return makeErrorResponse(ErrorInvalidArgs, err.Error())
	}

	mu.Lock()
	transcriber = t
	mu.Unlock()
	return makeResponse(js.Null())
}

// feedAudio(samples) pushes a chunk of mono samples in [-1, 1].
func feedAudio(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "samples must be an Array or Float32Array")
	}

	mu.Lock()
	defer mu.Unlock()
	if transcriber == nil {
		return makeErrorResponse(ErrorProcessing, "startTranscription has not been called")
	}

	chunk := make([]float64, args[0].Length())
	for i := range chunk {
		val := args[0].Index(i)
		if val.Type() != js.TypeNumber {
			return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("samples element %d is not a number", i))
		}
		chunk[i] = val.Float()
	}

	if err := transcriber.Feed(chunk); err != nil {
		return makeErrorResponse(ErrorProcessing, err.Error())
	}
	return makeResponse(js.Null())
}

// finishTranscription() flushes the streaming transcription and returns its
// text form.
func finishTranscription(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if transcriber == nil {
		return makeErrorResponse(ErrorProcessing, "startTranscription has not been called")
	}

	t := transcriber.Finish()
	transcriber = nil
	return makeResponse(t.String())
}

// runTranscriptionQuery(transcription, limit) ranks the index.
// Returns: {error: number, data: [{tuneId, settingId, score}] | string}
func runTranscriptionQuery(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: transcription, [limit]")
	}

	e := currentEngine()
	if e == nil {
		return makeErrorResponse(ErrorIndexNotLoaded, "Tune index not loaded")
	}

	t, err := model.ParseTranscription(args[0].String())
	if err != nil {
		return makeErrorResponse(ErrorInvalidTranscription, err.Error())
	}

	matches := query.Top(e.RunQuery(t), limitArg(args, 1))
	out := js.Global().Get("Array").New()
	for i, m := range matches {
		obj := js.Global().Get("Object").New()
		obj.Set("tuneId", m.TuneID)
		obj.Set("settingId", m.SettingID)
		obj.Set("score", m.Score)
		out.SetIndex(i, obj)
	}
	return makeResponse(out)
}

// runNameQuery(name, limit) finds tunes by name.
func runNameQuery(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: name, [limit]")
	}

	e := currentEngine()
	if e == nil {
		return makeErrorResponse(ErrorIndexNotLoaded, "Tune index not loaded")
	}

	out := js.Global().Get("Array").New()
	for i, m := range e.RunNameQuery(args[0].String(), limitArg(args, 1)) {
		obj := js.Global().Get("Object").New()
		obj.Set("tuneId", m.TuneID)
		obj.Set("name", m.Name)
		obj.Set("score", m.Score)
		out.SetIndex(i, obj)
	}
	return makeResponse(out)
}

// contourToAbc(transcription, title) renders ABC notation.
func contourToAbc(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return makeErrorResponse(ErrorInvalidArgs, "Expected arguments: transcription, [title]")
	}

	t, err := model.ParseTranscription(args[0].String())
	if err != nil {
		return makeErrorResponse(ErrorInvalidTranscription, err.Error())
	}

	var title string
	if len(args) > 1 && args[1].Type() == js.TypeString {
		title = args[1].String()
	}
	return makeResponse(abc.Format(t, abc.Header{Title: title}))
}

func currentEngine() *query.Engine {
	mu.Lock()
	defer mu.Unlock()
	return engine
}

func limitArg(args []js.Value, i int) int {
	if len(args) > i && args[i].Type() == js.TypeNumber {
		return args[i].Int()
	}
	return 10
}

func makeResponse(data interface{}) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	if !console.IsUndefined() {
		console.Call("log", "🔧 FolkDNA WASM module initializing...")
	}

	done := make(chan struct{})

	exports := map[string]func(js.Value, []js.Value) interface{}{
		"loadIndexFromJSON":     loadIndexFromJSON,
		"startTranscription":    startTranscription,
		"feedAudio":             feedAudio,
		"finishTranscription":   finishTranscription,
		"runTranscriptionQuery": runTranscriptionQuery,
		"runNameQuery":          runNameQuery,
		"contourToAbc":          contourToAbc,
	}
	for name, fn := range exports {
		js.Global().Set(name, js.FuncOf(fn))
	}

	// Workers have no window; announce readiness on the global scope
	global := js.Global()
	if window := js.Global().Get("window"); !window.IsUndefined() {
		global = window
	}
	eventInit := js.Global().Get("Object").New()
	event := js.Global().Get("CustomEvent").New("wasmReady", eventInit)
	global.Call("dispatchEvent", event)

	if !console.IsUndefined() {
		console.Call("log", "✅ FolkDNA WASM module loaded and ready")
	}

	<-done
}
