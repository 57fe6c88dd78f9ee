//go:build js && wasm

package main

import (
	"fmt"
	"image"
	"syscall/js"

	"github.com/MeKo-Tech/undertone/internal/pipeline"
)

var analyzer = pipeline.NewAnalyzer(nil)

// classify is called from JavaScript with the width, height and RGBA bytes
// of a canvas ImageData (a Uint8ClampedArray).
func classify(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return map[string]interface{}{"error": "expected width, height and rgba"}
	}

	width, height := args[0].Int(), args[1].Int()
	if width <= 0 || height <= 0 {
		return map[string]interface{}{"error": fmt.Sprintf("invalid size %dx%d", width, height)}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if n := args[2].Length(); n != len(img.Pix) {
		return map[string]interface{}{"error": fmt.Sprintf("expected %d bytes, got %d", len(img.Pix), n)}
	}
	js.CopyBytesToGo(img.Pix, js.Global().Get("Uint8Array").New(args[2].Get("buffer"), args[2].Get("byteOffset"), args[2].Get("length")))

	o := analyzer.Analyze(img)
	if !o.OK() {
		return map[string]interface{}{"label": o.Label.String(), "error": o.Fault.Error()}
	}

	return map[string]interface{}{
		"label":   o.Label.String(),
		"meanA":   o.Summary.MeanGR,
		"meanB":   o.Summary.MeanBY,
		"diff":    o.Summary.Diff(),
		"ratio":   o.Summary.Ratio(),
		"samples": o.Summary.SampleCount,
		"masked":  o.Summary.MaskedCount,
	}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("undertoneClassify", js.FuncOf(classify))

	fmt.Println("Undertone WASM module loaded")
	<-c
}
