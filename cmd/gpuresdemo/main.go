// Command gpuresdemo draws the classic triangle through a gpures frame
// loop and saves the last presented frame as a PNG.
//
// It runs headless: the window is scripted, so the demo works in CI and
// over SSH. With -resize the window is resized after the first frame,
// which exercises the swap-chain rebuild path.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/backend"
	"github.com/gogpu/gpures/backend/wgpu"
	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/resource"
)

func main() {
	var (
		width   = flag.Uint("width", 640, "window width")
		height  = flag.Uint("height", 480, "window height")
		name    = flag.String("backend", "auto", "backend: auto, wgpu or software")
		frames  = flag.Uint64("frames", 3, "frames to draw")
		resize  = flag.String("resize", "", "resize to WxH after the first frame")
		texture = flag.String("texture", "", "image file for the texture step")
		output  = flag.String("output", "triangle.png", "output file")
		verbose = flag.Bool("v", false, "log every acquire and release")
		debug   = flag.Bool("debug", false, "enable GPU debug and validation layers")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	gpures.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Capture makes the GPU backend read frames back for the PNG.
	backend.Register(backend.BackendWGPU, func() backend.Backend {
		return wgpu.New(wgpu.WithCapture(true), wgpu.WithDebug(*debug))
	})

	b, err := openBackend(*name)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	defer b.Close()

	var batches [][]frame.Event
	if *resize != "" {
		var w, h uint32
		if _, err := fmt.Sscanf(*resize, "%dx%d", &w, &h); err != nil {
			log.Fatalf("Invalid -resize %q: %v", *resize, err)
		}
		batches = append(batches, nil, []frame.Event{frame.ResizeEvent(w, h)})
	}

	assets := backend.DefaultAssets()
	assets.TexturePath = *texture

	reg := resource.NewRegistry()
	var last *image.RGBA
	snapshot := func(from, to frame.State) {
		if to != frame.ShuttingDown || from == frame.NotInitialized {
			return
		}
		if swap, err := reg.Get(resource.SwapChain); err == nil {
			last = presented(swap)
		}
	}

	loop := frame.NewLoop(reg, backend.TrianglePlan(b, 0, assets), b.NewRenderer(),
		frame.WithMaxFrames(*frames),
		frame.WithStateHook(snapshot),
	)
	if err := loop.Init(uint32(*width), uint32(*height)); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := loop.Run(ctx, frame.NewScriptedWindow(batches...)); err != nil {
		log.Fatalf("Frame loop failed: %v", err)
	}

	if last == nil {
		log.Printf("Backend %s produced no readable frame, nothing saved", b.Name())
		return
	}
	if err := savePNG(*output, last); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %s, %d frames)\n",
		*output, last.Bounds().Dx(), last.Bounds().Dy(), b.Name(), loop.Frames())
}

// openBackend initializes the named backend, or the best available one.
func openBackend(name string) (backend.Backend, error) {
	if name == "auto" {
		return backend.InitDefault()
	}
	b := backend.Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q (have %v)", backend.ErrBackendNotAvailable, name, backend.Available())
	}
	if err := b.Init(); err != nil {
		return nil, err
	}
	return b, nil
}

// presented returns the last frame presented to swap on either backend.
func presented(swap *resource.Handle) *image.RGBA {
	if img := backend.FrontBuffer(swap); img != nil {
		return img
	}
	return wgpu.Capture(swap)
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
