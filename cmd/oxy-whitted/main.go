// oxy-whitted is an interactive progressive ray tracer. Left-drag orbits the camera, right-drag dollies
// it, s saves a snapshot and q or Escape quits. With --file it renders a still image and exits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-whitted/common"
	"github.com/Carmen-Shannon/oxy-whitted/engine"
	"github.com/Carmen-Shannon/oxy-whitted/engine/camera"
	"github.com/Carmen-Shannon/oxy-whitted/engine/loader"
	"github.com/Carmen-Shannon/oxy-whitted/engine/renderer"
	"github.com/Carmen-Shannon/oxy-whitted/engine/scene"
	"github.com/Carmen-Shannon/oxy-whitted/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

const snapshotPath = "oxy-whitted.ppm"

var cmdRoot = &cobra.Command{
	Use:          "oxy-whitted",
	Short:        "Progressive Whitted-style ray tracer with an arcball camera",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// glog reads its flags from flag.CommandLine; cobra has already filled them in.
		return flag.CommandLine.Parse(nil)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		backendType, err := renderer.ParseBackendType(backendName)
		if err != nil {
			return err
		}
		if outputFile != "" {
			return renderStill(backendType)
		}
		return runInteractive(backendType)
	},
}

var (
	width           int
	height          int
	backendName     string
	outputFile      string
	samples         int
	workers         int
	maxDepth        int
	vsync           bool
	softwareAdapter bool
	profile         bool
	maxFPS          float64
	meshPath        string
	meshScale       float64
	meshOffset      []string
	meshTriangles   int
	fov             float64
	minSize         string
	maxSize         string
	fixedSize       bool
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()

	cmdRoot.Flags().IntVar(&width, "width", 768, "Image width in pixels.")
	cmdRoot.Flags().IntVar(&height, "height", 768, "Image height in pixels.")
	cmdRoot.Flags().StringVar(&backendName, "backend", "wgpu", "Trace backend: wgpu or software. The software backend only renders still images.")
	cmdRoot.Flags().StringVar(&outputFile, "file", "", "Render a still image to this .ppm or .png file and exit.")
	cmdRoot.Flags().IntVar(&samples, "samples", 1, "Samples per pixel accumulated for --file.")
	cmdRoot.Flags().IntVar(&workers, "workers", 0, "Worker goroutines for the software backend (0 = one per CPU, less one).")
	cmdRoot.Flags().IntVar(&maxDepth, "max-depth", 0, "Maximum trace depth (0 = scene default).")
	cmdRoot.Flags().BoolVar(&vsync, "vsync", true, "Wait for vertical blank when presenting.")
	cmdRoot.Flags().BoolVar(&softwareAdapter, "software-adapter", false, "Force the WebGPU fallback adapter.")
	cmdRoot.Flags().BoolVar(&profile, "profile", false, "Log frame rate, sample count and memory once per second.")
	cmdRoot.Flags().Float64Var(&maxFPS, "max-fps", 0, "Frame rate cap (0 = uncapped).")
	cmdRoot.Flags().StringVar(&meshPath, "mesh", "", "Add the triangles of this .gltf or .glb file to the scene.")
	cmdRoot.Flags().Float64Var(&meshScale, "mesh-scale", 1, "Uniform scale applied to --mesh.")
	cmdRoot.Flags().StringSliceVar(&meshOffset, "mesh-offset", []string{"4", "1.5", "-4"}, "World position x,y,z of the --mesh origin.")
	cmdRoot.Flags().IntVar(&meshTriangles, "mesh-max-triangles", 4096, "Largest --mesh accepted, in triangles.")
	cmdRoot.Flags().Float64Var(&fov, "fov", 60, "Vertical field of view in degrees.")
	cmdRoot.Flags().StringVar(&minSize, "min-size", "", "Smallest window size, as WIDTHxHEIGHT. Also the smallest image the camera renders.")
	cmdRoot.Flags().StringVar(&maxSize, "max-size", "", "Largest window size, as WIDTHxHEIGHT.")
	cmdRoot.Flags().BoolVar(&fixedSize, "fixed-size", false, "Keep the window at --width by --height.")

	cmdRoot.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func backendOptions(w, h int) ([]renderer.TraceBackendBuilderOption, error) {
	mode := renderer.PresentModeUncapped
	if vsync {
		mode = renderer.PresentModeVSync
	}
	opts := []renderer.TraceBackendBuilderOption{
		renderer.WithSize(w, h),
		renderer.WithWorkers(workers),
		renderer.WithMaxDepth(maxDepth),
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(softwareAdapter),
	}
	if meshPath != "" {
		s, err := sceneWithMesh()
		if err != nil {
			return nil, err
		}
		opts = append(opts, renderer.WithScene(s))
	}
	return opts, nil
}

// sceneWithMesh returns the default scene extended with the triangles of --mesh.
func sceneWithMesh() (*scene.Scene, error) {
	offset, err := parseVec3(meshOffset)
	if err != nil {
		return nil, fmt.Errorf("--mesh-offset: %w", err)
	}
	k := float32(meshScale)
	l := loader.NewLoader(
		loader.WithTransform(mgl32.Translate3D(offset[0], offset[1], offset[2]).Mul4(mgl32.Scale3D(k, k, k))),
		loader.WithMaxTriangles(meshTriangles),
	)
	mesh, err := l.Load(meshPath)
	if err != nil {
		return nil, err
	}
	s := scene.Whitted()
	mesh.AddTo(s)
	return s, nil
}

// parseSize reads a WIDTHxHEIGHT pair. The empty string yields 0x0, which leaves a limit unset.
func parseSize(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if w < 0 || h < 0 {
		return 0, 0, fmt.Errorf("size %q is negative", s)
	}
	return w, h, nil
}

// sizeLimits parses --min-size and --max-size.
func sizeLimits() (minW, minH, maxW, maxH int, err error) {
	if minW, minH, err = parseSize(minSize); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("--min-size: %w", err)
	}
	if maxW, maxH, err = parseSize(maxSize); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("--max-size: %w", err)
	}
	return minW, minH, maxW, maxH, nil
}

func parseVec3(fields []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(fields) != 3 {
		return v, fmt.Errorf("want 3 components, got %d", len(fields))
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return v, err
		}
		v[i] = float32(x)
	}
	return v, nil
}

// renderStill resolves the camera once, accumulates the requested samples and writes the output image.
func renderStill(backendType renderer.BackendType) error {
	if samples < 1 {
		return fmt.Errorf("--samples must be at least 1, got %d", samples)
	}
	minW, minH, _, _, err := sizeLimits()
	if err != nil {
		return err
	}
	viewport := camera.NewViewport(
		camera.WithFov(float32(fov)),
		camera.WithSize(width, height),
		camera.WithMinSize(minW, minH),
	)
	w, h := viewport.Size()

	opts, err := backendOptions(w, h)
	if err != nil {
		return err
	}
	backend, err := renderer.NewTraceBackend(backendType, opts...)
	if err != nil {
		return err
	}
	e, err := engine.NewEngine(
		engine.WithBackend(backend),
		engine.WithViewport(viewport),
		engine.WithProfiling(profile),
	)
	if err != nil {
		backend.Release()
		return err
	}
	defer e.Release()

	for range samples {
		if err := e.Frame(); err != nil {
			return err
		}
	}
	img, err := backend.ReadOutput()
	if err != nil {
		return err
	}
	if err := writeImage(outputFile, img); err != nil {
		return err
	}
	glog.Infof("wrote %dx%d image with %d samples to %s", w, h, samples, outputFile)
	return nil
}

func runInteractive(backendType renderer.BackendType) error {
	if backendType != renderer.BackendTypeWGPU {
		return fmt.Errorf("interactive mode needs the %s backend; use --file with %s", renderer.BackendTypeWGPU, backendType)
	}

	minW, minH, maxW, maxH, err := sizeLimits()
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle("oxy-whitted"),
		window.WithWidth(width),
		window.WithHeight(height),
		window.WithMinSize(minW, minH),
		window.WithMaxSize(maxW, maxH),
		window.WithResizable(!fixedSize),
	)
	if err != nil {
		return err
	}

	// Width and Height report the framebuffer, which is larger than the window on scaled displays.
	viewport := camera.NewViewport(
		camera.WithFov(float32(fov)),
		camera.WithSize(win.Width(), win.Height()),
		camera.WithMinSize(minW, minH),
	)
	w, h := viewport.Size()
	opts, err := backendOptions(w, h)
	if err != nil {
		_ = win.Close()
		return err
	}
	backend, err := renderer.NewTraceBackend(backendType, append(opts, renderer.WithSurface(win))...)
	if err != nil {
		_ = win.Close()
		return err
	}

	e, err := engine.NewEngine(
		engine.WithBackend(backend),
		engine.WithWindow(win),
		engine.WithViewport(viewport),
		engine.WithProfiling(profile),
		engine.WithRenderFrameLimit(maxFPS),
		engine.WithSnapshot(common.KeyS, func(img *image.RGBA) error {
			if err := writeImage(snapshotPath, img); err != nil {
				return err
			}
			glog.Infof("saved snapshot to %s", snapshotPath)
			return nil
		}),
	)
	if err != nil {
		backend.Release()
		_ = win.Close()
		return err
	}
	defer e.Release()

	return e.Run()
}

func main() {
	glog.CopyStandardLogTo("INFO")

	err := cmdRoot.Execute()
	if err != nil {
		glog.Errorf("oxy-whitted: %v", err)
	}
	glog.Flush()
	if err != nil {
		code := 1
		if errors.Is(err, renderer.ErrUnknownBackend) {
			code = 2
		}
		os.Exit(code)
	}
}
