package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/oxy-pacer/common"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pacer/engine/renderer/gpu"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is the settings file the example programs look for in the working directory.
const DefaultFile = "oxy.toml"

// Settings is the decoded form of a settings file. Every section is optional; missing keys keep their Default
// value.
type Settings struct {
	Window   WindowSettings   `toml:"window"`
	Renderer RendererSettings `toml:"renderer"`
	Engine   EngineSettings   `toml:"engine"`
	Log      LogSettings      `toml:"log"`
}

// WindowSettings configures the window. In headless mode Width and Height are the surface size.
type WindowSettings struct {
	Title     string `toml:"title"`
	Width     uint32 `toml:"width"`
	Height    uint32 `toml:"height"`
	MinWidth  uint32 `toml:"min_width"`
	MinHeight uint32 `toml:"min_height"`
	MaxWidth  uint32 `toml:"max_width"`
	MaxHeight uint32 `toml:"max_height"`
}

type RendererSettings struct {
	// Backend is "wgpu" or "headless".
	Backend        string `toml:"backend"`
	FramesInFlight int    `toml:"frames_in_flight"`
	// PresentMode is "fifo", "immediate" or "mailbox".
	PresentMode string `toml:"present_mode"`
	// ClearColor is RGB or RGBA in the 0..1 range.
	ClearColor      []float64 `toml:"clear_color"`
	SoftwareAdapter bool      `toml:"software_adapter"`
}

type EngineSettings struct {
	// TickRate is the fixed update rate in ticks per second.
	TickRate int `toml:"tick_rate"`
	// FrameLimit caps rendered frames per second; 0 renders as fast as presentation allows.
	FrameLimit int  `toml:"frame_limit"`
	Profiling  bool `toml:"profiling"`
	// MaxFrames stops the loop after that many presented frames; 0 runs until quit.
	MaxFrames      int `toml:"max_frames"`
	ComputeWorkers int `toml:"compute_workers"`
}

type LogSettings struct {
	// Level is any level slog understands, e.g. "debug", "info", "warn+2".
	Level string `toml:"level"`
	// Format is "text" or "json".
	Format string `toml:"format"`
}

// Default returns the settings used when no file is present.
//
// Returns:
//   - Settings: the default settings
func Default() Settings {
	return Settings{
		Window: WindowSettings{
			Title:     "oxy-pacer",
			Width:     1280,
			Height:    720,
			MinWidth:  320,
			MinHeight: 200,
		},
		Renderer: RendererSettings{
			Backend:        "wgpu",
			FramesInFlight: 3,
			PresentMode:    "fifo",
			ClearColor:     []float64{0.1, 0.1, 0.1, 1},
		},
		Engine: EngineSettings{
			TickRate:       60,
			ComputeWorkers: 4,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads and validates the settings file at path on top of Default.
//
// Parameters:
//   - path: the TOML file to read
//
// Returns:
//   - Settings: the decoded settings
//   - error: an error wrapping fs.ErrNotExist if the file is missing, or a decode or validation error
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes TOML settings on top of Default and validates the result. Unknown keys are rejected so a
// misspelled option does not silently fall back to its default.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Settings: the decoded settings
//   - error: a decode or validation error
func Parse(data []byte) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Settings{}, fmt.Errorf("%w:\n%s", err, strict.String())
		}
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Encode renders the settings as TOML.
//
// Returns:
//   - []byte: the TOML document
//   - error: an error if marshaling failed
func (s Settings) Encode() ([]byte, error) {
	return toml.Marshal(s)
}

// Validate checks every field for a usable value.
//
// Returns:
//   - error: every problem found, joined
func (s Settings) Validate() error {
	var errs []error
	if s.Window.Width == 0 || s.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be non-zero", s.Window.Width, s.Window.Height))
	}
	if s.Window.MaxWidth != 0 && s.Window.MaxWidth < s.Window.MinWidth {
		errs = append(errs, fmt.Errorf("window max_width %d is below min_width %d", s.Window.MaxWidth, s.Window.MinWidth))
	}
	if s.Window.MaxHeight != 0 && s.Window.MaxHeight < s.Window.MinHeight {
		errs = append(errs, fmt.Errorf("window max_height %d is below min_height %d", s.Window.MaxHeight, s.Window.MinHeight))
	}
	if _, err := s.BackendType(); err != nil {
		errs = append(errs, err)
	}
	if s.Renderer.FramesInFlight < 1 {
		errs = append(errs, fmt.Errorf("renderer frames_in_flight %d must be at least 1", s.Renderer.FramesInFlight))
	}
	if _, err := s.PresentMode(); err != nil {
		errs = append(errs, err)
	}
	if n := len(s.Renderer.ClearColor); n != 3 && n != 4 {
		errs = append(errs, fmt.Errorf("renderer clear_color has %d components, want 3 or 4", n))
	}
	if s.Engine.TickRate < 1 {
		errs = append(errs, fmt.Errorf("engine tick_rate %d must be at least 1", s.Engine.TickRate))
	}
	if s.Engine.FrameLimit < 0 || s.Engine.MaxFrames < 0 {
		errs = append(errs, errors.New("engine frame_limit and max_frames must not be negative"))
	}
	if s.Engine.ComputeWorkers < 1 {
		errs = append(errs, fmt.Errorf("engine compute_workers %d must be at least 1", s.Engine.ComputeWorkers))
	}
	if _, err := s.level(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(s.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log format %q must be text or json", s.Log.Format))
	}
	return errors.Join(errs...)
}

// BackendType parses the renderer backend name.
func (s Settings) BackendType() (renderer.RendererBackendType, error) {
	return renderer.ParseBackendType(s.Renderer.Backend)
}

// PresentMode parses the renderer present mode name.
//
// Returns:
//   - gpu.PresentMode: the present mode
//   - error: an error if the name is not a known mode
func (s Settings) PresentMode() (gpu.PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s.Renderer.PresentMode)) {
	case "", "fifo", "vsync":
		return gpu.PresentModeFifo, nil
	case "immediate":
		return gpu.PresentModeImmediate, nil
	case "mailbox":
		return gpu.PresentModeMailbox, nil
	default:
		return 0, fmt.Errorf("unknown present mode %q", s.Renderer.PresentMode)
	}
}

// ClearColor returns the configured clear color. A three component color is opaque.
func (s Settings) ClearColor() common.Color {
	c := s.Renderer.ClearColor
	if len(c) < 3 {
		return common.Color{A: 1}
	}
	out := common.Color{R: c[0], G: c[1], B: c[2], A: 1}
	if len(c) > 3 {
		out.A = c[3]
	}
	return out
}

// Extent returns the configured window size.
func (s Settings) Extent() common.Extent2D {
	return common.Extent2D{Width: s.Window.Width, Height: s.Window.Height}
}

// Logger builds the slog logger described by the log section.
//
// Parameters:
//   - w: where log records are written
//
// Returns:
//   - *slog.Logger: the logger
//   - error: an error if the level is not valid
func (s Settings) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := s.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(s.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func (s Settings) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}
