package window

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// windowConfig is the option-controlled part of engineWindow.
type windowConfig struct {
	Title               string
	Width, Height       int
	MinWidth, MinHeight int
	MaxWidth, MaxHeight int
	Resizable           bool
}

func configOf(w *engineWindow) windowConfig {
	return windowConfig{
		Title:     w.title,
		Width:     w.width,
		Height:    w.height,
		MinWidth:  w.minWidth,
		MinHeight: w.minHeight,
		MaxWidth:  w.maxWidth,
		MaxHeight: w.maxHeight,
		Resizable: w.resizable,
	}
}

func TestWindowBuilderOptions(t *testing.T) {
	tests := []struct {
		name    string
		options []WindowBuilderOption
		want    windowConfig
	}{
		{
			name:    "title and size",
			options: []WindowBuilderOption{WithTitle("scene"), WithWidth(1024), WithHeight(600)},
			want:    windowConfig{Title: "scene", Width: 1024, Height: 600, MinWidth: 1, MinHeight: 1, Resizable: true},
		},
		{
			name:    "size limits",
			options: []WindowBuilderOption{WithMinSize(320, 240), WithMaxSize(1920, 1080)},
			want:    windowConfig{Width: 768, Height: 768, MinWidth: 320, MinHeight: 240, MaxWidth: 1920, MaxHeight: 1080, Resizable: true},
		},
		{
			name:    "limits below range",
			options: []WindowBuilderOption{WithMinSize(0, -4), WithMaxSize(-1, 0)},
			want:    windowConfig{Width: 768, Height: 768, MinWidth: 1, MinHeight: 1, Resizable: true},
		},
		{
			name:    "fixed size",
			options: []WindowBuilderOption{WithResizable(false)},
			want:    windowConfig{Width: 768, Height: 768, MinWidth: 1, MinHeight: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &engineWindow{minWidth: 1, minHeight: 1, width: 768, height: 768, resizable: true}
			for _, opt := range tt.options {
				opt(w)
			}
			if diff := cmp.Diff(tt.want, configOf(w)); diff != "" {
				t.Errorf("window config (-want +got):\n%s", diff)
			}
		})
	}
}
