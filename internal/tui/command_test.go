package tui

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"quit", Command{Name: "quit"}},
		{"  QUIT  ", Command{Name: "quit"}},
		{"search sole_trader", Command{Name: "search", Args: []string{"sole_trader"}}},
		{"attach image /tmp/shoe.jpg", Command{Name: "attach", Args: []string{"image", "/tmp/shoe.jpg"}}},
		{"attach video /tmp/my unboxing.mp4", Command{Name: "attach", Args: []string{"video", "/tmp/my unboxing.mp4"}}},
		{"attach image", Command{Name: "attach", Args: []string{"image"}}},
		{"clear", Command{Name: "clear"}},
		{"", Command{}},
	}

	for _, tt := range tests {
		got := ParseCommand(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}
