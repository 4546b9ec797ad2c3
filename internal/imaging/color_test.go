package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createInMemoryImage creates an in-memory test image
func createInMemoryImage(width, height int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestIdentifyColor(t *testing.T) {
	tests := []struct {
		name    string
		id      uint32
		wantHex string
		wantRGB RGBColor
		wantHSL HSLColor
	}{
		{"low byte is red", 0x0000FF, "#FF0000", RGBColor{255, 0, 0}, HSLColor{0, 100, 50}},
		{"middle byte is green", 0x00FF00, "#00FF00", RGBColor{0, 255, 0}, HSLColor{120, 100, 50}},
		{"high byte is blue", 0xFF0000, "#0000FF", RGBColor{0, 0, 255}, HSLColor{240, 100, 50}},
		{"black", 0, "#000000", RGBColor{0, 0, 0}, HSLColor{0, 0, 0}},
		{"white", 0xFFFFFF, "#FFFFFF", RGBColor{255, 255, 255}, HSLColor{0, 0, 100}},
		{"mixed", 0x563412, "#123456", RGBColor{0x12, 0x34, 0x56}, HSLColor{210, 65, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IdentifyColor(tt.id)
			if err != nil {
				t.Fatalf("IdentifyColor failed: %v", err)
			}
			if got.Hex != tt.wantHex {
				t.Errorf("Hex: got %s, want %s", got.Hex, tt.wantHex)
			}
			if got.RGB != tt.wantRGB {
				t.Errorf("RGB: got %+v, want %+v", got.RGB, tt.wantRGB)
			}
			if got.HSL != tt.wantHSL {
				t.Errorf("HSL: got %+v, want %+v", got.HSL, tt.wantHSL)
			}
		})
	}
}

func TestIdentifyColor_RoundTrip(t *testing.T) {
	for _, id := range []uint32{1, 7, 256, 65536, 0x123456, MaxIdentifyID} {
		c, err := IdentifyColor(id)
		if err != nil {
			t.Fatalf("IdentifyColor(%d) failed: %v", id, err)
		}
		if back := IdentifyID(c.RGB.R, c.RGB.G, c.RGB.B); back != id {
			t.Errorf("round trip %d: got %d", id, back)
		}
	}
}

func TestIdentifyColor_OutOfRange(t *testing.T) {
	if _, err := IdentifyColor(MaxIdentifyID + 1); err == nil {
		t.Error("expected error for id beyond 24 bits")
	}
}

func TestParseIdentifyID(t *testing.T) {
	tests := []struct {
		in      string
		want    uint32
		wantErr bool
	}{
		{"0", 0, false},
		{"5649426", 5649426, false},
		{"16777215", MaxIdentifyID, false},
		{"16777216", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIdentifyID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdentifyID(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseIdentifyID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestSampleColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.NRGBA{0x12, 0x34, 0x56, 255})

	s, err := SampleColor(img, 3, 4)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}

	if s.X != 3 || s.Y != 4 {
		t.Errorf("position: got (%d,%d), want (3,4)", s.X, s.Y)
	}
	if s.Transparent {
		t.Error("opaque pixel reported as transparent")
	}
	if s.Color.ID != "5649426" {
		t.Errorf("ID: got %s, want 5649426", s.Color.ID)
	}
	if s.Color.A == nil || *s.Color.A != 255 {
		t.Errorf("alpha: got %v, want 255", s.Color.A)
	}
}

func TestSampleColor_Transparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	s, err := SampleColor(img, 0, 0)
	if err != nil {
		t.Fatalf("SampleColor failed: %v", err)
	}
	if !s.Transparent {
		t.Error("transparent pixel not reported")
	}
	if s.Color.ID != "" {
		t.Errorf("transparent pixel should have no id, got %q", s.Color.ID)
	}
}

func TestSampleColor_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 0},
		{"negative y", 0, -1},
		{"x at width", 10, 0},
		{"y at height", 0, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SampleColor(img, tt.x, tt.y); err == nil {
				t.Error("expected error for out-of-bounds coordinates")
			}
		})
	}
}
