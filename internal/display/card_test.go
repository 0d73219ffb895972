package display

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/activity_recognizer/internal/motion"
)

func lit(img *image1bit.VerticalLSB) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderDrawsSomething(t *testing.T) {
	idle := Render(Card{})
	busy := Render(Card{
		Recording:   true,
		Since:       95 * time.Second,
		Label:       "Walking",
		Probability: 0.82,
		Activities:  7,
		Accel:       &motion.Reading{X: 0.1, Y: -0.2, Z: 9.8},
	})
	if lit(idle) == 0 {
		t.Fatalf("idle card is blank")
	}
	if lit(busy) <= lit(idle) {
		t.Fatalf("busy card should carry more text than the idle card")
	}
	if got := busy.Bounds(); got.Dx() != Width || got.Dy() != Height {
		t.Fatalf("unexpected bounds %v", got)
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, Render(Card{Label: "Running"})); err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != Width {
		t.Fatalf("unexpected width %d", img.Bounds().Dx())
	}
}
