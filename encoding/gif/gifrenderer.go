package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/chewxy/math32"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"

	"github.com/liminalsoft/instinct"
	"github.com/liminalsoft/instinct/brain"
)

var tt font.Face
var regular *truetype.Font

const (
	dpi             = 144.0
	fontsize        = 12.0
	lineheight      = 1.2
	cell            = 8 // pixels per weight
	dummyLongString = `Tick 10000000, Reward -0.00`
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}

	tt = truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// 256 shades of gray: strongly negative weights render dark, strongly
// positive ones light.
var globPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{uint8(i)}
	}
	return p
}()

// Encoder renders a brain's weight matrices as heatmap frames of an
// animated GIF, according to the instinct.OutputEncoder interface.
type Encoder struct {
	font.Drawer

	out *gif.GIF
	io.Writer
	face font.Face

	H, W        int
	padH, padW  int // padding so everything don't start at the topleft
	initialized bool
}

// NewGifEncoder writing the finished animation into w on Flush.
func NewGifEncoder(w io.Writer) *Encoder {
	return &Encoder{
		H:      -1,
		W:      -1,
		padH:   10,
		padW:   10,
		Writer: w,

		Drawer: font.Drawer{
			Src: image.Black,
		},
		out: &gif.GIF{LoopCount: -1},
	}
}

// Encode one frame: every weight matrix side by side, recurrent ones
// included, with a caption underneath.
func (enc *Encoder) Encode(ms instinct.MetaState) error {
	mats := ms.Brain().WeightMatrices()

	if !enc.initialized {
		// lazy init of specifications
		enc.face = truetype.NewFace(regular, &truetype.Options{
			Size:    fontsize,
			DPI:     dpi,
			Hinting: font.HintingFull,
		})
		enc.Drawer.Src = image.Black
		enc.Drawer.Face = enc.face

		var w, maxRows int
		for _, m := range mats {
			w += m.Cols*cell + enc.padW
			if m.Rows > maxRows {
				maxRows = m.Rows
			}
		}
		dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
		textW := font.MeasureString(enc.Face, dummyLongString).Ceil()
		if w < textW+2*enc.padW {
			w = textW + 2*enc.padW
		}

		enc.W = w + enc.padW
		enc.H = maxRows*cell + 2*dy + 3*enc.padH
		enc.initialized = true
	}

	im := image.NewPaletted(image.Rect(0, 0, enc.W, enc.H), globPalette)
	draw.Draw(im, im.Bounds(), image.White, image.ZP, draw.Src)

	x := enc.padW
	for _, m := range mats {
		drawMatrix(im, m, x, enc.padH)
		x += m.Cols*cell + enc.padW
	}

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	y := enc.H - 2*enc.padH
	enc.Dst = im
	enc.Dot = fixed.P(enc.padW, y-dy)
	enc.DrawString(ms.Name())
	enc.Dot = fixed.P(enc.padW, y)
	enc.DrawString(fmt.Sprintf("Tick %d, Reward %+1.2f", ms.Tick(), ms.Reward()))

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, 10)
	return nil
}

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error { return gif.EncodeAll(enc.Writer, enc.out) }

// drawMatrix paints one weight matrix as cell×cell gray squares.
// Weights are squashed through tanh so outliers don't wash out the
// rest of the palette.
func drawMatrix(im *image.Paletted, m brain.WeightMatrix, x0, y0 int) {
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			g := uint8((math32.Tanh(m.Data[i*m.Cols+j]) + 1) * 127.5)
			r := image.Rect(x0+j*cell, y0+i*cell, x0+(j+1)*cell, y0+(i+1)*cell)
			draw.Draw(im, r, &image.Uniform{color.Gray{g}}, image.ZP, draw.Src)
		}
	}
}
