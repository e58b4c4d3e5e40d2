package mjpeg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"log"
	"math"
	"net/http"

	"github.com/chewxy/math32"
	"github.com/golang/freetype/truetype"
	"github.com/mattn/go-mjpeg"
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

// Encoder streams a brain's weight heatmaps over HTTP according to
// the instinct.OutputEncoder interface, so a training run can be
// watched live.
type Encoder struct {
	font.Drawer

	stream *mjpeg.Stream
	face   font.Face

	H, W        int
	padH, padW  int
	initialized bool
}

func (e *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.stream.ServeHTTP(w, r)
}

// NewEncoder returns a streaming encoder.
func NewEncoder() *Encoder {
	return &Encoder{
		H:    -1,
		W:    -1,
		padH: 10,
		padW: 10,

		stream: mjpeg.NewStream(),
		Drawer: font.Drawer{
			Src: image.Black,
		},
	}
}

// Encode one frame into the stream.
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

	im := image.NewRGBA(image.Rect(0, 0, enc.W, enc.H))
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

	var b bytes.Buffer
	if err := jpeg.Encode(&b, im, nil); err != nil {
		log.Println(err)
		return err
	}
	if err := enc.stream.Update(b.Bytes()); err != nil {
		log.Println(err)
		return err
	}
	return nil
}

func (enc *Encoder) Flush() error { return nil }

func drawMatrix(im *image.RGBA, m brain.WeightMatrix, x0, y0 int) {
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			g := uint8((math32.Tanh(m.Data[i*m.Cols+j]) + 1) * 127.5)
			r := image.Rect(x0+j*cell, y0+i*cell, x0+(j+1)*cell, y0+(i+1)*cell)
			draw.Draw(im, r, &image.Uniform{color.Gray{g}}, image.ZP, draw.Src)
		}
	}
}
