package ocr

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// minHeight is the height receipts are upscaled to before recognition.
const minHeight = 1200

// Tesseract reads receipt images with the local Tesseract installation.
type Tesseract struct {
	Language string
}

// Scan decodes, preprocesses and recognises the image, then extracts the amount.
func (t Tesseract) Scan(r io.Reader) (Result, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img), imaging.PNG); err != nil {
		return Result{}, fmt.Errorf("encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	lang := t.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return Result{}, fmt.Errorf("ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("ocr image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("ocr error: %w", err)
	}
	res, err := ExtractAmount(text)
	if err != nil {
		log.Printf("OCR no amount; text snippet=%q", snippet(res.Text, 140))
		return res, err
	}
	log.Printf("OCR amount=%d conf=%.2f raw=%q", res.Amount, res.Confidence, res.Raw)
	return res, nil
}

// Preprocess converts to grayscale, upscales short images and sharpens the
// text edges for recognition.
func Preprocess(img image.Image) *image.NRGBA {
	out := imaging.Grayscale(img)
	if out.Bounds().Dy() < minHeight {
		out = imaging.Resize(out, 0, minHeight, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 20)
	return imaging.Sharpen(out, 1)
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
