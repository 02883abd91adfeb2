package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"cashflow/pkg/ocr"

	"github.com/disintegration/imaging"
)

func main() {
	f := flag.String("file", "", "image file to OCR")
	lang := flag.String("lang", "eng", "tesseract language")
	preproc := flag.String("preproc-out", "", "also write the preprocessed image here")
	showText := flag.Bool("text", false, "print the recognised text")
	flag.Parse()
	if *f == "" {
		log.Fatalf("-file required")
	}

	if *preproc != "" {
		img, err := imaging.Open(*f, imaging.AutoOrientation(true))
		if err != nil {
			log.Fatalf("open: %v", err)
		}
		if err := imaging.Save(ocr.Preprocess(img), *preproc); err != nil {
			log.Fatalf("save preprocessed: %v", err)
		}
	}

	in, err := os.Open(*f)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer in.Close()
	res, err := ocr.Tesseract{Language: *lang}.Scan(in)
	if *showText {
		fmt.Println(res.Text)
	}
	if err != nil {
		log.Fatalf("ocr error: %v", err)
	}
	fmt.Printf("amt=%d conf=%.4f found=%q\n", res.Amount, res.Confidence, res.Raw)
}
