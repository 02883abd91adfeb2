// Package inbox turns receipt images dropped into a directory into expense records.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"cashflow/models"
	"cashflow/pkg/cashflow"
	"cashflow/pkg/ocr"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// SourceReceipt is the source recorded on imported expenses.
const SourceReceipt = "Struk"

const descPrefix = "Struk: "

type Scanner interface {
	Scan(r io.Reader) (ocr.Result, error)
}

// Service is the part of cashflow.Service the importer needs.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, in cashflow.Input) (*models.CashFlow, error)
	List(ctx context.Context, ownerID uuid.UUID, search string) ([]models.CashFlow, error)
}

// Importer scans Dir, records one expense per readable receipt and moves the
// file into ProcessedDir so it is imported only once.
type Importer struct {
	Dir           string
	ProcessedDir  string
	Owner         uuid.UUID
	Scanner       Scanner
	Service       Service
	Workers       int
	MinConfidence float64
	// MaxBytes bounds the size of archived images; larger ones are downscaled.
	MaxBytes int64
	Verbose  bool

	mu   sync.Mutex
	done map[string]bool
}

func (im *Importer) logV(format string, args ...any) {
	if im.Verbose {
		log.Printf(format, args...)
	}
}

func (im *Importer) workers() int {
	if im.Workers <= 0 {
		return runtime.NumCPU()
	}
	return im.Workers
}

// preload remembers receipts already imported for the owner to minimise per-file queries.
func (im *Importer) preload(ctx context.Context) error {
	rows, err := im.Service.List(ctx, im.Owner, descPrefix)
	if err != nil {
		return fmt.Errorf("preload imported receipts: %w", err)
	}
	im.mu.Lock()
	defer im.mu.Unlock()
	im.done = make(map[string]bool, len(rows))
	for _, r := range rows {
		if r.Source == SourceReceipt && strings.HasPrefix(r.Description, descPrefix) {
			im.done[strings.TrimPrefix(r.Description, descPrefix)] = true
		}
	}
	return nil
}

// claim reports whether name still needs importing and marks it as taken.
func (im *Importer) claim(name string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.done == nil {
		im.done = map[string]bool{}
	}
	if im.done[name] {
		return false
	}
	im.done[name] = true
	return true
}

func (im *Importer) release(name string) {
	im.mu.Lock()
	delete(im.done, name)
	im.mu.Unlock()
}

// Run imports every supported file currently in Dir and returns the number of records created.
func (im *Importer) Run(ctx context.Context) (int, error) {
	if err := im.preload(ctx); err != nil {
		return 0, err
	}
	files := ListImageFiles(im.Dir)
	log.Printf("Scanning %d files (workers=%d)", len(files), im.workers())

	ch := make(chan string, len(files))
	for _, f := range files {
		ch <- f
	}
	close(ch)
	return im.pool(ctx, ch), nil
}

func (im *Importer) pool(ctx context.Context, files <-chan string) int {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < im.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range files {
				if ctx.Err() != nil {
					return
				}
				if im.processFile(ctx, name) {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return created
}

// Watch imports files created in Dir until ctx is done. Events are debounced so
// a file is read only after writes to it have settled.
func (im *Importer) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.Dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", im.Dir)

	fileCh := make(chan string, 256)
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		im.pool(ctx, fileCh)
	}()
	defer func() {
		close(fileCh)
		<-poolDone
	}()

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				name := filepath.Base(ev.Name)
				if IsSupportedExt(name) {
					pending[name] = time.Now()
				}
			}
		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					select {
					case fileCh <- name:
					case <-ctx.Done():
						return nil
					}
					delete(pending, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// processFile reports whether a record was created for name.
func (im *Importer) processFile(ctx context.Context, name string) bool {
	if !im.claim(name) {
		im.logV("SKIP already imported %s", name)
		return false
	}
	path := filepath.Join(im.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		im.release(name)
		log.Printf("WARN open %s: %v", name, err)
		return false
	}
	res, err := im.Scanner.Scan(f)
	f.Close()
	if err != nil {
		im.release(name)
		im.logV("OCR fail %s: %v", name, err)
		return false
	}
	if res.Amount <= 0 || res.Confidence < im.MinConfidence {
		im.release(name)
		im.logV("OCR low/conf %s amt=%d conf=%.2f", name, res.Amount, res.Confidence)
		return false
	}

	cf, err := im.Service.Create(ctx, im.Owner, cashflow.Input{
		Type:        models.TypeExpense,
		Source:      SourceReceipt,
		Label:       LabelFromFile(name),
		Amount:      res.Amount,
		Description: descPrefix + name,
	})
	if err != nil {
		im.release(name)
		log.Printf("ERROR create cash flow for %s: %v", name, err)
		return false
	}
	log.Printf("CASH FLOW amount=%d id=%s file=%s", cf.Amount, cf.ID, name)

	if im.ProcessedDir != "" {
		if err := im.moveToProcessed(path, name); err != nil {
			log.Printf("WARN failed to move processed file %s: %v", name, err)
		} else {
			im.logV("moved processed %s to %s", name, im.ProcessedDir)
		}
	}
	return true
}

// LabelFromFile derives a readable label from a receipt file name.
func LabelFromFile(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Struk"
	}
	return base
}

func ListImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func IsSupportedExt(name string) bool {
	// ignore OCR-generated temp files to avoid recursive processing
	if strings.Contains(name, ".ocr.") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// moveToProcessed archives src under ProcessedDir, downscaling images above MaxBytes.
func (im *Importer) moveToProcessed(src, name string) error {
	if err := os.MkdirAll(im.ProcessedDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(im.ProcessedDir, name)

	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if im.MaxBytes <= 0 || fi.Size() <= im.MaxBytes {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
		return copyRemove(src, dst)
	}
	img, err := imaging.Open(src)
	if err != nil { // fallback to raw move if cannot decode
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
		return copyRemove(src, dst)
	}
	// size roughly scales with area
	scale := math.Sqrt(float64(im.MaxBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	h := int(math.Max(1, math.Round(float64(img.Bounds().Dy())*scale)))
	if err := imaging.Save(imaging.Resize(img, w, h, imaging.Lanczos), dst); err != nil {
		if err := os.Rename(src, dst); err == nil {
			return nil
		}
		return copyRemove(src, dst)
	}
	return os.Remove(src)
}

func copyRemove(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
