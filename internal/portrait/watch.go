package portrait

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher keeps dst in sync with files that appear under src after start.
type Watcher struct {
	Syncer *Syncer
	Settle time.Duration // wait for writers to finish before probing

	ready func() // test hook, called once the tree is watched
}

func NewWatcher(s *Syncer) *Watcher {
	return &Watcher{Syncer: s, Settle: s.Cfg.Settle()}
}

// Run blocks until ctx is cancelled, or until ffprobe turns out to be
// missing, in which case the *runner.LaunchError is returned.
func (w *Watcher) Run(ctx context.Context, src, dst string) error {
	src, dst, err := CheckDirs(src, dst)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "監視の開始に失敗")
	}
	defer watcher.Close()

	w.addTree(watcher, src, dst)
	log.Printf("監視を開始しました: %s -> %s", src, dst)
	if w.ready != nil {
		w.ready()
	}

	// 重複処理防止用のマップ
	var processingMu sync.Mutex
	processing := make(map[string]bool)
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fatal := make(chan error, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-fatal:
			return err
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, watcher, event, src, dst, &wg, &processingMu, processing, fatal)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Println("監視エラー:", err)
		}
	}
}

func (w *Watcher) addTree(watcher *fsnotify.Watcher, root, dst string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("⚠️ 監視エラー (スキップ): %s -> %v", p, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if isUnder(p, dst) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			log.Printf("⚠️ 監視エラー (スキップ): %s -> %v", p, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, src, dst string,
	wg *sync.WaitGroup, processingMu *sync.Mutex, processing map[string]bool, fatal chan<- error) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if isUnder(event.Name, dst) {
		return
	}

	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		w.addTree(watcher, event.Name, dst)
		return
	}

	fName := filepath.Base(event.Name)
	if !w.Syncer.Filter().Match(fName) {
		return
	}

	processingMu.Lock()
	if processing[event.Name] {
		processingMu.Unlock()
		log.Printf("すでに処理中です: %s", event.Name)
		return
	}
	processing[event.Name] = true
	processingMu.Unlock()

	log.Printf("新規ファイルを検知: %s", event.Name)
	w.Syncer.emit(ctx, FileFoundEvent{Path: event.Name, Name: fName})

	wg.Add(1)
	go func() {
		defer func() {
			processingMu.Lock()
			delete(processing, event.Name)
			processingMu.Unlock()
			wg.Done()
		}()
		if err := w.processFile(ctx, event.Name, dst); err != nil {
			select {
			case fatal <- err:
			default:
			}
		}
	}()
}

func (w *Watcher) processFile(ctx context.Context, path, dst string) error {
	select {
	case <-time.After(w.Settle): // Wait for write finish (simple)
	case <-ctx.Done():
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("ファイルが見つかりません (削除または移動されました): %s", path)
		return nil
	}
	_, err := w.Syncer.Process(ctx, path, dst)
	return err
}
