package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
)

// Loader is what the refreshers reload.
type Loader interface {
	Load(ctx context.Context) error
}

// FileWatcher reloads when watched files change on disk. Rapid writes are
// debounced into one reload.
type FileWatcher struct {
	dirs     []string
	match    func(name string) bool
	loader   Loader
	log      *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	trigger chan struct{}
	stop    chan struct{}
	once    sync.Once
}

// NewFileWatcher watches path for changes.
func NewFileWatcher(path string, loader Loader, log *slog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve photos path: %w", err)
	}
	name := filepath.Base(abs)
	return newWatcher([]string{filepath.Dir(abs)}, func(n string) bool { return n == name }, loader, log)
}

// NewDirWatcher watches files with extension ext in dirs, such as template
// directories.
func NewDirWatcher(dirs []string, ext string, loader Loader, log *slog.Logger) (*FileWatcher, error) {
	abs := make([]string, len(dirs))
	for i, d := range dirs {
		a, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", d, err)
		}
		abs[i] = a
	}
	return newWatcher(abs, func(n string) bool { return filepath.Ext(n) == ext }, loader, log)
}

func newWatcher(dirs []string, match func(string) bool, loader Loader, log *slog.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &FileWatcher{
		dirs:     dirs,
		match:    match,
		loader:   loader,
		log:      log,
		debounce: 500 * time.Millisecond,
		watcher:  w,
		trigger:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Start watches directories rather than files; editors often replace files
// by rename, which a watch on the file itself would lose.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for _, dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	fw.log.Info("watching files", "dirs", fw.dirs)
	go fw.watchLoop(ctx)
	go fw.reloadLoop(ctx)
	return nil
}

// Stop ends the watch. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.once.Do(func() {
		close(fw.stop)
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stop:
			return
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.match(filepath.Base(ev.Name)) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				fw.log.Debug("watched file changed", "file", ev.Name, "op", ev.Op.String())
				select {
				case fw.trigger <- struct{}{}:
				default:
				}
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Error("file watcher error", "err", err)
		}
	}
}

func (fw *FileWatcher) reloadLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-fw.stop:
			return
		case <-fw.trigger:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(fw.debounce, func() {
				if err := fw.loader.Load(ctx); err != nil {
					fw.log.Error("reload failed", "err", err)
				}
			})
		}
	}
}

// Refresher reloads photos on a fixed interval, for stores written by
// other processes such as the import command.
type Refresher struct {
	scheduler gocron.Scheduler
	loader    Loader
	log       *slog.Logger
}

// NewRefresher creates a stopped refresher.
func NewRefresher(loader Loader, log *slog.Logger) (*Refresher, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{scheduler: s, loader: loader, log: log}, nil
}

// Every schedules a reload each interval and starts the scheduler.
func (r *Refresher) Every(ctx context.Context, interval time.Duration) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := r.loader.Load(ctx); err != nil {
				r.log.Error("scheduled photos reload failed", "err", err)
			}
		}),
		gocron.WithName("photos-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule photos refresh: %w", err)
	}
	r.log.Info("scheduled photos refresh", "interval", interval)
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down.
func (r *Refresher) Stop() error {
	return r.scheduler.Shutdown()
}
