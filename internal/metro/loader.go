package metro

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrLoaderBusy is returned by Loader.Request when its queue is full.
var ErrLoaderBusy = errors.New("breakpoint loader busy")

// ErrNoPrompt is reported when a load without a file name is requested and no
// prompt is installed.
var ErrNoPrompt = errors.New("no file prompt available")

const loaderQueueSize = 8

// Publisher receives loaded breakpoint sequences. *Metronome implements it.
type Publisher interface {
	Publish(b *Breakpoints)
}

// LoadResult describes a finished load attempt.
type LoadResult struct {
	Path  string
	Count int
	Err   error
}

// Loader reads breakpoint files away from the audio path. Control code calls
// Request, which never blocks; Run executes the loads and publishes the
// result to the target.
type Loader struct {
	target   Publisher
	requests chan string
	search   []string
	prompt   func()
	notify   func(LoadResult)
	log      logrus.FieldLogger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSearchPath adds directories tried, in order, for relative file names.
func WithSearchPath(dirs ...string) LoaderOption {
	return func(l *Loader) {
		l.search = append(l.search, dirs...)
	}
}

// WithPrompt installs the function called for a load without a file name.
// It runs on the loader goroutine and should hand off to the UI quickly.
func WithPrompt(fn func()) LoaderOption {
	return func(l *Loader) {
		l.prompt = fn
	}
}

// WithNotify installs a callback invoked after every load attempt.
func WithNotify(fn func(LoadResult)) LoaderOption {
	return func(l *Loader) {
		l.notify = fn
	}
}

// WithLoaderLogger sets the diagnostic logger.
func WithLoaderLogger(log logrus.FieldLogger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a loader publishing to target.
func NewLoader(target Publisher, opts ...LoaderOption) *Loader {
	l := &Loader{
		target:   target,
		requests: make(chan string, loaderQueueSize),
		log:      discardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Request queues a load of name. An empty name asks the user for a file.
func (l *Loader) Request(name string) error {
	select {
	case l.requests <- name:
		return nil
	default:
		return ErrLoaderBusy
	}
}

// Run executes queued loads until ctx is cancelled.
func (l *Loader) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case name := <-l.requests:
			if name == "" {
				l.askUser()
				continue
			}
			_ = l.Load(name)
		}
	}
}

func (l *Loader) askUser() {
	if l.prompt == nil {
		l.log.WithError(ErrNoPrompt).Warn("open ignored")
		l.report(LoadResult{Err: ErrNoPrompt})
		return
	}
	l.prompt()
}

// Load reads name synchronously and publishes it. On failure the target
// keeps its current sequence.
func (l *Loader) Load(name string) error {
	path, err := l.locate(name)
	if err != nil {
		l.log.WithError(err).Errorf("%s: can't find file", name)
		l.report(LoadResult{Path: name, Err: err})
		return err
	}

	bp, err := ReadBreakpointFile(path)
	if err != nil {
		l.log.WithError(err).Error("file open failed")
		l.report(LoadResult{Path: path, Err: err})
		return err
	}

	l.target.Publish(bp)
	l.log.WithField("file", path).Infof("%d breakpoints", bp.Len())
	for i, f := range bp.factors {
		l.log.WithField("index", i).Debugf("bp: %f", f)
	}
	l.report(LoadResult{Path: path, Count: bp.Len()})
	return nil
}

func (l *Loader) report(r LoadResult) {
	if l.notify != nil {
		l.notify(r)
	}
}

// locate resolves name against the search path and returns an absolute path.
func (l *Loader) locate(name string) (string, error) {
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		for _, dir := range l.search {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", c, err)
		}
		return abs, nil
	}
	return "", fmt.Errorf("%s: %w", name, os.ErrNotExist)
}
