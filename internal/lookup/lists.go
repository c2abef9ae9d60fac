package lookup

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"leadripper/internal/cache"
)

// ClassifierSource hands out the classifier to use for one validation.
// Implementations may swap lists between calls but never mid-call.
type ClassifierSource interface {
	Classifier() *Classifier
}

const classifierKey = "classifier"

// FileSource reads the deny-lists from disk and re-reads them once the
// cached copy is older than the refresh interval. An empty path keeps the
// built-in list for that kind. A failed reload keeps serving the last good
// classifier.
type FileSource struct {
	disposablePath string
	rolePath       string
	refresh        time.Duration
	log            logrus.FieldLogger

	cache    *cache.Store[*Classifier]
	mu       sync.Mutex
	lastGood *Classifier
}

func NewFileSource(disposablePath, rolePath string, refresh time.Duration, log logrus.FieldLogger) (*FileSource, error) {
	if refresh <= 0 {
		refresh = 10 * time.Minute
	}
	s := &FileSource{
		disposablePath: disposablePath,
		rolePath:       rolePath,
		refresh:        refresh,
		log:            log,
		cache:          cache.New[*Classifier](),
	}
	c, err := s.load()
	if err != nil {
		return nil, err
	}
	s.lastGood = c
	s.cache.Set(classifierKey, c, refresh)
	return s, nil
}

func (s *FileSource) Classifier() *Classifier {
	if c, ok := s.cache.Get(classifierKey); ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have reloaded while we waited
	if c, ok := s.cache.Get(classifierKey); ok {
		return c
	}

	c, err := s.load()
	if err != nil {
		s.log.WithError(err).Warn("reloading classifier lists failed, keeping previous lists")
		c = s.lastGood
	} else {
		s.lastGood = c
		s.log.WithFields(logrus.Fields{
			"disposable_domains": len(c.disposable),
			"role_prefixes":      len(c.roles),
		}).Debug("classifier lists reloaded")
	}
	s.cache.Set(classifierKey, c, s.refresh)
	return c
}

func (s *FileSource) load() (*Classifier, error) {
	disposable := defaultDisposableDomains
	roles := defaultRolePrefixes

	if s.disposablePath != "" {
		list, err := readList(s.disposablePath)
		if err != nil {
			return nil, err
		}
		disposable = list
	}
	if s.rolePath != "" {
		list, err := readList(s.rolePath)
		if err != nil {
			return nil, err
		}
		roles = list
	}
	return NewClassifier(disposable, roles), nil
}

// readList parses one entry per line. Blank lines and '#' comments are skipped.
func readList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list %s: %w", path, err)
	}
	return out, nil
}
