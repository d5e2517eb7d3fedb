package saver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"kalshi-trades/internal/errs"
	"kalshi-trades/internal/model"
)

const tempMarker = ".tmp-"

// DayStore maps calendar days to Day Record files {dir}/{YYYY-MM-DD}.{ext}.
// A file exists only once it is complete: Save writes a hidden temp file in
// the same directory and renames it into place.
type DayStore struct {
	dir   string
	saver DaySaver
}

func NewDayStore(dir string, s DaySaver) *DayStore {
	return &DayStore{dir: dir, saver: s}
}

func (s *DayStore) Dir() string { return s.dir }

func (s *DayStore) Extension() string { return s.saver.Extension() }

// Init creates the output directory.
func (s *DayStore) Init() error {
	return os.MkdirAll(s.dir, 0755)
}

// Path returns the file for day.
func (s *DayStore) Path(day time.Time) string {
	return filepath.Join(s.dir, model.DayKey(day)+"."+s.saver.Extension())
}

// Exists reports whether day already has a Day Record.
func (s *DayStore) Exists(day time.Time) bool {
	st, err := os.Stat(s.Path(day))
	return err == nil && st.Mode().IsRegular()
}

// ExistingDays lists days with a Day Record in the active format, oldest first.
// Files whose stem is not a valid YYYY-MM-DD date are ignored.
func (s *DayStore) ExistingDays() ([]time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	ext := "." + s.saver.Extension()
	var days []time.Time
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		day, ok := parseDayFileName(e.Name(), ext)
		if ok {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

func parseDayFileName(name, ext string) (time.Time, bool) {
	if !strings.HasSuffix(name, ext) {
		return time.Time{}, false
	}
	stem := strings.TrimSuffix(name, ext)
	if len(stem) != len(model.DayLayout) || stem[4] != '-' || stem[7] != '-' {
		return time.Time{}, false
	}
	day, err := model.ParseDay(stem)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

// Save writes rec to its day's file and returns the final path. On any error
// the day's file is left as it was before the call.
func (s *DayStore) Save(rec *model.DayRecord) (string, error) {
	day, err := model.ParseDay(rec.Date)
	if err != nil {
		return "", errs.Wrap(errs.CodePersist, "day record date", err)
	}
	final := s.Path(day)
	tmp := filepath.Join(s.dir, "."+filepath.Base(final)+tempMarker+uuid.NewString())

	if err := s.saver.Save(rec, tmp); err != nil {
		os.Remove(tmp)
		return "", errs.Wrapf(errs.CodePersist, err, "write %s", tmp)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", errs.Wrapf(errs.CodePersist, err, "rename to %s", final)
	}
	syncDir(s.dir)
	return final, nil
}

// Load reads the Day Record at path with the active format.
func (s *DayStore) Load(path string) (*model.DayRecord, error) {
	return s.saver.Load(path)
}

// Remove deletes day's file. It reports whether a file was removed.
func (s *DayStore) Remove(day time.Time) (bool, error) {
	err := os.Remove(s.Path(day))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// CleanTemp deletes temp files left behind by an interrupted Save that were
// last modified more than olderThan ago. Zero removes every temp file.
func (s *DayStore) CleanTemp(olderThan time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	marker := "." + s.saver.Extension() + tempMarker
	cutoff := time.Now().Add(-olderThan)
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, ".") || !strings.Contains(name, marker) {
			continue
		}
		if olderThan > 0 {
			info, err := e.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
		}
		p := filepath.Join(s.dir, name)
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove stale temp %s: %w", p, err)
		}
		removed = append(removed, p)
	}
	return removed, nil
}

func syncFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir flushes the rename; not every platform supports it, so errors are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	d.Sync()
	d.Close()
}
