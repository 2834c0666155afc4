package logging

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"
)

// Policy bounds how many log files are kept per tool and for how long.
type Policy struct {
	MaxFiles int
	MaxAge   time.Duration
}

// DefaultPolicy is applied whenever a log session opens.
var DefaultPolicy = Policy{MaxFiles: 5, MaxAge: 7 * 24 * time.Hour}

var (
	logFilePattern    = regexp.MustCompile(`^(.+)-\d{8}_\d{6}\.log$`)
	reportFilePattern = regexp.MustCompile(`^.+-report-.+\.txt$`)
)

// Cleaner removes old files from a log directory.
type Cleaner struct {
	dir string
	now func() time.Time
}

// NewCleaner returns a Cleaner for dir.
func NewCleaner(dir string) *Cleaner {
	return &Cleaner{dir: dir, now: time.Now}
}

type logFile struct {
	path    string
	modTime time.Time
}

// Plan returns the files Cleanup would remove, without removing them.
//
// Log files are grouped by tool. Within a group the newest MaxFiles are
// kept unless older than MaxAge; the rest are removed. Report files
// (*-report-*.txt) are removed once older than MaxAge. A missing directory
// yields nothing.
func (c *Cleaner) Plan(p Policy) ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := c.now().Add(-p.MaxAge)
	groups := make(map[string][]logFile)
	var tools []string
	var reports []logFile

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		f := logFile{path: filepath.Join(c.dir, e.Name()), modTime: info.ModTime()}

		if m := logFilePattern.FindStringSubmatch(e.Name()); m != nil {
			if _, ok := groups[m[1]]; !ok {
				tools = append(tools, m[1])
			}
			groups[m[1]] = append(groups[m[1]], f)
			continue
		}
		if reportFilePattern.MatchString(e.Name()) {
			reports = append(reports, f)
		}
	}

	var remove []string
	sort.Strings(tools)
	for _, tool := range tools {
		files := groups[tool]
		sort.SliceStable(files, func(i, j int) bool {
			return files[i].modTime.After(files[j].modTime)
		})
		for i, f := range files {
			if i >= p.MaxFiles || f.modTime.Before(cutoff) {
				remove = append(remove, f.path)
			}
		}
	}
	for _, f := range reports {
		if f.modTime.Before(cutoff) {
			remove = append(remove, f.path)
		}
	}
	return remove, nil
}

// Cleanup removes the files selected by Plan and returns those actually
// removed. Files that vanish or cannot be removed are skipped.
func (c *Cleaner) Cleanup(p Policy) ([]string, error) {
	planned, err := c.Plan(p)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, path := range planned {
		if err := os.Remove(path); err != nil {
			continue
		}
		removed = append(removed, path)
	}
	return removed, nil
}
