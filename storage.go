package grove

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// DefaultBackups is the number of rotating backups kept when saving,
// unless Options.Backups says otherwise.
const DefaultBackups = 10

// FileSystemInterface abstracts the file operations the tree needs for
// loading, saving, and backup rotation. The library provides a default
// implementation for local files.
type FileSystemInterface interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
	Stat(name string) (os.FileInfo, error)
}

// localFileSystem implements FileSystemInterface for local files.
type localFileSystem struct{}

func (fs *localFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (fs *localFileSystem) WriteFile(name string, data []byte) error {
	return os.WriteFile(name, data, 0644)
}

func (fs *localFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (fs *localFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (fs *localFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// backupFile rotates existing backups of path and moves the current file
// to the .bak1 slot. path.bak<keep> is dropped, every other backup shifts
// up by one. A missing current file is a no-op. Rotation failures are
// logged and swallowed: a save must not be blocked by its backups.
func backupFile(fsys FileSystemInterface, path string, keep int, log zerolog.Logger) {
	if keep <= 0 {
		return
	}
	if _, err := fsys.Stat(path); err != nil {
		return
	}

	oldest := backupName(path, keep)
	if _, err := fsys.Stat(oldest); err == nil {
		if err := fsys.Remove(oldest); err != nil {
			log.Warn().Err(err).Str("path", oldest).Msg("cannot drop oldest backup")
		}
	}
	for i := keep - 1; i >= 1; i-- {
		from := backupName(path, i)
		if _, err := fsys.Stat(from); err != nil {
			continue
		}
		to := backupName(path, i+1)
		if err := fsys.Rename(from, to); err != nil {
			log.Warn().Err(err).Str("from", from).Str("to", to).Msg("cannot rotate backup")
		}
	}
	if err := fsys.Rename(path, backupName(path, 1)); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cannot move current file to backup")
	}
}

func backupName(path string, n int) string {
	return fmt.Sprintf("%s.bak%d", path, n)
}
