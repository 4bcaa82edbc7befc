package main

import (
	"net/http"
	"os"
	"path"
)

// staticFileSystem hides directories that have no index.html, so the file
// server answers 404 instead of listing them.
type staticFileSystem struct {
	fs http.FileSystem
}

func (s staticFileSystem) Open(name string) (http.File, error) {
	f, err := s.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		index, err := s.fs.Open(path.Join(name, "index.html"))
		if err != nil {
			f.Close()
			return nil, os.ErrNotExist
		}
		index.Close()
	}
	return f, nil
}
