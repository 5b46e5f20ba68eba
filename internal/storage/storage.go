package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cdncrawler/internal/model"
)

const indent = "   "

// Load reads a persisted store. A missing file is not an error: it returns an
// empty store and false.
func Load(path string) (model.Store, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewStore(), false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	store := model.NewStore()
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	if store == nil {
		// the file held a JSON null
		store = model.NewStore()
	}
	return store, true, nil
}

// Save overwrites path with the whole store. The data goes to a temporary
// file in the same directory first so a crash never leaves half a file.
func Save(path string, store model.Store) error {
	data, err := json.MarshalIndent(store, "", indent)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
