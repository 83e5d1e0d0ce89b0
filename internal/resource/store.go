// Package resource bundles finished sheets and manifests into a single bbolt
// resource file that a game can load without touching the output directory.
package resource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"spritesheets/internal/model"
	"spritesheets/internal/pipeline"
)

var (
	bucketSheets    = []byte("spritesheets")
	bucketManifests = []byte("manifests")
	bucketTags      = []byte("tags")
)

type Store struct {
	db *bolt.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent for %s: %w", path, err)
	}
	db, err := bolt.Open(path, 0o666, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open resource file %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ExportPass stores the pass's sheet image and manifest under the pass base
// name and records the base name under the target's tag.
func (s *Store) ExportPass(pass pipeline.PassResult) error {
	sheet, err := os.ReadFile(pass.SheetPath)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", pass.SheetPath, err)
	}
	manifest, err := json.Marshal(pass.Manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	key := []byte(pipeline.OutputBase(pass.Manifest.Name, pass.Suffix))

	return s.db.Update(func(tx *bolt.Tx) error {
		sheets, err := tx.CreateBucketIfNotExists(bucketSheets)
		if err != nil {
			return err
		}
		if err := sheets.Put(key, sheet); err != nil {
			return err
		}

		manifests, err := tx.CreateBucketIfNotExists(bucketManifests)
		if err != nil {
			return err
		}
		if err := manifests.Put(key, manifest); err != nil {
			return err
		}

		tags, err := tx.CreateBucketIfNotExists(bucketTags)
		if err != nil {
			return err
		}
		var names []string
		if raw := tags.Get([]byte(pass.Manifest.Name)); raw != nil {
			if err := json.Unmarshal(raw, &names); err != nil {
				return fmt.Errorf("decode tag %q: %w", pass.Manifest.Name, err)
			}
		}
		if !slices.Contains(names, string(key)) {
			names = append(names, string(key))
		}
		data, err := json.Marshal(names)
		if err != nil {
			return err
		}
		return tags.Put([]byte(pass.Manifest.Name), data)
	})
}

func (s *Store) Sheet(name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(bucketSheets)
		if buck == nil {
			return fmt.Errorf("the spritesheets bucket not found")
		}
		data := buck.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("spritesheet '%s' not found", name)
		}
		out = slices.Clone(data)
		return nil
	})
	return out, err
}

func (s *Store) Manifest(name string) (model.Manifest, error) {
	var m model.Manifest
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(bucketManifests)
		if buck == nil {
			return fmt.Errorf("the manifests bucket not found")
		}
		data := buck.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("manifest '%s' not found", name)
		}
		return json.Unmarshal(data, &m)
	})
	return m, err
}

// Tag lists the pass base names stored for target.
func (s *Store) Tag(target string) ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		buck := tx.Bucket(bucketTags)
		if buck == nil {
			return fmt.Errorf("no tags bucket present")
		}
		data := buck.Get([]byte(target))
		if data == nil {
			return fmt.Errorf("tag '%s' not found", target)
		}
		return json.Unmarshal(data, &names)
	})
	return names, err
}
