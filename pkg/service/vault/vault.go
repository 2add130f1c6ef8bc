// Package vault scans a directory of markdown notes and reconciles them with
// the repository. Scheduling state always survives a rescan; only content
// derived fields (title, tags, hash, embedding) are refreshed.
package vault

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelab/recall/pkg/domain/interfaces"
	"github.com/notelab/recall/pkg/domain/model/errs"
	"github.com/notelab/recall/pkg/domain/model/note"
	"github.com/notelab/recall/pkg/domain/types"
	"github.com/notelab/recall/pkg/utils/clock"
	"github.com/notelab/recall/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

type frontmatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// Entry is one markdown file found by a scan. Path is relative to the vault
// root and doubles as the note's stable identity across machines.
type Entry struct {
	Path        string
	Title       string
	Tags        []string
	Body        string
	ContentHash string
}

// SyncResult summarizes a reconcile pass. Texts maps every surviving note to
// its current body so the embedding sync can fill missing vectors without
// re-reading the vault.
type SyncResult struct {
	Added     int
	Updated   int
	Unchanged int
	Texts     map[types.NoteID]string
}

type Service struct {
	root string
	eb   *goerr.Builder
}

func New(root string) *Service {
	return &Service{
		root: root,
		eb:   goerr.NewBuilder(goerr.V("vault", root)),
	}
}

// Scan walks the vault and parses every markdown file. Hidden directories
// (dotfiles, .obsidian and the like) are skipped.
func (x *Service) Scan(ctx context.Context) ([]*Entry, error) {
	info, err := os.Stat(x.root)
	if err != nil {
		return nil, x.eb.Wrap(err, "vault root is not accessible", goerr.T(errs.TagValidation))
	}
	if !info.IsDir() {
		return nil, x.eb.New("vault root is not a directory", goerr.T(errs.TagValidation))
	}

	var entries []*Entry
	err = filepath.WalkDir(x.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != x.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		entry, err := x.parseFile(path)
		if err != nil {
			logging.From(ctx).Warn("skipping unreadable note", "path", path, "error", err)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, x.eb.Wrap(err, "failed to walk vault")
	}

	return entries, nil
}

func (x *Service) parseFile(path string) (*Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, x.eb.Wrap(err, "failed to read note")
	}

	rel, err := filepath.Rel(x.root, path)
	if err != nil {
		return nil, x.eb.Wrap(err, "failed to relativize path", goerr.V("path", path))
	}
	rel = filepath.ToSlash(rel)

	fm, body := splitFrontmatter(raw)

	entry := &Entry{
		Path:        rel,
		Title:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Body:        string(body),
		ContentHash: hashContent(body),
	}

	if len(fm) > 0 {
		var meta frontmatter
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return nil, x.eb.Wrap(err, "invalid frontmatter", goerr.V("path", rel))
		}
		if meta.Title != "" {
			entry.Title = meta.Title
		}
		entry.Tags = meta.Tags
	}

	return entry, nil
}

// splitFrontmatter separates a leading YAML block from the note body. Files
// without a frontmatter fence are returned whole.
func splitFrontmatter(raw []byte) (fm, body []byte) {
	trimmed := bytes.TrimLeft(raw, "\uFEFF")
	if !bytes.HasPrefix(trimmed, frontmatterDelim) {
		return nil, raw
	}

	rest := trimmed[len(frontmatterDelim):]
	if len(rest) == 0 || (rest[0] != '\n' && !bytes.HasPrefix(rest, []byte("\r\n"))) {
		return nil, raw
	}

	idx := bytes.Index(rest, []byte("\n---"))
	if idx < 0 {
		return nil, raw
	}

	fm = rest[:idx]
	body = rest[idx+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, body
}

func hashContent(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Sync reconciles the scanned vault with the repository. New files become
// unintroduced notes; files whose body changed get their hash refreshed and
// their embedding cleared so the next embedding sync regenerates it.
func (x *Service) Sync(ctx context.Context, repo interfaces.Repository) (*SyncResult, error) {
	entries, err := x.Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{Texts: make(map[types.NoteID]string, len(entries))}
	for _, entry := range entries {
		existing, err := repo.GetNoteByPath(ctx, entry.Path)
		if err != nil {
			return nil, err
		}

		if existing == nil {
			n := note.New(ctx, entry.Path, entry.Title)
			n.Tags = entry.Tags
			n.ContentHash = entry.ContentHash
			if err := repo.PutNote(ctx, *n); err != nil {
				return nil, err
			}
			result.Added++
			result.Texts[n.ID] = entry.Body
			continue
		}

		result.Texts[existing.ID] = entry.Body
		if existing.ContentHash == entry.ContentHash &&
			existing.Title == entry.Title &&
			equalTags(existing.Tags, entry.Tags) {
			result.Unchanged++
			continue
		}

		if existing.ContentHash != entry.ContentHash {
			existing.Embedding = nil
		}
		existing.Title = entry.Title
		existing.Tags = entry.Tags
		existing.ContentHash = entry.ContentHash
		existing.UpdatedAt = clock.Now(ctx)
		if err := repo.PutNote(ctx, *existing); err != nil {
			return nil, err
		}
		result.Updated++
	}

	return result, nil
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
