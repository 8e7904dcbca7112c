package definition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxRemoteDefinitionSize = 8 << 20

// Loader reads definition documents from files, fs.FS entries, or URLs. YAML
// documents are converted to JSON preserving key order before parsing.
type Loader struct {
	fs   fs.FS
	http *http.Client
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem enables SourceKindFS lookups against files.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(l *Loader) {
		l.fs = files
	}
}

// WithHTTPClient enables URL sources using the supplied client. URL sources
// are rejected when no client is configured.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *Loader) {
		l.http = client
	}
}

// NewLoader constructs a Loader.
func NewLoader(options ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load fetches and parses the document behind src.
func (l *Loader) Load(ctx context.Context, src Source) (Definition, error) {
	if src == nil {
		return Definition{}, errors.New("definition loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return Definition{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = os.ReadFile(src.Location())
	case SourceKindFS:
		if l.fs == nil {
			return Definition{}, errors.New("definition loader: filesystem is not configured")
		}
		data, err = fs.ReadFile(l.fs, src.Location())
	case SourceKindURL:
		data, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("definition loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Definition{}, fmt.Errorf("definition loader: read %s: %w", src.Location(), err)
	}

	if looksLikeYAML(src.Location(), data) {
		data, err = YAMLToJSON(data)
		if err != nil {
			return Definition{}, err
		}
	}
	return FromJSON(data)
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	if l.http == nil {
		return nil, errors.New("http support disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxRemoteDefinitionSize))
}

func looksLikeYAML(location string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(location)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return false
	}
	return trimmed[0] != '{' && trimmed[0] != '"'
}
