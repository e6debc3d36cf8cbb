// Package seed loads content type definitions from YAML and applies them to
// a schema registry.
//
// A seed file looks like:
//
//	contentTypes:
//	  - name: Article
//	    description: Long-form posts
//	    fields:
//	      - name: title
//	        displayName: Title
//	        fieldType: TEXT
//	        required: true
//	      - name: category
//	        fieldType: TEXT
//	        options: [news, opinion]
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tendant/simple-cms/pkg/simplecms"
	"gopkg.in/yaml.v3"
)

// File is the top-level document of a seed file.
type File struct {
	ContentTypes []simplecms.CreateContentTypeRequest `yaml:"contentTypes"`
}

// Registry is the subset of simplecms.Service that Apply needs.
type Registry interface {
	GetContentTypeBySlug(ctx context.Context, slug string) (*simplecms.ContentType, error)
	CreateContentType(ctx context.Context, req simplecms.CreateContentTypeRequest) (*simplecms.ContentType, error)
}

// Report lists the slugs Apply created and the ones that already existed.
type Report struct {
	Created []string
	Skipped []string
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &file, nil
}

// Apply creates every content type whose slug is not registered yet, so
// running it twice is harmless. It stops at the first failure.
func Apply(ctx context.Context, registry Registry, file *File) (Report, error) {
	var report Report
	for _, req := range file.ContentTypes {
		slug := simplecms.Slugify(req.Name)
		if slug != "" {
			_, err := registry.GetContentTypeBySlug(ctx, slug)
			if err == nil {
				report.Skipped = append(report.Skipped, slug)
				continue
			}
			if !errors.Is(err, simplecms.ErrContentTypeNotFound) {
				return report, fmt.Errorf("look up content type %q: %w", slug, err)
			}
		}

		ct, err := registry.CreateContentType(ctx, req)
		if err != nil {
			return report, fmt.Errorf("create content type %q: %w", req.Name, err)
		}
		report.Created = append(report.Created, ct.Slug)
	}
	return report, nil
}
