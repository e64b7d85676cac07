package entities

import (
	"context"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
	"github.com/emetrics/populate/pkg/store"
)

// File is the operator import document:
//
//	entities:
//	  - name: Foo Corp
//	    status: enabled
//	    stage_current: 2
//	    stage_history:
//	      - {date: 2024-JUL-04, stage: 2, news_id: 17}
//	news:
//	  - {id: 17, date: 2024-JUL-04, text: ..., summary: ...}
type File struct {
	Entities []*entities.Entity   `yaml:"entities"`
	News     []*entities.NewsItem `yaml:"news"`
}

// ReadFile parses an import document from disk.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(path, data)
}

// Parse decodes an import document. name is used in error messages.
func Parse(name string, data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return nil, errors.NewParseError("yaml", name, yaml.FormatError(err, false, true), err)
	}
	for _, e := range f.Entities {
		if e.Status == "" {
			e.Status = entities.StatusEnabled
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// Load writes every news item, then every entity, into st.
func (f *File) Load(ctx context.Context, st store.Store) error {
	for _, n := range f.News {
		if err := st.PutNews(ctx, n); err != nil {
			return errors.WrapResource("put", "news", "", err)
		}
	}
	for _, e := range f.Entities {
		if err := st.PutEntity(ctx, e); err != nil {
			return errors.WrapResource("put", "entity", e.Name, err)
		}
	}
	return nil
}
