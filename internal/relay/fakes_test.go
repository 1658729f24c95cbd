package relay

import (
	"context"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
)

// fakeSource is a minimal in-memory source.Source used to exercise the
// relay's handlers without any real I/O.
type fakeSource struct {
	results []model.Result
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Configure(ctx context.Context, raw map[string]any) error { return nil }

func (f *fakeSource) Search(ctx context.Context, query string) ([]model.Result, error) {
	return source.RankResults(query, f.results), nil
}

func (f *fakeSource) Resolve(ctx context.Context, performer, id string) (*model.Entry, error) {
	e := model.NewEntry("fake", id, performer, "Fake Title", "Fake Artist", "")
	e.Duration = 120
	return e, nil
}

func (f *fakeSource) GetMissingMetadata(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	return &model.Entry{}, nil
}

func (f *fakeSource) Buffer(ctx context.Context, entry *model.Entry) *source.DownloadedFile {
	df := source.NewDownloadedFile()
	df.Complete = true
	close(df.Ready)
	return df
}

func (f *fakeSource) Play(ctx context.Context, entry *model.Entry) error { return nil }

func (f *fakeSource) SkipCurrent(entry *model.Entry) {}

func (f *fakeSource) GetConfig() ([]map[string]any, error) { return nil, nil }

func (f *fakeSource) AddToConfig(chunk map[string]any) error { return nil }

func newFakeRegistry() *source.Registry {
	registry := source.NewRegistry()
	registry.Register("fake", func() source.Source { return &fakeSource{} })
	return registry
}
