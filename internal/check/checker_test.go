package check

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanJSON = `{"model": "resnet50", "input_info": {"sample_size": [1, 3, 224, 224]},
	"compression": {"algorithm": "quantization"}}`

const warnJSON = `{"model": "resnet50", "input_info": {"sample_size": [1, 3, 224, 224]},
	"compression": {"algorithm": "quantization"}, "lr": 0.1}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type memSink struct {
	mu      sync.Mutex
	results []Result
	err     error
}

func (s *memSink) Save(_ context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, r)
	return nil
}

func TestCheckBytes(t *testing.T) {
	ctx := context.Background()

	t.Run("valid compression descriptor", func(t *testing.T) {
		r := New(Config{}).CheckBytes(ctx, "", descriptor.KindCompression, []byte(cleanJSON))
		assert.Equal(t, StatusValid, r.Status)
		assert.Equal(t, "resnet50", r.Name)
		assert.Equal(t, descriptor.KindCompression, r.Kind)
		assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", r.ID.String())
		assert.True(t, r.Passed())
		assert.False(t, r.CheckedAt.IsZero())
	})

	t.Run("kind detected from content", func(t *testing.T) {
		r := New(Config{}).CheckBytes(ctx, "", "", []byte(cleanJSON))
		assert.Equal(t, descriptor.KindCompression, r.Kind)
	})

	t.Run("warnings fail in strict mode", func(t *testing.T) {
		r := New(Config{}).CheckBytes(ctx, "", descriptor.KindCompression, []byte(warnJSON))
		assert.Equal(t, StatusValid, r.Status)
		assert.Equal(t, 1, r.WarningCount())
		assert.Equal(t, 0, r.ErrorCount())

		r = New(Config{Strict: true}).CheckBytes(ctx, "", descriptor.KindCompression, []byte(warnJSON))
		assert.Equal(t, StatusInvalid, r.Status)
		assert.True(t, r.Strict)
	})

	t.Run("structural errors", func(t *testing.T) {
		r := New(Config{}).CheckBytes(ctx, "", descriptor.KindAccuracy, []byte("models: []"))
		assert.Equal(t, StatusInvalid, r.Status)
		assert.Positive(t, r.ErrorCount())
	})

	t.Run("unparsable content", func(t *testing.T) {
		r := New(Config{}).CheckBytes(ctx, "", descriptor.KindCompression, []byte(`{"model": `))
		assert.Equal(t, StatusUnreadable, r.Status)
		require.Len(t, r.Issues, 1)
		assert.Equal(t, 1, r.ErrorCount())
	})
}

func TestCheckFile_Missing(t *testing.T) {
	r := New(Config{}).CheckFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, StatusUnreadable, r.Status)
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0].Message, "read descriptor")
	assert.Equal(t, descriptor.KindCompression, r.Kind)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "b/train.json", cleanJSON)
	b := writeFile(t, dir, "a/bench.yml", "models: []")
	writeFile(t, dir, "a/notes.txt", "ignored")
	writeFile(t, dir, ".git/config.json", "{}")
	explicit := writeFile(t, dir, "explicit.conf", cleanJSON)

	files, err := Discover([]string{dir, explicit, a, " "})
	require.NoError(t, err)
	assert.Equal(t, []string{b, filepath.Clean(a), explicit}, files)

	_, err = Discover([]string{filepath.Join(dir, "nope")})
	assert.Error(t, err)
}

func TestCheckAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1.json", cleanJSON)
	writeFile(t, dir, "2.json", warnJSON)
	writeFile(t, dir, "3.yml", "models: []")
	writeFile(t, dir, "4.json", "{")

	sink := &memSink{}
	results, err := New(Config{Workers: 2}, WithSink(sink)).CheckAll(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, StatusValid, results[0].Status)
	assert.Equal(t, StatusValid, results[1].Status)
	assert.Equal(t, StatusInvalid, results[2].Status)
	assert.Equal(t, StatusUnreadable, results[3].Status)
	assert.Equal(t, filepath.Join(dir, "3.yml"), results[2].Path)
	assert.Len(t, sink.results, 4)
}

func TestCheckAll_SinkError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1.json", cleanJSON)

	sink := &memSink{err: errors.New("db down")}
	_, err := New(Config{}, WithSink(sink)).CheckAll(context.Background(), []string{dir})
	assert.ErrorContains(t, err, "db down")
}

func TestCheckAll_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "1.json", cleanJSON)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).CheckAll(ctx, []string{dir})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	results := make(chan Result, 4)

	w := NewWatcher(New(Config{}), dir, 50*time.Millisecond, func(r Result) {
		results <- r
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(200 * time.Millisecond)
	writeFile(t, dir, "train.json", cleanJSON)
	writeFile(t, dir, "ignored.txt", "x")

	select {
	case r := <-results:
		assert.Equal(t, filepath.Join(dir, "train.json"), r.Path)
		assert.Equal(t, StatusValid, r.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("no result from watcher")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
