package services

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
	"github.com/vuongmanhnghia/discord-soundboard-bot/pkg/logger"
)

// fakeMediaTool stands in for ffmpeg on an in-memory filesystem.
type fakeMediaTool struct {
	fs            afero.Fs
	duration      time.Duration
	failTranscode bool
	emptyOutput   bool
	delay         time.Duration
}

func (f *fakeMediaTool) Probe(ctx context.Context, path string) (time.Duration, error) {
	return f.duration, nil
}

func (f *fakeMediaTool) Transcode(ctx context.Context, src, dst string) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failTranscode {
		// ffmpeg may leave a partial file behind
		_ = afero.WriteFile(f.fs, dst, []byte("partial"), 0644)
		return fmt.Errorf("exit status 1")
	}
	if f.emptyOutput {
		return afero.WriteFile(f.fs, dst, nil, 0644)
	}
	return afero.WriteFile(f.fs, dst, []byte("ID3-transcoded"), 0644)
}

// fakeVerifier accepts any non-empty file.
type fakeVerifier struct {
	fs afero.Fs
}

func (v *fakeVerifier) Verify(path string) (time.Duration, error) {
	data, err := afero.ReadFile(v.fs, path)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("empty")
	}
	return time.Second, nil
}

type ingestionFixture struct {
	fs      afero.Fs
	catalog *CatalogService
	repo    *flakyRepository
	tool    *fakeMediaTool
	svc     *IngestionService
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	catalog, repo := newTestCatalog(t, fs)
	tool := &fakeMediaTool{fs: fs, duration: 5 * time.Second}
	svc := NewIngestionService(fs, catalog, tool, &fakeVerifier{fs: fs}, IngestionConfig{
		SoundsDir:        "uploads",
		TempDir:          "uploads/.tmp",
		MaxUploadBytes:   1024,
		MaxVideoDuration: 15 * time.Second,
	}, logger.Discard())
	return &ingestionFixture{fs: fs, catalog: catalog, repo: repo, tool: tool, svc: svc}
}

func (f *ingestionFixture) assertNoTempArtifacts(t *testing.T) {
	t.Helper()
	infos, err := afero.ReadDir(f.fs, "uploads/.tmp")
	if err != nil {
		return
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	assert.Empty(t, names, "temp artifacts left behind")
}

func upload(name, hint, body string) UploadRequest {
	return UploadRequest{Name: name, FilenameHint: hint, Body: strings.NewReader(body), Source: "test"}
}

func TestIngestRoundTrip(t *testing.T) {
	f := newIngestionFixture(t)

	entry, err := f.svc.Ingest(context.Background(), upload("Air Horn", "horn.mp3", "ID3-audio"))
	require.NoError(t, err)
	assert.Equal(t, entities.SoundEntry{Name: "Air Horn", Filename: "Air_Horn"}, entry)

	found, ok := f.catalog.FindByName("Air Horn")
	require.True(t, ok)
	assert.Equal(t, "Air_Horn", found.Filename)

	data, err := afero.ReadFile(f.fs, "uploads/Air_Horn.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(data))

	assert.Equal(t, "uploads/Air_Horn.mp3", f.svc.CanonicalPath(found))
	f.assertNoTempArtifacts(t)
}

func TestIngestBareExtensionHint(t *testing.T) {
	f := newIngestionFixture(t)

	entry, err := f.svc.Ingest(context.Background(), upload("Air Horn", "mp3", "ID3-audio"))
	require.NoError(t, err)
	assert.Equal(t, entities.SoundEntry{Name: "Air Horn", Filename: "Air_Horn"}, entry)

	data, err := afero.ReadFile(f.fs, "uploads/Air_Horn.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ID3-audio", string(data))
	f.assertNoTempArtifacts(t)
}

func TestIngestTranscodesConvertibleFormats(t *testing.T) {
	for _, hint := range []string{"clip.wav", "clip.ogg", "clip.mp4"} {
		t.Run(hint, func(t *testing.T) {
			f := newIngestionFixture(t)

			_, err := f.svc.Ingest(context.Background(), upload("Clip", hint, "raw-bytes"))
			require.NoError(t, err)

			data, err := afero.ReadFile(f.fs, "uploads/Clip.mp3")
			require.NoError(t, err)
			assert.Equal(t, "ID3-transcoded", string(data))
			f.assertNoTempArtifacts(t)
		})
	}
}

func TestIngestRejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *ingestionFixture)
		req     UploadRequest
		wantErr error
	}{
		{
			name:    "Blank name",
			req:     upload("   ", "a.mp3", "x"),
			wantErr: errors.ErrInvalidName,
		},
		{
			name:    "Name without safe characters",
			req:     upload("!!!", "a.mp3", "x"),
			wantErr: errors.ErrInvalidName,
		},
		{
			name:    "Unsupported format",
			req:     upload("Notes", "notes.txt", "x"),
			wantErr: errors.ErrUnsupportedFormat,
		},
		{
			name:    "Video over limit",
			setup:   func(f *ingestionFixture) { f.tool.duration = 16 * time.Second },
			req:     upload("Long", "long.mp4", "video"),
			wantErr: errors.ErrDurationExceeded,
		},
		{
			name:    "Transcode failure",
			setup:   func(f *ingestionFixture) { f.tool.failTranscode = true },
			req:     upload("Broken", "broken.wav", "x"),
			wantErr: errors.ErrTranscodeFailed,
		},
		{
			name:    "Empty transcode output",
			setup:   func(f *ingestionFixture) { f.tool.emptyOutput = true },
			req:     upload("Silent", "silent.flac", "x"),
			wantErr: errors.ErrTranscodeFailed,
		},
		{
			name:    "Zero byte payload",
			req:     upload("Empty", "empty.mp3", ""),
			wantErr: errors.ErrTranscodeFailed,
		},
		{
			name:    "Payload too large",
			req:     upload("Huge", "huge.mp3", strings.Repeat("x", 2048)),
			wantErr: errors.ErrFileTooLarge,
		},
		{
			name: "Existing file on disk",
			setup: func(f *ingestionFixture) {
				require.NoError(t, afero.WriteFile(f.fs, "uploads/Orphan.mp3", []byte("old"), 0644))
			},
			req:     upload("Orphan", "orphan.mp3", "new"),
			wantErr: errors.ErrDuplicateName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIngestionFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			_, err := f.svc.Ingest(context.Background(), tt.req)
			assert.True(t, stderrors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
			assert.Equal(t, 0, f.catalog.Count(), "catalog must be unchanged")
			f.assertNoTempArtifacts(t)
		})
	}
}

func TestIngestLongVideoLeavesNoCanonicalFile(t *testing.T) {
	f := newIngestionFixture(t)
	f.tool.duration = 16 * time.Second

	_, err := f.svc.Ingest(context.Background(), upload("Long Video", "clip.mp4", "video"))
	require.True(t, stderrors.Is(err, errors.ErrDurationExceeded))

	exists, err := afero.Exists(f.fs, "uploads/Long_Video.mp3")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngestExactlyAtDurationLimitSucceeds(t *testing.T) {
	f := newIngestionFixture(t)
	f.tool.duration = 15 * time.Second

	_, err := f.svc.Ingest(context.Background(), upload("Fifteen", "clip.mp4", "video"))
	assert.NoError(t, err)
}

func TestIngestDuplicateName(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.svc.Ingest(context.Background(), upload("Bruh", "bruh.mp3", "first"))
	require.NoError(t, err)

	_, err = f.svc.Ingest(context.Background(), upload("Bruh", "bruh2.mp3", "second"))
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateName), "got %v", err)

	// Different display name, same slug.
	_, err = f.svc.Ingest(context.Background(), upload("Bruh!", "bruh3.mp3", "third"))
	assert.True(t, stderrors.Is(err, errors.ErrDuplicateName), "got %v", err)

	data, err := afero.ReadFile(f.fs, "uploads/Bruh.mp3")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "original file must be untouched")
}

func TestIngestConcurrentSameName(t *testing.T) {
	f := newIngestionFixture(t)
	f.tool.delay = 10 * time.Millisecond

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Ingest(context.Background(), upload("Air Horn", "horn.wav", fmt.Sprintf("payload-%d", i)))
		}(i)
	}
	wg.Wait()

	successes, duplicates := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case stderrors.Is(err, errors.ErrDuplicateName):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, duplicates)
	assert.Equal(t, 1, f.catalog.Count())

	infos, err := afero.ReadDir(f.fs, "uploads")
	require.NoError(t, err)
	files := 0
	for _, info := range infos {
		if !info.IsDir() {
			files++
		}
	}
	assert.Equal(t, 1, files, "exactly one canonical file")
	f.assertNoTempArtifacts(t)
}

func TestIngestConcurrentDifferentNames(t *testing.T) {
	f := newIngestionFixture(t)
	f.tool.delay = 10 * time.Millisecond

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"Air Horn", "Sad Trombone"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = f.svc.Ingest(context.Background(), upload(name, "clip.wav", "payload"))
		}(i, name)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 2, f.catalog.Count())
	for _, file := range []string{"uploads/Air_Horn.mp3", "uploads/Sad_Trombone.mp3"} {
		exists, err := afero.Exists(f.fs, file)
		require.NoError(t, err)
		assert.True(t, exists, file)
	}
}

func TestIngestStorageFailureRemovesCanonicalFile(t *testing.T) {
	f := newIngestionFixture(t)
	f.repo.failSave = true

	_, err := f.svc.Ingest(context.Background(), upload("Oof", "oof.mp3", "audio"))
	assert.True(t, stderrors.Is(err, errors.ErrStorageUnavailable), "got %v", err)

	exists, err := afero.Exists(f.fs, "uploads/Oof.mp3")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 0, f.catalog.Count())
	f.assertNoTempArtifacts(t)
}

func TestIngestCanonicalAcceptsMP3Only(t *testing.T) {
	f := newIngestionFixture(t)

	_, err := f.svc.IngestCanonical(context.Background(), upload("Clip", "clip.wav", "raw"))
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedFormat), "got %v", err)

	_, err = f.svc.IngestCanonical(context.Background(), UploadRequest{
		Name:         "Clip",
		FilenameHint: "CLIP.MP3",
		Body:         bytes.NewReader([]byte("ID3")),
	})
	assert.NoError(t, err)
}

func TestIngestCancelledContext(t *testing.T) {
	f := newIngestionFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Ingest(ctx, upload("Late", "late.mp3", "x"))
	assert.True(t, stderrors.Is(err, context.Canceled))
}
