package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/web-grabber/internal/config"
	"github.com/ytget/web-grabber/internal/model"
	"github.com/ytget/web-grabber/internal/platform"
)

const listingPage = `<html><body>
<a href="/files/a.mkv">video</a>
<a href="/files/b.mp3#t=10">audio</a>
<a href="/about.html">about</a>
<a href="https://mirror.test/c.pdf">mirror</a>
</body></html>`

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			fmt.Fprint(w, listingPage)
		case "/empty":
			fmt.Fprint(w, `<html><body><a href="/about.html">about</a></body></html>`)
		case "/files/a.mkv":
			fmt.Fprint(w, "video")
		case "/files/b.mp3":
			fmt.Fprint(w, "audio!")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

type testApp struct {
	*App
	root string
	out  *bytes.Buffer
	logs *bytes.Buffer
}

func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()
	root := filepath.Join(t.TempDir(), "downloads")
	settings := config.NewSettings()
	settings.SetDownloadDirectory(root)

	var out, logs bytes.Buffer
	app := NewApp(settings, strings.NewReader(input), &out, zerolog.New(&logs))
	return &testApp{App: app, root: root, out: &out, logs: &logs}
}

func (a *testApp) path(category model.Category, name string) string {
	return filepath.Join(a.root, platform.CategorySubdirs[category], name)
}

func TestRun_InteractivePipeline(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, server.URL+"/list\n\n1-2\ny\n")

	batch, err := app.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, batch)

	summary := batch.Summary()
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, int64(11), summary.Bytes)

	content, err := os.ReadFile(app.path(model.CategoryVideo, "a.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "video", string(content))
	_, err = os.Stat(app.path(model.CategoryAudio, "b.mp3"))
	assert.NoError(t, err)

	assert.Contains(t, app.out.String(), "3. https://mirror.test/c.pdf (Category: document)")
	assert.Contains(t, app.logs.String(), "You have selected 2 file(s) for download")
	assert.Contains(t, app.logs.String(), "Finished processing links")
}

func TestRun_DeclineDownloadsNothing(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "all\nmaybe\nn\n")

	batch, err := app.Run(context.Background(), RunOptions{URL: server.URL + "/list", FilterSet: true})
	require.NoError(t, err)
	assert.Nil(t, batch)

	assert.Contains(t, app.out.String(), "Please enter 'y' or 'n'.")
	assert.Contains(t, app.logs.String(), "Download process aborted by user.")
	_, err = os.Stat(app.root)
	assert.True(t, os.IsNotExist(err), "no directories are created before confirmation")
}

func TestRun_PresetSelectionAndYes(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{
		URL:       server.URL + "/list",
		FilterSet: true,
		Select:    "2",
		AssumeYes: true,
	})
	require.NoError(t, err)
	require.NotNil(t, batch)
	require.Len(t, batch.Tasks, 1)
	assert.Equal(t, server.URL+"/files/b.mp3", batch.Tasks[0].Link.URL)
	assert.Equal(t, model.TaskStatusCompleted, batch.Tasks[0].Status)
	assert.Contains(t, app.out.String(), "2. "+server.URL+"/files/b.mp3 (Category: audio)")
	assert.NotContains(t, app.out.String(), "Which files would you like to download?")

	_, err = os.Stat(app.path(model.CategoryVideo, "a.mkv"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_InvalidPresetFallsBackToPrompt(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "1\n")

	batch, err := app.Run(context.Background(), RunOptions{
		URL:       server.URL + "/list",
		FilterSet: true,
		Select:    "7",
		AssumeYes: true,
	})
	require.NoError(t, err)
	require.NotNil(t, batch)
	require.Len(t, batch.Tasks, 1)
	assert.Contains(t, app.logs.String(), "Invalid selection")
	assert.Equal(t, 1, strings.Count(app.out.String(), "Found the following files:"))
	assert.Contains(t, app.out.String(), "Which files would you like to download?")
}

func TestRun_DomainFilter(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{
		URL:       server.URL + "/list",
		Filter:    "mirror.test",
		FilterSet: true,
		Select:    "none",
	})
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, app.out.String(), "1. https://mirror.test/c.pdf")
	assert.NotContains(t, app.out.String(), "a.mkv")
	assert.Contains(t, app.logs.String(), "No files selected for download. Exiting.")
}

func TestRun_NoFilesFound(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{URL: server.URL + "/empty", FilterSet: true})
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, app.logs.String(), "No digital files found on the page.")
}

func TestRun_FetchFailureEndsWithoutPrompting(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{URL: server.URL + "/missing", FilterSet: true})
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, app.logs.String(), "Error fetching URL")
	assert.Contains(t, app.logs.String(), "No digital files found on the page.")
	assert.NotContains(t, app.out.String(), "Which files")
}

func TestRun_QuitAtSelection(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "quit\n")

	batch, err := app.Run(context.Background(), RunOptions{URL: server.URL + "/list", FilterSet: true})
	require.NoError(t, err)
	assert.Nil(t, batch)
	assert.Contains(t, app.logs.String(), "Aborted by user.")
}

func TestRun_InvalidURLArgumentPrompts(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, server.URL+"/empty\n")

	_, err := app.Run(context.Background(), RunOptions{URL: "example.test", FilterSet: true})
	require.NoError(t, err)
	assert.Contains(t, app.logs.String(), "Invalid URL")
	assert.Contains(t, app.logs.String(), "No digital files found on the page.")
}

func TestRun_FromFile(t *testing.T) {
	server := newSiteServer(t)
	linksFile := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, platform.WriteExportFile(linksFile, []model.FileLink{
		model.NewFileLink(server.URL + "/files/a.mkv"),
		model.NewFileLink(server.URL + "/files/b.mp3"),
	}))
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{FromFile: linksFile, Select: "all", AssumeYes: true})
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, linksFile, batch.SourceURL)
	assert.Equal(t, 2, batch.Summary().Completed)
}

func TestRun_FromHTML(t *testing.T) {
	server := newSiteServer(t)
	page := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(page, []byte(listingPage), 0644))
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{
		FromHTML:  page,
		URL:       server.URL + "/list",
		Select:    "1",
		AssumeYes: true,
	})
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, server.URL+"/files/a.mkv", batch.Tasks[0].Link.URL)
	assert.Equal(t, model.TaskStatusCompleted, batch.Tasks[0].Status)
}

func TestRun_FromHTMLWithoutBaseKeepsAbsoluteOnly(t *testing.T) {
	page := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(page, []byte(listingPage), 0644))
	app := newTestApp(t, "")

	links, err := app.listLinks(context.Background(), RunOptions{FromHTML: page})
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://mirror.test/c.pdf", links[0].URL)
}

func TestExportLinks(t *testing.T) {
	app := newTestApp(t, "")
	target := filepath.Join(t.TempDir(), "links.txt")

	err := app.exportLinks(target, []model.FileLink{model.NewFileLink("http://example.test/a.mkv")})
	require.NoError(t, err)

	links, err := platform.ReadExportFile(target)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, model.CategoryVideo, links[0].Category)
	assert.Contains(t, app.logs.String(), "Exported links")
}

func TestRun_ReportsFailedDownloads(t *testing.T) {
	server := newSiteServer(t)
	linksFile := filepath.Join(t.TempDir(), "links.txt")
	require.NoError(t, platform.WriteExportFile(linksFile, []model.FileLink{
		model.NewFileLink(server.URL + "/files/a.mkv"),
		model.NewFileLink(server.URL + "/files/missing.pdf"),
	}))
	app := newTestApp(t, "")

	batch, err := app.Run(context.Background(), RunOptions{FromFile: linksFile, Select: "all", AssumeYes: true})
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.True(t, batch.HasErrors())
	assert.Contains(t, app.logs.String(), "1 completed, 1 failed, 0 skipped")
	assert.Contains(t, app.logs.String(), `"message":"Failed"`)
}

func TestRun_SuccessfulBatchHasNoFailureLines(t *testing.T) {
	server := newSiteServer(t)
	app := newTestApp(t, "")

	_, err := app.Run(context.Background(), RunOptions{URL: server.URL + "/list", FilterSet: true, Select: "1", AssumeYes: true})
	require.NoError(t, err)
	assert.NotContains(t, app.logs.String(), `"message":"Failed"`)
}
