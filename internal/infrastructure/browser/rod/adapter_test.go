package rod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"framefill/internal/application/port/output"
	"framefill/internal/domain/entity"
	"framefill/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	indexHTML = `<!DOCTYPE html>
<html>
<head><title>Booking</title></head>
<body>
	<h1>Book a table</h1>
	<iframe src="/form.html" name="booking"></iframe>
</body>
</html>`

	formHTML = `<!DOCTYPE html>
<html>
<head><title>Form</title></head>
<body>
	<form>
		<input id="name" type="text" name="name" />
		<input id="guests" type="number" name="guests" />
		<select name="time"><option value="18">6pm</option><option value="20">8pm</option></select>
		<input type="radio" name="seat" value="inside" />
		<input type="radio" name="seat" value="terrace" />
		<input type="checkbox" name="newsletter" />
		<input id="locked" type="text" name="locked" value="x" readonly />
	</form>
</body>
</html>`
)

func newTestAdapter(t *testing.T) (*BrowserAdapter, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, indexHTML)
	})
	mux.HandleFunc("/form.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, formHTML)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.Stealth = false
	adapter, err := NewBrowserAdapter(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	t.Cleanup(adapter.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	require.NoError(t, adapter.Navigate(ctx, srv.URL))
	return adapter, srv.URL
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Headless)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.True(t, cfg.Stealth)
	assert.Empty(t, cfg.ControlURL)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		tag, typ string
		want     output.ElementKind
	}{
		{"select", "select-one", output.KindSelect},
		{"textarea", "textarea", output.KindTextarea},
		{"input", "radio", output.KindRadio},
		{"input", "checkbox", output.KindCheckbox},
		{"input", "email", output.KindInput},
		{"input", "", output.KindInput},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, kindOf(tt.tag, tt.typ), tt.tag+":"+tt.typ)
	}
}

func TestClassify(t *testing.T) {
	denied := classify(errors.New("Blocked a frame with origin \"https://a.example\" from accessing a cross-origin frame"))
	assert.ErrorIs(t, denied, entity.ErrAccessDenied)

	other := errors.New("connection reset")
	assert.Equal(t, other, classify(other))

	assert.ErrorIs(t, classify(context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestBrowserAdapter_Frames(t *testing.T) {
	adapter, base := newTestAdapter(t)
	ctx := context.Background()

	root := adapter.Root()
	require.NoError(t, root.Ping(ctx))

	content, err := root.Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Booking", content.Title)
	assert.Contains(t, content.HTML, "Book a table")
	assert.Equal(t, "127.0.0.1", content.Domain)

	children, err := root.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "/form.html", children[0].Src())
	assert.Equal(t, "booking", children[0].Name())

	child, err := children[0].Content(ctx)
	require.NoError(t, err)
	assert.Equal(t, base+"/form.html", child.URL)
	assert.Contains(t, child.HTML, `name="guests"`)

	doc, err := adapter.DocumentHTML(ctx)
	require.NoError(t, err)
	assert.NotContains(t, doc.HTML, `name="guests"`)
}

func TestBrowserAdapter_Fill(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	ctx := context.Background()

	target, err := adapter.Target(ctx, "0")
	require.NoError(t, err)

	name, err := target.BySelector(ctx, "#name")
	require.NoError(t, err)
	require.NoError(t, name.SetValue(ctx, "Ada"))
	got, err := name.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got)

	guests, err := target.ByXPath(ctx, `//*[@id="guests"]`)
	require.NoError(t, err)
	require.NoError(t, guests.SetValue(ctx, "thirty"))
	got, err = guests.Value(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	slot, err := target.BySelector(ctx, `select[name="time"]`)
	require.NoError(t, err)
	assert.Equal(t, output.KindSelect, slot.Kind())
	require.NoError(t, slot.SelectOption(ctx, "20"))
	assert.Error(t, slot.SelectOption(ctx, "23"))
	got, err = slot.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20", got)

	seat, err := target.BySelector(ctx, `input[name="seat"]`)
	require.NoError(t, err)
	require.NoError(t, seat.Check(ctx, []string{"terrace"}))
	got, err = seat.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "terrace", got)

	news, err := target.BySelector(ctx, `input[name="newsletter"]`)
	require.NoError(t, err)
	require.NoError(t, news.Check(ctx, []string{"on"}))
	got, err = news.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "on", got)

	locked, err := target.BySelector(ctx, "#locked")
	require.NoError(t, err)
	assert.Error(t, locked.SetValue(ctx, "y"))

	require.NoError(t, name.Highlight(ctx))

	_, err = target.BySelector(ctx, "#missing")
	assert.ErrorIs(t, err, entity.ErrFieldNotFound)

	_, err = adapter.Target(ctx, "4")
	assert.ErrorIs(t, err, entity.ErrFieldNotFound)
}

func TestBrowserAdapter_Screenshot(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	shot, err := adapter.Screenshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "jpeg", shot.Format)
	assert.NotEmpty(t, shot.Data)
	assert.LessOrEqual(t, shot.Width, maxScreenWidth)
}
