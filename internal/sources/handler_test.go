package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkproject/ark-root-resolver/internal/httpclient"
)

// fakeClient is a minimal httpclient.Client for handler tests.
type fakeClient struct {
	body   []byte
	err    error
	gotURL string
}

func (f *fakeClient) Get(_ context.Context, url string) ([]byte, error) {
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func TestNewRemoteHandlerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://cdluc3.github.io/naan_reg_priv/naan_records.json"},
		{name: "http", url: "http://registry.local/naan_records.json"},
		{name: "relative", url: "/naan_records.json", wantErr: true},
		{name: "unsupported scheme", url: "ftp://registry.local/naan_records.json", wantErr: true},
		{name: "missing host", url: "https:///naan_records.json", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, err := NewRemoteHandler(&fakeClient{}, tt.url)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid registry URL")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "remote:"+tt.url, handler.Source())
		})
	}
}

func TestFetchRegistry(t *testing.T) {
	t.Parallel()

	doc := `{"data": [
		{"what": "12345", "target": {"url": "https://a.example/${content}", "http_code": 302}},
		{"what": "54321", "target": {"url": "https://b.example/${content}", "http_code": 301}}
	]}`

	client := &fakeClient{body: []byte(doc)}
	handler, err := NewRemoteHandler(client, "https://registry.example/naan_records.json")
	require.NoError(t, err)

	snap, err := handler.FetchRegistry(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "https://registry.example/naan_records.json", client.gotURL)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "12345", snap.Records[0].What)
	assert.False(t, snap.CapturedAt.IsZero())
}

func TestFetchRegistryDownloadError(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: httpclient.NewHTTPError(503, "https://registry.example/naan_records.json", "503 Service Unavailable")}
	handler, err := NewRemoteHandler(client, "https://registry.example/naan_records.json")
	require.NoError(t, err)

	_, err = handler.FetchRegistry(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to download registry")

	var httpErr *httpclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.StatusCode)
}

func TestFetchRegistryMalformedBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>maintenance</html>"},
		{name: "missing data field", body: `{"naans": []}`},
		{name: "empty body", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, err := NewRemoteHandler(&fakeClient{body: []byte(tt.body)}, "https://registry.example/naan_records.json")
			require.NoError(t, err)

			_, err = handler.FetchRegistry(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to parse registry response")
		})
	}
}
