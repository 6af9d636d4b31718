package geo

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rimareum/gatekeeper/pkg/infra/httpx/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestParseCountry(t *testing.T) {
	tests := []struct {
		body    string
		want    string
		wantErr bool
	}{
		{"FR\n", "FR", false},
		{"dz", "DZ", false},
		{`{"country_code":"ae","country_name":"United Arab Emirates"}`, "AE", false},
		{`{"countryCode":"US"}`, "US", false},
		{`{"country":"fr"}`, "FR", false},
		{"Undefined", "", true},
		{`{"error":true,"reason":"Reserved IP Address"}`, "", true},
		{`{broken`, "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			got, err := parseCountry([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHTTPResolver_Success(t *testing.T) {
	client := new(mocks.Client)
	client.On("Do", mock.MatchedBy(func(r *http.Request) bool {
		return r.URL.String() == "https://ipapi.co/1.2.3.4/country/"
	})).Return(response(http.StatusOK, "US"), nil)

	r := NewHTTPResolver(client, "", 0)
	country, err := r.ResolveCountry(context.Background(), "1.2.3.4")

	require.NoError(t, err)
	assert.Equal(t, "US", country)
	client.AssertExpectations(t)
}

func TestHTTPResolver_Status(t *testing.T) {
	client := new(mocks.Client)
	client.On("Do", mock.Anything).Return(response(http.StatusTooManyRequests, "rate limited"), nil)

	_, err := NewHTTPResolver(client, "", 0).ResolveCountry(context.Background(), "1.2.3.4")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPResolver_Timeout(t *testing.T) {
	client := new(mocks.Client)
	client.On("Do", mock.Anything).Return(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	}, nil)

	start := time.Now()
	_, err := NewHTTPResolver(client, "", 20*time.Millisecond).ResolveCountry(context.Background(), "1.2.3.4")

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second)
}
