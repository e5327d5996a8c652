package embed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linkframe/internal/domain/models"
	"linkframe/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string][]string
		want    Result
	}{
		{
			name: "Нет ограничивающих заголовков",
			want: Result{Mode: ModeIframe},
		},
		{
			name:    "X-Frame-Options SAMEORIGIN",
			headers: map[string][]string{"X-Frame-Options": {"SAMEORIGIN"}},
			want:    Result{Mode: ModeExternal, Reason: ReasonXFrameOptions},
		},
		{
			name:    "X-Frame-Options с любым значением",
			headers: map[string][]string{"X-Frame-Options": {"ALLOW-FROM https://a.example"}},
			want:    Result{Mode: ModeExternal, Reason: ReasonXFrameOptions},
		},
		{
			name:    "frame-ancestors 'none'",
			headers: map[string][]string{"Content-Security-Policy": {"default-src 'self'; frame-ancestors 'none'"}},
			want:    Result{Mode: ModeExternal, Reason: ReasonFrameAncestors},
		},
		{
			name:    "frame-ancestors 'self' в верхнем регистре",
			headers: map[string][]string{"Content-Security-Policy": {"FRAME-ANCESTORS 'SELF' https://partner.example"}},
			want:    Result{Mode: ModeExternal, Reason: ReasonFrameAncestors},
		},
		{
			name:    "frame-ancestors со списком источников считается встраиваемым",
			headers: map[string][]string{"Content-Security-Policy": {"frame-ancestors https://*.example.com"}},
			want:    Result{Mode: ModeIframe},
		},
		{
			name:    "CSP без frame-ancestors",
			headers: map[string][]string{"Content-Security-Policy": {"default-src 'none'; script-src 'self'"}},
			want:    Result{Mode: ModeIframe},
		},
		{
			name: "Вторая политика ограничивает",
			headers: map[string][]string{"Content-Security-Policy": {
				"script-src 'self'",
				"frame-ancestors 'none'",
			}},
			want: Result{Mode: ModeExternal, Reason: ReasonFrameAncestors},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, vs := range tt.headers {
				for _, v := range vs {
					h.Add(k, v)
				}
			}
			assert.Equal(t, tt.want, Classify(h))
		})
	}
}

func TestValidateURL(t *testing.T) {
	for _, raw := range []string{"", "example.com", "ftp://example.com", "javascript:alert(1)", "http://"} {
		_, err := ValidateURL(raw)
		assert.ErrorIs(t, err, models.ErrInvalidURL, raw)
	}

	u, err := ValidateURL(" https://example.com/path ")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
}

func TestClassifier_Check(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/open", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/framed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.WriteHeader(http.StatusOK)
	})
	// HEAD запрещен, GET отдает CSP
	mux.HandleFunc("/no-head", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		_, _ = w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/framed", http.StatusFound)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := metrics.New()
	c := NewClassifier(zerolog.Nop(), WithTimeout(200*time.Millisecond), WithMetrics(m))

	tests := []struct {
		name    string
		url     string
		want    Result
		wantErr error
	}{
		{name: "Встраиваемая страница", url: srv.URL + "/open", want: Result{Mode: ModeIframe}},
		{name: "X-Frame-Options", url: srv.URL + "/framed", want: Result{Mode: ModeExternal, Reason: ReasonXFrameOptions}},
		{name: "Откат на GET", url: srv.URL + "/no-head", want: Result{Mode: ModeExternal, Reason: ReasonFrameAncestors}},
		{name: "Редирект учитывается", url: srv.URL + "/redirect", want: Result{Mode: ModeExternal, Reason: ReasonXFrameOptions}},
		{name: "Таймаут", url: srv.URL + "/slow", want: Result{Mode: ModeExternal, Reason: ReasonNetworkError}},
		{name: "Соединение отклонено", url: "http://127.0.0.1:1/", want: Result{Mode: ModeExternal, Reason: ReasonNetworkError}},
		{
			name:    "Невалидный URL",
			url:     "mailto:someone@example.com",
			want:    Result{Mode: ModeExternal, Reason: ReasonInvalidURL},
			wantErr: models.ErrInvalidURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Check(context.Background(), tt.url)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.EmbedChecks.WithLabelValues("iframe", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmbedChecks.WithLabelValues("external", ReasonNetworkError)))
}
