package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/meatmart/internal/export"
)

// echoLogin отвечает JSON с номером из тела запроса, как обработчик входа.
func echoLogin(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"mobile": req.Mobile})
}

// serveWorkbook отдаёт двоичную выгрузку заказов с известной длиной.
func serveWorkbook(w http.ResponseWriter, r *http.Request) {
	payload := []byte("PK\x03\x04 orders workbook")
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func gzipBody(t *testing.T, s string) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return &buf
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()

	var r io.Reader = res.Body
	if res.Header.Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(res.Body)
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	}
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(body)
}

func TestGzipMiddleware(t *testing.T) {
	type want struct {
		statusCode      int
		contentEncoding string
		contentType     string
		body            string
	}

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		body           string
		compressBody   bool
		acceptEncoding string
		want           want
	}{
		{
			name:           "json response is compressed",
			handler:        echoLogin,
			body:           `{"mobile":"9876543210"}`,
			acceptEncoding: "gzip, deflate",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				contentType:     "application/json",
				body:            `{"mobile":"9876543210"}` + "\n",
			},
		},
		{
			name:           "client without gzip gets plain json",
			handler:        echoLogin,
			body:           `{"mobile":"9999999999"}`,
			acceptEncoding: "",
			want: want{
				statusCode:  http.StatusOK,
				contentType: "application/json",
				body:        `{"mobile":"9999999999"}` + "\n",
			},
		},
		{
			name:           "compressed login body is unpacked",
			handler:        echoLogin,
			body:           `{"mobile":"9123456780"}`,
			compressBody:   true,
			acceptEncoding: "gzip",
			want: want{
				statusCode:      http.StatusOK,
				contentEncoding: "gzip",
				contentType:     "application/json",
				body:            `{"mobile":"9123456780"}` + "\n",
			},
		},
		{
			name:           "workbook is sent as is",
			handler:        serveWorkbook,
			acceptEncoding: "gzip",
			want: want{
				statusCode:  http.StatusOK,
				contentType: export.ContentTypeXLSX,
				body:        "PK\x03\x04 orders workbook",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(tt.body)
			if tt.compressBody {
				body = gzipBody(t, tt.body)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
			if tt.compressBody {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rec := httptest.NewRecorder()

			GzipMiddleware(tt.handler).ServeHTTP(rec, req)

			res := rec.Result()
			defer res.Body.Close()

			assert.Equal(t, tt.want.statusCode, res.StatusCode)
			assert.Equal(t, tt.want.contentType, res.Header.Get("Content-Type"))
			assert.Equal(t, tt.want.contentEncoding, res.Header.Get("Content-Encoding"))
			assert.Equal(t, tt.want.body, readBody(t, res))
		})
	}
}

func TestGzipMiddleware_WorkbookKeepsContentLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders/export", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	GzipMiddleware(http.HandlerFunc(serveWorkbook)).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))
}

func TestGzipMiddleware_CorruptBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	rec := httptest.NewRecorder()

	called := false
	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
