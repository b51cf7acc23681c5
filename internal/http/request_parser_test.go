package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBodyRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/ui/transactions", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestParseForm(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        TransactionForm
	}{
		{
			name:        "form encoded",
			body:        "description=Coffee&amount=4.5",
			contentType: "application/x-www-form-urlencoded",
			want:        TransactionForm{Description: "Coffee", Amount: "4.5"},
		},
		{
			name:        "json with numeric amount",
			body:        `{"description":"Rent","amount":900.10}`,
			contentType: "application/json",
			want:        TransactionForm{Description: "Rent", Amount: "900.10"},
		},
		{
			name:        "json with string amount",
			body:        `{"description":"Tea","amount":"3"}`,
			contentType: "application/json",
			want:        TransactionForm{Description: "Tea", Amount: "3"},
		},
		{
			name: "empty body",
			body: "",
			want: TransactionForm{},
		},
		{
			name:        "whitespace is kept for validation",
			body:        "description=+++&amount=+1+",
			contentType: "application/x-www-form-urlencoded",
			want:        TransactionForm{Description: "   ", Amount: " 1 "},
		},
		{
			name:        "control characters stripped",
			body:        "description=Cof%00fee%07&amount=2",
			contentType: "application/x-www-form-urlencoded",
			want:        TransactionForm{Description: "Coffee", Amount: "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseForm(httptest.NewRecorder(), newBodyRequest(tt.body, tt.contentType), maxFormBytes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormRejectsMalformedJSON(t *testing.T) {
	_, err := ParseForm(httptest.NewRecorder(), newBodyRequest(`{"description":`, "application/json"), maxFormBytes)
	assert.Error(t, err)
}

func TestParseFormRejectsOversizedBody(t *testing.T) {
	body := "description=" + strings.Repeat("a", 200)
	_, err := ParseForm(httptest.NewRecorder(), newBodyRequest(body, "application/x-www-form-urlencoded"), 64)
	assert.Error(t, err)
}

func TestRequestBodyParserParsesOnce(t *testing.T) {
	p := NewRequestBodyParser(httptest.NewRecorder(), newBodyRequest(`{"amount":1}`, "application/json"), maxFormBytes)
	require.NoError(t, p.Parse())
	require.NoError(t, p.Parse())
	assert.True(t, p.IsJSON())
	assert.Equal(t, "1", p.Get("amount"))
	assert.Empty(t, p.Get("missing"))
}

func TestStripControl(t *testing.T) {
	assert.Equal(t, "a\tb\nc", stripControl("a\tb\nc"))
	assert.Equal(t, "ab", stripControl("a\x00b\x7f"))
	assert.Equal(t, "  x  ", stripControl("  x  "))
}
