package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/k-papadakis/spark-fastapi-feature-engineering/internal/errors"
	api "github.com/k-papadakis/spark-fastapi-feature-engineering/pkg/contracts/api/v1"
)

func TestValidator_DecodeJSON(t *testing.T) {
	v := NewValidator(nil)

	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantField string
		check     func(t *testing.T, req api.EngineerRequest)
	}{
		{
			name: "full request",
			body: `{"transforms":["year"],"aggregations":["max","count"],"customer_id":["1090"],"max_depth":1}`,
			check: func(t *testing.T, req api.EngineerRequest) {
				assert.Equal(t, []string{"year"}, req.Transforms)
				assert.Equal(t, []string{"1090"}, req.CustomerIDs)
				require.NotNil(t, req.MaxDepth)
				assert.Equal(t, 1, *req.MaxDepth)
			},
		},
		{
			name: "empty body",
			body: "",
			check: func(t *testing.T, req api.EngineerRequest) {
				assert.Nil(t, req.Transforms)
				assert.Nil(t, req.MaxDepth)
			},
		},
		{
			name: "explicit empty list",
			body: `{"transforms":[]}`,
			check: func(t *testing.T, req api.EngineerRequest) {
				assert.NotNil(t, req.Transforms)
				assert.Empty(t, req.Transforms)
			},
		},
		{name: "negative depth", body: `{"max_depth":-1}`, wantErr: true, wantField: "max_depth"},
		{name: "blank primitive", body: `{"aggregations":["max",""]}`, wantErr: true, wantField: "aggregations[1]"},
		{name: "unknown field", body: `{"depth":2}`, wantErr: true},
		{name: "malformed", body: `{"transforms":`, wantErr: true},
		{name: "trailing document", body: `{} {}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/features/engineer", strings.NewReader(tt.body))
			var req api.EngineerRequest
			err := v.DecodeJSON(r, &req)
			if !tt.wantErr {
				require.NoError(t, err)
				tt.check(t, req)
				return
			}
			require.Error(t, err)
			if tt.wantField != "" {
				var verrs validator.ValidationErrors
				require.ErrorAs(t, err, &verrs)
				assert.Equal(t, tt.wantField, verrs[0].Field())
			}
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator(apierrors.NewErrorHandler(nil, false), "application/json")(http.HandlerFunc(okHandler))

	r := httptest.NewRequest(http.MethodPost, "/features/engineer", strings.NewReader("a,b"))
	r.Header.Set("Content-Type", "text/csv")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	r = httptest.NewRequest(http.MethodPost, "/features/engineer", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/features/engineer", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?max_depth=3&format=CSV&transforms=year,month&transforms=day&bad=abc", nil)

	n, err := QueryInt(r, "max_depth", 0, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = QueryInt(r, "missing", 0, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = QueryInt(r, "bad", 0, 5, 2)
	assert.Error(t, err)
	_, err = QueryInt(r, "max_depth", 0, 2, 2)
	assert.Error(t, err)

	format, err := QueryEnum(r, "format", []string{"json", "csv", "xlsx"}, "json")
	require.NoError(t, err)
	assert.Equal(t, "csv", format)
	_, err = QueryEnum(r, "bad", []string{"json"}, "json")
	assert.Error(t, err)

	list, ok := QueryList(r, "transforms")
	assert.True(t, ok)
	assert.Equal(t, []string{"year", "month", "day"}, list)
	_, ok = QueryList(r, "aggregations")
	assert.False(t, ok)
}
