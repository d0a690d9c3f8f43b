package pingate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/domain/profile"
)

func TestClient_Verify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Pin string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body.Pin {
		case "123456":
			w.Write([]byte(`{"success":true}`))
		case "999999":
			w.Header().Set("Retry-After", "17")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"retryAfter":17}`))
		case "500500":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"success":false}`))
		default:
			w.Write([]byte(`{"success":false}`))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL+"/", nil)
	ctx := context.Background()

	res, err := c.Verify(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = c.Verify(ctx, "000000")
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = c.Verify(ctx, "999999")
	require.NoError(t, err)
	assert.Equal(t, 17*time.Second, res.RetryAfter)

	_, err = c.Verify(ctx, "500500")
	assert.Error(t, err)
}

func TestClient_SaveProfile(t *testing.T) {
	var got struct {
		pin      string
		fields   map[string][]string
		cvName   string
		imageKey string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got.pin = r.Header.Get(headerAdminPin)
		got.fields = r.MultipartForm.Value
		if fh := r.MultipartForm.File["cv"]; len(fh) > 0 {
			got.cvName = fh[0].Filename
		}
		for k := range r.MultipartForm.File {
			if k != "cv" {
				got.imageKey = k
			}
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cv := filepath.Join(dir, "resume.pdf")
	img := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(cv, []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(img, []byte("png"), 0o644))

	gh := "gh"
	draft := profile.Profile{
		FullName: "A", JobTitle: "J", Description: "D", GitHub: &gh,
		ProjectExperience: []profile.ProjectRecord{{ProjectName: "P1"}, {ProjectName: "P2"}},
	}
	err := NewClient(srv.URL, nil).SaveProfile(context.Background(), "123456", draft, Upload{CVPath: cv, Images: map[int]string{1: img}})
	require.NoError(t, err)

	assert.Equal(t, "123456", got.pin)
	assert.Equal(t, []string{"A"}, got.fields["fullname"])
	assert.Equal(t, []string{"gh"}, got.fields["github"])
	assert.NotContains(t, got.fields, "email")
	assert.Equal(t, []string{"[]"}, got.fields["companyList"])
	assert.Equal(t, "resume.pdf", got.cvName)
	assert.Equal(t, "projectImages[1]", got.imageKey)
}

func TestClient_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Missing required fields"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, nil).SaveProfile(context.Background(), "123456", profile.Profile{}, Upload{})
	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, "Missing required fields", serr.Message)
}

func TestClient_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"profile":{"fullname":"A","projectExperience":[{"projectName":"P1"}]}}`))
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, nil).FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", p.FullName)
	assert.Len(t, p.ProjectExperience, 1)
}
