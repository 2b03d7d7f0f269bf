package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cellexis-assistant/internal/bootstrap"
	"cellexis-assistant/internal/config"
	"cellexis-assistant/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves the RAG endpoints the gateway talks to, so the suite
// runs without the hosted deployment.
func fakeBackend(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search-rag", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"query":  "microgravity",
			"answer": "Microgravity reduces bone density in mice.",
			"citations": []map[string]interface{}{
				{"paper_id": "GLDS-47", "page_num": 3, "score": 0.91},
			},
		})
	})
	mux.HandleFunc("/search-stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"faiss_index_size": 8927,
			"chunks_loaded":    8927,
			"papers_available": 100,
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *fiber.App {
	backend := fakeBackend(t)

	t.Setenv("RAG_BASE_URL", backend.URL)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NATS_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "integration-test-secret")
	t.Setenv("LOG_FILE_PATH", t.TempDir()+"/app.log")

	cfg := config.Load()
	container := bootstrap.NewContainer(cfg)
	t.Cleanup(container.VoiceService.Shutdown)
	return server.New(cfg, container).GetApp()
}

func signToken(t *testing.T) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-integration",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("integration-test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSearchEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/assistant/search", strings.NewReader(`{"query":"microgravity"}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Answer    string `json:"answer"`
			Citations []struct {
				PaperID string  `json:"paper_id"`
				Score   float64 `json:"score"`
			} `json:"citations"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Contains(t, body.Data.Answer, "bone density")
	require.Len(t, body.Data.Citations, 1)
	assert.Equal(t, "GLDS-47", body.Data.Citations[0].PaperID)
	assert.InDelta(t, 0.91, body.Data.Citations[0].Score, 1e-9)
}

func TestSearchValidation(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/assistant/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestBookmarksRequireAuth(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/bookmarks/papers", nil)
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestBookmarksRoundTrip(t *testing.T) {
	app := newTestApp(t)
	token := signToken(t)

	put := httptest.NewRequest("PUT", "/api/bookmarks/papers", strings.NewReader(`{"items":[{"paper_id":"GLDS-47"}]}`))
	put.Header.Set("Content-Type", "application/json")
	put.Header.Set("Authorization", "Bearer "+token)

	res, err := app.Test(put, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	get := httptest.NewRequest("GET", "/api/bookmarks/papers", nil)
	get.Header.Set("Authorization", "Bearer "+token)

	res, err = app.Test(get, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data struct {
			Items json.RawMessage `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, string(body.Data.Items), "GLDS-47")
}

func TestFeedbackSubmission(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/feedback", strings.NewReader(`{"category":"bug","message":"graph tab is blank"}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.NotEmpty(t, body.Data.Id)
}

func TestVoiceLifecycleOverREST(t *testing.T) {
	app := newTestApp(t)

	// Transcript before activation is rejected.
	req := httptest.NewRequest("POST", "/api/voice/transcript", strings.NewReader(`{"transcript":"open the graph","final":true}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	// Toggle on.
	res, err = app.Test(httptest.NewRequest("POST", "/api/voice/toggle", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var state struct {
		Data struct {
			Phase string `json:"phase"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.Equal(t, "LISTENING", state.Data.Phase)

	// Now transcripts are accepted.
	req = httptest.NewRequest("POST", "/api/voice/transcript", strings.NewReader(`{"transcript":"open the graph","final":true}`))
	req.Header.Set("Content-Type", "application/json")
	res, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	// Toggle off.
	res, err = app.Test(httptest.NewRequest("POST", "/api/voice/toggle", nil), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.Equal(t, "IDLE", state.Data.Phase)
}

func TestWakePhraseActivatesOverREST(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/voice/transcript", strings.NewReader(`{"transcript":"hey cellexis","final":true}`))
	req.Header.Set("Content-Type", "application/json")
	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("GET", "/api/voice/state", nil), -1)
	require.NoError(t, err)

	var state struct {
		Data struct {
			Phase string `json:"phase"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&state))
	assert.Equal(t, "LISTENING", state.Data.Phase)
}

func TestVoiceQueryEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/assistant/voice-query", strings.NewReader(`{"query":"what happens to bones in space"}`))
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data struct {
			Answer string `json:"answer"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.NotEmpty(t, body.Data.Answer)
}

func TestStatsEndpointNeverFails(t *testing.T) {
	app := newTestApp(t)

	res, err := app.Test(httptest.NewRequest("GET", "/api/assistant/stats", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Data struct {
			Stats struct {
				IndexSize int `json:"faiss_index_size"`
			} `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, 8927, body.Data.Stats.IndexSize)
}
