package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmharte/rxq/internal/api"
	"github.com/rmharte/rxq/internal/display"
)

func setCLIEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RXQ_CONFIG", "")
	t.Setenv("RXQ_API_URL", apiURL)
	t.Setenv("RXQ_TIMEOUT_SECONDS", "")
	t.Setenv("RXQ_MAX_RESULTS", "")
	t.Setenv("RXQ_DEBUG", "")
	t.Setenv("RXQ_LOG_FILE", "")
}

// startSearchServer serves one canned search response and captures the
// last request body.
func startSearchServer(t *testing.T, resp api.SearchResponse) *api.SearchRequest {
	t.Helper()
	captured := &api.SearchRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	setCLIEnv(t, srv.URL)
	return captured
}

func lipitorSearchResponse() api.SearchResponse {
	return api.SearchResponse{
		Success: true,
		Results: []api.GroupRecord{
			{
				GroupID:   "lipitor-10",
				BrandName: "Lipitor",
				IsGeneric: "false",
				MatchType: "exact",
				Variants: []api.VariantRecord{
					{Label: "Lipitor 10mg Tablet", Strength: "10mg"},
				},
			},
			{
				GroupID:     "atorvastatin-10",
				GenericName: "atorvastatin",
				IsGeneric:   true,
				MatchType:   "pharmacologic",
			},
		},
		TotalResults: 2,
	}
}

func TestRunCLI_SearchJSON(t *testing.T) {
	captured := startSearchServer(t, lipitorSearchResponse())

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"lipitor", "--json"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "lipitor", captured.Query)
	assert.Equal(t, 20, captured.MaxResults)

	var groups []display.GroupJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &groups))
	require.Len(t, groups, 2)
	assert.Equal(t, "Lipitor", groups[0].Title)
	assert.Equal(t, "Vector Search", groups[0].MatchLabel)
	assert.Equal(t, "atorvastatin", groups[1].Title)
	assert.Empty(t, stderr.String())
}

func TestRunCLI_AutoJSONWhenPiped(t *testing.T) {
	startSearchServer(t, lipitorSearchResponse())

	// A bytes.Buffer is not a TTY, so agent mode turns JSON on by itself.
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"lipitor"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	var groups []display.GroupJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &groups))
	assert.Len(t, groups, 2)
}

func TestRunCLI_MaxFlagOverridesConfig(t *testing.T) {
	captured := startSearchServer(t, lipitorSearchResponse())

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"insulin", "--max", "7", "--json"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, 7, captured.MaxResults)
}

func TestRunCLI_MaxFlagOutOfRange(t *testing.T) {
	setCLIEnv(t, "http://127.0.0.1:1")

	for _, value := range []string{"-3", "150"} {
		var stdout, stderr bytes.Buffer
		code := runCLI([]string{"insulin", "--max", value}, &stdout, &stderr)

		assert.Equal(t, ExitInvalidArgs, code, "--max %s", value)

		var payload map[string]map[string]any
		require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
		assert.Equal(t, "INVALID_ARGS", payload["error"]["code"])
		assert.Contains(t, payload["error"]["message"], "max_results")
	}
}

func TestRunCLI_FilterFlagsReachRequest(t *testing.T) {
	captured := startSearchServer(t, lipitorSearchResponse())

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"search", "metformin", "--generic", "--form", "tablet", "--json"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	require.NotNil(t, captured.Filters)
	require.NotNil(t, captured.Filters.IsGeneric)
	assert.True(t, *captured.Filters.IsGeneric)
	assert.Equal(t, "tablet", captured.Filters.DosageForm)
}

func TestRunCLI_ConflictingFilterFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"search", "metformin", "--generic", "--brand", "--json"}, &stdout, &stderr)

	assert.Equal(t, ExitInvalidArgs, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "INVALID_ARGS", payload["error"]["code"])
	assert.Contains(t, payload["error"]["message"], "exclude each other")
}

func TestRunCLI_QueryAfterDoubleDash(t *testing.T) {
	captured := startSearchServer(t, lipitorSearchResponse())

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"search", "--", "relief", "from", "migraine"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "relief from migraine", captured.Query)
	// Auto-JSON still applies; the flag must land before the boundary.
	var groups []display.GroupJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &groups))
	assert.NotContains(t, stderr.String(), "interpreted")
}

func TestRunCLI_BackendFailureExitCode(t *testing.T) {
	startSearchServer(t, api.SearchResponse{Success: false, Error: "timeout"})

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"lipitor"}, &stdout, &stderr)

	assert.Equal(t, ExitUpstream, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "UPSTREAM_ERROR", payload["error"]["code"])
	assert.Equal(t, "timeout", payload["error"]["message"])
	assert.Equal(t, float64(ExitUpstream), payload["error"]["exitCode"])
}

func TestRunCLI_NoMatchesExitCode(t *testing.T) {
	startSearchServer(t, api.SearchResponse{Success: true, Results: []api.GroupRecord{}})

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"xyzzy"}, &stdout, &stderr)

	assert.Equal(t, ExitNotFound, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "NOT_FOUND", payload["error"]["code"])
	assert.Equal(t, `No matches for "xyzzy".`, payload["error"]["message"])
}

func TestRunCLI_UnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"lipitor", "--ziip"}, &stdout, &stderr)

	assert.Equal(t, ExitInvalidArgs, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "INVALID_ARGS", payload["error"]["code"])
	assert.Contains(t, payload["error"]["message"], "unknown flag")
}

func TestRunCLI_DetailJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/drugs/00071015523", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(api.DrugDetailResponse{
			Success: true,
			Drug: &api.DrugDetail{
				NDC:       "00071015523",
				DrugName:  "Lipitor 10mg Tablet",
				IsGeneric: "false",
			},
		}))
	}))
	t.Cleanup(srv.Close)
	setCLIEnv(t, srv.URL)

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"detail", "00071-0155-23", "--json"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	var drug display.DrugJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &drug))
	assert.Equal(t, "00071015523", drug.NDC)
	assert.Equal(t, "Lipitor 10mg Tablet", drug.DrugName)
}

func TestRunCLI_DetailInvalidNDC(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"detail", "123"}, &stdout, &stderr)

	assert.Equal(t, ExitInvalidArgs, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "INVALID_ARGS", payload["error"]["code"])
	assert.Contains(t, payload["error"]["message"], "invalid NDC")
}

func TestRunCLI_AlternativesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drugs/00071015523/alternatives", r.URL.Path)
		require.NoError(t, json.NewEncoder(w).Encode(api.AlternativesResponse{
			Success:      true,
			Drug:         &api.DrugDetail{NDC: "00071015523"},
			Alternatives: &api.Alternatives{TotalCount: 0},
		}))
	}))
	t.Cleanup(srv.Close)
	setCLIEnv(t, srv.URL)

	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"alternatives", "00071015523"}, &stdout, &stderr)

	assert.Equal(t, ExitNotFound, code)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &payload))
	assert.Equal(t, "NOT_FOUND", payload["error"]["code"])
	assert.Contains(t, payload["error"]["message"], "no alternatives found")
}

func TestRunCLI_NoArgsPrintsQuickStart(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI(nil, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)

	// Non-TTY stdout gets the machine-readable quick start.
	var payload quickStartJSON
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &payload))
	assert.Equal(t, "rxq", payload.Name)
	assert.Len(t, payload.Examples, 3)
	assert.Empty(t, stderr.String())
}

func TestRunCLI_CompletionZsh(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"completion", "zsh"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout.String(), "#compdef rxq")
	assert.Empty(t, stderr.String())
}

func TestRunCLI_HelpDetail(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"help", "detail"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout.String(), "rxq detail NDC")
	assert.Empty(t, stderr.String())
}

func TestRunCLI_TolerantRewriteWithoutNetworkCall(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := runCLI([]string{"serach", "lipitor", "--help"}, &stdout, &stderr)

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout.String(), "rxq search")
	assert.Contains(t, stderr.String(), "interpreted command `serach` as `search`")
}
