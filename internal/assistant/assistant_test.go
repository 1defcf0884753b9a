// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assistant

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/pdiddy/research-assistant/internal/httputil"
	"github.com/pdiddy/research-assistant/internal/normalize"
	"github.com/pdiddy/research-assistant/internal/vault"
	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const (
	geminiAnswer = `{"candidates":[{"content":{"role":"model","parts":[{"text":"Paris is the capital."}]},"finishReason":"STOP",
		"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://a.example","title":"A"}},{"web":{"uri":"https://a.example","title":"A again"}}]}}]}`
	perplexityAnswer = `{"model":"sonar","choices":[{"message":{"role":"assistant","content":"An answer."}}],"citations":["https://p.example"]}`
)

// call is one request seen by fakeTransport.
type call struct {
	provider types.ProviderID
	url      string
	body     []byte
}

// fakeTransport records requests and replies with a canned body.
type fakeTransport struct {
	mu    sync.Mutex
	calls []call
	reply func(provider types.ProviderID) ([]byte, error)
}

func (f *fakeTransport) PostJSON(_ context.Context, provider types.ProviderID, url string, _ map[string]string, body []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{provider: provider, url: url, body: append([]byte(nil), body...)})
	f.mu.Unlock()
	return f.reply(provider)
}

func (f *fakeTransport) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func replyWith(body string) func(types.ProviderID) ([]byte, error) {
	return func(types.ProviderID) ([]byte, error) { return []byte(body), nil }
}

func testSettings(provider types.ProviderID, mode types.ResearchMode) types.Settings {
	s := types.DefaultSettings()
	s.Provider = provider
	s.Mode = mode
	s.IncludeMetadata = false
	s.APIKeys = map[types.ProviderID]string{
		types.ProviderGemini:     "g-key",
		types.ProviderPerplexity: "p-key",
		types.ProviderTavily:     "t-key",
		types.ProviderExa:        "e-key",
	}
	return s
}

func newAssistant(t *testing.T, tr *fakeTransport, s types.Settings) *Assistant {
	t.Helper()
	a, err := New(Options{
		Transport: tr,
		Endpoints: types.EndpointConfig{
			Gemini:     "https://gemini.test",
			Perplexity: "https://perplexity.test",
			Tavily:     "https://tavily.test",
			Exa:        "https://exa.test",
		},
		Now:      func() time.Time { return fixedNow },
		Settings: s,
	})
	require.NoError(t, err)
	return a
}

func TestSearchRendersGroundedAnswer(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(geminiAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderGemini, types.ModeQuick))

	out := a.Search(context.Background(), "  capital of France  ")

	assert.True(t, strings.HasPrefix(out, "## capital of France\n"))
	assert.Contains(t, out, "Paris is the capital.")
	assert.Contains(t, out, "### Sources\n\n1. [A](https://a.example)\n")
	assert.NotContains(t, out, "2. [")
	assert.Equal(t, "https://gemini.test/models/gemini-2.5-flash:generateContent", tr.last(t).url)
}

func TestSearchRateLimitedOverHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"slow down"}`)
	}))
	defer ts.Close()

	client := httputil.New(types.HTTPConfig{Timeout: 5 * time.Second}, nil)
	client.HTTP = ts.Client()
	a, err := New(Options{
		Transport: client,
		Endpoints: types.EndpointConfig{Gemini: ts.URL, Perplexity: ts.URL, Tavily: ts.URL, Exa: ts.URL},
		Now:       func() time.Time { return fixedNow },
		Settings:  testSettings(types.ProviderPerplexity, types.ModeQuick),
	})
	require.NoError(t, err)

	out := a.Search(context.Background(), "latest news")
	assert.True(t, strings.HasPrefix(out, normalize.ErrorPrefix), out)
	assert.Contains(t, out, "Rate limited by Perplexity (HTTP 429)")
	assert.NotContains(t, out, "Authentication failed")
}

func TestSearchInvalidQueryNeverSends(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(geminiAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderGemini, types.ModeQuick))

	out := a.Search(context.Background(), "   ")
	assert.True(t, strings.HasPrefix(out, normalize.ErrorPrefix))
	assert.Contains(t, out, "Invalid query")
	assert.Empty(t, tr.calls)
}

func TestSearchMissingKey(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(geminiAnswer)}
	s := testSettings(types.ProviderExa, types.ModeQuick)
	delete(s.APIKeys, types.ProviderExa)
	a := newAssistant(t, tr, s)

	out := a.Search(context.Background(), "q")
	assert.Contains(t, out, "No API key is configured for Exa")
	assert.Empty(t, tr.calls)
}

func TestSearchVideoSwitchWarning(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(`{"candidates":[{"content":{"parts":[{"text":"A cat video."}]}}]}`)}
	a := newAssistant(t, tr, testSettings(types.ProviderTavily, types.ModeVideo))

	out := a.Search(context.Background(), "summarize https://youtu.be/dQw4w9WgXcQ")
	assert.Contains(t, out, "A cat video.")
	assert.Contains(t, out, "> [!warning]\n> Video analysis is only available with Gemini; switched from Tavily.")
	assert.Equal(t, types.ProviderGemini, tr.last(t).provider)
}

func TestChatSendsPriorTurnsAsContext(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderPerplexity, types.ModeQuick))
	sess := a.NewSession()

	first := a.Chat(context.Background(), sess, "What is CRISPR?")
	assert.Contains(t, first, "An answer.")

	a.Chat(context.Background(), sess, "Who discovered it?")

	msgs := gjson.GetBytes(tr.last(t).body, "messages").Array()
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())
	assert.Contains(t, msgs[1].Get("content").String(), "What is CRISPR?")
	assert.Equal(t, "assistant", msgs[2].Get("role").String())
	assert.Equal(t, "An answer.", msgs[2].Get("content").String(), "context carries the answer body, not the rendering")
	assert.Contains(t, msgs[3].Get("content").String(), "Who discovered it?")

	turns := sess.Transcript()
	require.Len(t, turns, 4)
	assert.Equal(t, types.UserTurn("Who discovered it?"), turns[2])
	assert.Equal(t, types.AssistantTurn("An answer."), turns[3])
}

func TestChatLeavesFailedExchangesOutOfContext(t *testing.T) {
	fail := true
	tr := &fakeTransport{reply: func(p types.ProviderID) ([]byte, error) {
		if fail {
			return nil, &types.ProviderRequestFailed{Provider: p, Status: http.StatusTooManyRequests}
		}
		return []byte(geminiAnswer), nil
	}}
	a := newAssistant(t, tr, testSettings(types.ProviderGemini, types.ModeQuick))
	sess := a.NewSession()

	out := a.Chat(context.Background(), sess, "first try")
	assert.True(t, strings.HasPrefix(out, normalize.ErrorPrefix))

	fail = false
	a.Chat(context.Background(), sess, "second try")

	body := string(tr.last(t).body)
	assert.NotContains(t, body, "Research failed")
	assert.NotContains(t, body, "first try")
	assert.Len(t, gjson.GetBytes(tr.last(t).body, "contents").Array(), 1)
	assert.Len(t, sess.Transcript(), 4, "failed turns stay in the transcript")
}

func TestChatCitationsToggle(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderPerplexity, types.ModeQuick))

	assert.Contains(t, a.Search(context.Background(), "q"), "### Sources")

	off := false
	require.NoError(t, a.UpdateProfile(types.ModeQuick, types.ProviderPerplexity, types.ProfilePatch{IncludeCitations: &off}))
	out := a.Search(context.Background(), "q")
	assert.Contains(t, out, "An answer.")
	assert.NotContains(t, out, "### Sources")
}

func TestChatWithChatModeOffSendsNoContext(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(geminiAnswer)}
	s := testSettings(types.ProviderGemini, types.ModeQuick)
	s.ChatMode[types.ProviderGemini] = false
	a := newAssistant(t, tr, s)
	sess := a.NewSession()

	a.Chat(context.Background(), sess, "one")
	a.Chat(context.Background(), sess, "two")

	assert.Len(t, gjson.GetBytes(tr.last(t).body, "contents").Array(), 1)
	assert.Len(t, sess.Transcript(), 4)
}

func TestChatBusyLeavesTranscriptAlone(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderPerplexity, types.ModeQuick))
	sess := a.NewSession()

	require.True(t, sess.inflight.TryAcquire(1))
	out := a.Chat(context.Background(), sess, "second question")
	sess.inflight.Release(1)

	assert.True(t, strings.HasPrefix(out, normalize.ErrorPrefix))
	assert.Contains(t, out, "already in progress")
	assert.Empty(t, sess.Transcript())
	assert.Empty(t, tr.calls)
}

func TestChatRecordsErrorAsAssistantTurn(t *testing.T) {
	tr := &fakeTransport{reply: func(p types.ProviderID) ([]byte, error) {
		return nil, &types.ProviderRequestFailed{Provider: p, Status: http.StatusUnauthorized}
	}}
	a := newAssistant(t, tr, testSettings(types.ProviderPerplexity, types.ModeQuick))
	sess := a.NewSession()

	out := a.Chat(context.Background(), sess, "q")
	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, out, turns[1].Content)
	assert.Contains(t, out, "Authentication failed (HTTP 401)")
}

func TestChatVideoContextLifecycle(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(`{"candidates":[{"content":{"parts":[{"text":"It is about cats."}]}}]}`)}
	a := newAssistant(t, tr, testSettings(types.ProviderGemini, types.ModeVideo))
	sess := a.NewSession()

	a.Chat(context.Background(), sess, "What is https://www.youtube.com/watch?v=dQw4w9WgXcQ about?")
	v := sess.Video()
	require.NotNil(t, v)
	assert.Equal(t, "dQw4w9WgXcQ", v.VideoID)

	a.Chat(context.Background(), sess, "Who appears at the end?")
	contents := gjson.GetBytes(tr.last(t).body, "contents").Array()
	require.NotEmpty(t, contents)
	parts := contents[len(contents)-1].Get("parts").Array()
	require.NotEmpty(t, parts)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", parts[0].Get("fileData.fileUri").String())
	assert.False(t, gjson.GetBytes(tr.last(t).body, "tools").Exists())

	sess.SetMode(types.ModeQuick)
	assert.Nil(t, sess.Video())
}

func TestChatResetClearsState(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderPerplexity, types.ModeQuick))
	sess := a.NewSession()
	id := sess.ID()

	a.Chat(context.Background(), sess, "q")
	sess.Reset(fixedNow)

	assert.NotEqual(t, id, sess.ID())
	assert.Empty(t, sess.Transcript())
}

type recordingStore struct {
	saved []types.Conversation
	err   error
}

func (r *recordingStore) SaveConversation(_ context.Context, c types.Conversation) error {
	r.saved = append(r.saved, c)
	return r.err
}

func TestChatSavesToConversationStore(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	rec := &recordingStore{err: errors.New("disk full")}
	a, err := New(Options{
		Transport:     tr,
		Now:           func() time.Time { return fixedNow },
		Settings:      testSettings(types.ProviderPerplexity, types.ModeQuick),
		Conversations: rec,
	})
	require.NoError(t, err)
	sess := a.NewSession()

	out := a.Chat(context.Background(), sess, "q")
	assert.Contains(t, out, "An answer.", "store failures do not affect the answer")
	require.Len(t, rec.saved, 1)
	assert.Equal(t, sess.ID(), rec.saved[0].ID)
	assert.Equal(t, "q", rec.saved[0].Title)
	assert.Len(t, rec.saved[0].Turns, 2)
}

type fakeEditor struct {
	selection string
	replaced  string
	inserted  string
}

func (e *fakeEditor) Selection() string { return e.selection }

func (e *fakeEditor) ReplaceSelection(text string) error {
	e.replaced = text
	return nil
}

func (e *fakeEditor) InsertAtCursor(text string) error {
	e.inserted = text
	return nil
}

func TestRunSearchCommand(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(geminiAnswer)}
	a := newAssistant(t, tr, testSettings(types.ProviderGemini, types.ModeQuick))

	ed := &fakeEditor{selection: "capital of France"}
	require.NoError(t, a.RunSearchCommand(context.Background(), ed))
	assert.Contains(t, ed.replaced, "Paris is the capital.")
	assert.Empty(t, ed.inserted)

	empty := &fakeEditor{selection: "  "}
	require.NoError(t, a.RunSearchCommand(context.Background(), empty))
	assert.True(t, strings.HasPrefix(empty.inserted, normalize.ErrorPrefix))
	assert.Contains(t, empty.inserted, "select text to research first")
	assert.Empty(t, empty.replaced)
	assert.Len(t, tr.calls, 1)
}

func TestSaveConversation(t *testing.T) {
	tr := &fakeTransport{reply: replyWith(perplexityAnswer)}
	s := testSettings(types.ProviderPerplexity, types.ModeQuick)
	s.Export.FileName = types.FileNameCounter
	a := newAssistant(t, tr, s)
	v := vault.Dir{Root: t.TempDir()}

	empty := a.NewSession()
	_, err := a.SaveConversation(empty, v)
	assert.Error(t, err)

	sess := a.NewSession()
	a.Chat(context.Background(), sess, "What is CRISPR?")

	p1, err := a.SaveConversation(sess, v)
	require.NoError(t, err)
	assert.Equal(t, "Research/Research 1.md", p1)

	p2, err := a.SaveConversation(sess, v)
	require.NoError(t, err)
	assert.Equal(t, "Research/Research 2.md", p2)

	files, err := v.ListFiles("Research")
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, files)
}

type memorySettings struct {
	current types.Settings
	saves   int
}

func (m *memorySettings) Load() (types.Settings, error) { return m.current, nil }

func (m *memorySettings) Save(s types.Settings) error {
	m.current = s
	m.saves++
	return nil
}

func TestUpdateProfilePersists(t *testing.T) {
	store := &memorySettings{current: testSettings(types.ProviderTavily, types.ModeDeep)}
	a, err := New(Options{SettingsStore: store, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	n := 7
	require.NoError(t, a.UpdateProfile(types.ModeDeep, types.ProviderTavily, types.ProfilePatch{ResultCount: &n}))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 7, store.current.Profiles[types.ModeDeep][types.ProviderTavily].Search.ResultCount)

	// A fresh assistant over the same store sees the saved profile.
	b, err := New(Options{SettingsStore: store})
	require.NoError(t, err)
	p, err := b.Profile(types.ModeDeep, types.ProviderTavily)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Search.ResultCount)
}

func TestUpdateProfileInvalidIsNotSaved(t *testing.T) {
	store := &memorySettings{current: testSettings(types.ProviderGemini, types.ModeQuick)}
	a, err := New(Options{SettingsStore: store})
	require.NoError(t, err)

	temp := 3.0
	assert.Error(t, a.UpdateProfile(types.ModeQuick, types.ProviderGemini, types.ProfilePatch{Temperature: &temp}))
	assert.Zero(t, store.saves)
}

func TestNewRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Settings)
	}{
		{"unknown provider", func(s *types.Settings) { s.Provider = "bing" }},
		{"unknown mode", func(s *types.Settings) { s.Mode = "fast" }},
		{"bad strategy", func(s *types.Settings) { s.ContextStrategy = "all" }},
		{"negative limit", func(s *types.Settings) { s.ContextLimit = -1 }},
		{"bad video policy", func(s *types.Settings) { s.VideoPolicy = "ask" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testSettings(types.ProviderGemini, types.ModeQuick)
			tt.mutate(&s)
			_, err := New(Options{Settings: s})
			assert.Error(t, err)
		})
	}
}

func TestSettingsNormalizesCase(t *testing.T) {
	s := testSettings("Perplexity", "Deep")
	a, err := New(Options{Settings: s})
	require.NoError(t, err)
	assert.Equal(t, types.ProviderPerplexity, a.Settings().Provider)
	assert.Equal(t, types.ModeDeep, a.Settings().Mode)
}
