package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/embedding"
	"github.com/Harshitk-cp/companion/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTranscriber struct{ text string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.Validation("transcribe", errors.New("empty audio"))
	}
	return f.text, nil
}

type fakeSynthesizer struct{ spoken []string }

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.spoken = append(f.spoken, text)
	return []byte("mp3:" + text), nil
}

type fakeCaptioner struct {
	caption string
	err     error
}

func (f *fakeCaptioner) Caption(ctx context.Context, image []byte, prompt string) (string, error) {
	return f.caption, f.err
}

type fakeImageGen struct{ prompts []string }

func (f *fakeImageGen) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.prompts = append(f.prompts, prompt)
	return []byte("png-bytes"), nil
}

// topicEmbedder puts every text that mentions a pet on the same vector and
// everything else on an orthogonal one.
type topicEmbedder struct{}

func (topicEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	for _, kw := range []string{"dog", "pet", "rex"} {
		if strings.Contains(lower, kw) {
			return unitVec(1, 0), nil
		}
	}
	return unitVec(0, 1), nil
}

func testResolver(now time.Time) *ScheduleResolver {
	schedule, err := BuildSchedule(map[int][][2]string{
		0: {{"06:00-18:00", "Working"}, {"18:00-06:00", "Relaxing"}},
	})
	if err != nil {
		panic(err)
	}
	r := NewScheduleResolver(schedule, time.UTC, zap.NewNop())
	r.SetClock(func() time.Time { return now })
	return r
}

func newTestGraph(llm *fakeLLM, e domain.EmbeddingClient, settings TurnSettings) (*Graph, *VectorStore) {
	vs := NewVectorStore(store.NewChromemIndex(), e, zap.NewNop())
	mm := NewMemoryManager(vs, llm, 3, zap.NewNop())
	return NewGraph(llm, mm, testResolver(monday(10, 0)), settings, zap.NewNop()), vs
}

func TestSelectWorkflow(t *testing.T) {
	tests := []struct {
		workflow domain.Workflow
		want     Node
	}{
		{domain.WorkflowImage, NodeImage},
		{domain.WorkflowAudio, NodeAudio},
		{domain.WorkflowConversation, NodeConversation},
		{"", NodeConversation},
		{"video", NodeConversation},
	}
	for _, tt := range tests {
		state := &domain.ConversationState{Workflow: tt.workflow}
		assert.Equal(t, tt.want, SelectWorkflow(state), string(tt.workflow))
	}
}

func TestShouldSummarize_Boundary(t *testing.T) {
	settings := TurnSettings{SummaryTrigger: 10, MessagesAfterSummary: 5}
	state := domain.NewConversationState("s")

	for i := 0; i < 10; i++ {
		state.Messages = append(state.Messages, domain.NewMessage(domain.RoleHuman, "m"))
	}
	assert.Equal(t, NodeEnd, settings.ShouldSummarize(state))

	state.Messages = append(state.Messages, domain.NewMessage(domain.RoleAI, "m"))
	assert.Equal(t, NodeSummarize, settings.ShouldSummarize(state))
}

func TestRouterNode_UsesRecentWindowAndWritesLabelVerbatim(t *testing.T) {
	llm := &fakeLLM{route: "video"}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), TurnSettings{RouterMessagesToAnalyze: 2, SummaryTrigger: 20})

	state := domain.NewConversationState("s")
	for _, c := range []string{"one", "two", "three"} {
		state.Messages = append(state.Messages, domain.NewMessage(domain.RoleHuman, c))
	}

	require.NoError(t, g.RouterNode(context.Background(), state))
	assert.Equal(t, domain.Workflow("video"), state.Workflow)
	require.Len(t, llm.routeInputs, 1)
	require.Len(t, llm.routeInputs[0], 2)
	assert.Equal(t, "two", llm.routeInputs[0][0].Content)
	assert.Equal(t, NodeConversation, SelectWorkflow(state))
}

func TestRunTurn_NodeOrder(t *testing.T) {
	llm := &fakeLLM{}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	state := domain.NewConversationState("s")

	res, err := g.RunTurn(context.Background(), state, TurnInput{Text: "hello"})
	require.NoError(t, err)

	assert.Equal(t, []Node{
		NodeMemoryExtraction, NodeRouter, NodeContextInjection, NodeMemoryInjection, NodeConversation, NodeEnd,
	}, res.Visited)
	assert.Equal(t, []string{"analyze", "route", "respond"}, llm.calls)
	assert.Equal(t, domain.WorkflowConversation, res.Workflow)
	assert.Equal(t, "hi there", res.Reply)

	require.Len(t, state.Messages, 2)
	assert.Equal(t, domain.RoleHuman, state.Messages[0].Role)
	assert.Equal(t, domain.RoleAI, state.Messages[1].Role)
	assert.Equal(t, "hi there", state.Messages[1].Content)
}

func TestRunTurn_RememberAndRecallPetName(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{analyze: importantIfContains("name is")}
	g, vs := newTestGraph(llm, topicEmbedder{}, DefaultTurnSettings())
	state := domain.NewConversationState("s")

	_, err := g.RunTurn(ctx, state, TurnInput{Text: "My dog's name is Rex"})
	require.NoError(t, err)

	n, err := vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := vs.Search(ctx, "what is my pet's name", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "My dog's name is Rex", hits[0].Text)
	assert.GreaterOrEqual(t, hits[0].Score, float32(domain.SimilarityThreshold))

	_, err = g.RunTurn(ctx, state, TurnInput{Text: "what is my pet's name"})
	require.NoError(t, err)

	n, err = vs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the question is not stored")

	require.Len(t, llm.respondReqs, 2)
	assert.Equal(t, "- My dog's name is Rex", llm.respondReqs[1].MemoryContext)
	assert.Equal(t, "- My dog's name is Rex", state.MemoryContext)
}

func TestRunTurn_ActivityChangeFlag(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	now := monday(10, 0)
	g.schedule.SetClock(func() time.Time { return now })
	state := domain.NewConversationState("s")

	_, err := g.RunTurn(ctx, state, TurnInput{Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Working", state.CurrentActivity)
	assert.True(t, state.ApplyActivity)

	_, err = g.RunTurn(ctx, state, TurnInput{Text: "still there?"})
	require.NoError(t, err)
	assert.False(t, state.ApplyActivity)

	now = monday(20, 0)
	_, err = g.RunTurn(ctx, state, TurnInput{Text: "evening!"})
	require.NoError(t, err)
	assert.Equal(t, "Relaxing", state.CurrentActivity)
	assert.True(t, state.ApplyActivity)
	assert.Equal(t, "Relaxing", llm.respondReqs[2].CurrentActivity)
}

func TestRunTurn_DegradesWhenMemoryStoreIsDown(t *testing.T) {
	llm := &fakeLLM{analyze: importantIfContains("")}
	vs := NewVectorStore(&failingIndex{err: errBoom}, embedding.NewMockClient(), zap.NewNop())
	mm := NewMemoryManager(vs, llm, 3, zap.NewNop())
	g := NewGraph(llm, mm, testResolver(monday(10, 0)), DefaultTurnSettings(), zap.NewNop())

	state := domain.NewConversationState("s")
	state.MemoryContext = "- stale"

	res, err := g.RunTurn(context.Background(), state, TurnInput{Text: "I live in Oslo"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", res.Reply)
	assert.Equal(t, "", state.MemoryContext)
}

func TestRunTurn_RouterFailureAbortsTurn(t *testing.T) {
	llm := &fakeLLM{routeErr: errBoom}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())

	_, err := g.RunTurn(context.Background(), domain.NewConversationState("s"), TurnInput{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrCollaboratorFailure)
	assert.ErrorIs(t, err, errBoom)
	assert.NotContains(t, llm.calls, "respond")
}

func TestRunTurn_RespondFailureAbortsTurn(t *testing.T) {
	llm := &fakeLLM{respondErr: errBoom}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())

	_, err := g.RunTurn(context.Background(), domain.NewConversationState("s"), TurnInput{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrCollaboratorFailure)
}

func TestRunTurn_SummarizesAndCompacts(t *testing.T) {
	llm := &fakeLLM{summary: "they talked about the weather"}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), TurnSettings{
		RouterMessagesToAnalyze: 3,
		SummaryTrigger:          4,
		MessagesAfterSummary:    2,
	})
	state := domain.NewConversationState("s")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := g.RunTurn(ctx, state, TurnInput{Text: "turn"})
		require.NoError(t, err)
		assert.False(t, res.Summarized)
	}
	require.Len(t, state.Messages, 4)

	res, err := g.RunTurn(ctx, state, TurnInput{Text: "the third turn"})
	require.NoError(t, err)
	assert.True(t, res.Summarized)
	assert.Contains(t, res.Visited, NodeSummarize)
	assert.Equal(t, NodeEnd, res.Visited[len(res.Visited)-1])

	assert.Equal(t, []int{6}, llm.summarizeArgs)
	assert.Equal(t, "they talked about the weather", state.Summary)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "the third turn", state.Messages[0].Content)
	assert.Equal(t, domain.RoleAI, state.Messages[1].Role)
	assert.Equal(t, "s", state.SessionID)
}

func TestRunTurn_AudioWorkflow(t *testing.T) {
	llm := &fakeLLM{route: domain.WorkflowAudio, respond: "here's a voice note"}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	synth := &fakeSynthesizer{}
	g.SetSpeech(&fakeTranscriber{text: "send me a voice note"}, synth)

	state := domain.NewConversationState("s")
	res, err := g.RunTurn(context.Background(), state, TurnInput{Audio: []byte("wav")})
	require.NoError(t, err)

	assert.Equal(t, "send me a voice note", state.Messages[0].Content)
	assert.Equal(t, NodeAudio, res.Visited[4])
	assert.Equal(t, []string{"here's a voice note"}, synth.spoken)
	assert.Equal(t, []byte("mp3:here's a voice note"), res.AudioBuffer)

	// artifacts do not leak into the next turn
	llm.route = domain.WorkflowConversation
	res, err = g.RunTurn(context.Background(), state, TurnInput{Text: "thanks"})
	require.NoError(t, err)
	assert.Nil(t, res.AudioBuffer)
	assert.Nil(t, state.AudioBuffer)
}

func TestRunTurn_AudioWithoutSynthesizer(t *testing.T) {
	llm := &fakeLLM{route: domain.WorkflowAudio}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())

	_, err := g.RunTurn(context.Background(), domain.NewConversationState("s"), TurnInput{Text: "say it"})
	assert.ErrorIs(t, err, domain.ErrCollaboratorFailure)
	assert.ErrorIs(t, err, ErrMediaUnavailable)
}

func TestRunTurn_ImageWorkflow(t *testing.T) {
	llm := &fakeLLM{
		route:    domain.WorkflowImage,
		scenario: &domain.Scenario{Narrative: "Here's the view from my balcony", ImagePrompt: "city skyline at dusk"},
	}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	gen := &fakeImageGen{}
	dir := t.TempDir()
	g.SetVision(&fakeCaptioner{}, gen, dir)

	state := domain.NewConversationState("s")
	res, err := g.RunTurn(context.Background(), state, TurnInput{Text: "show me where you are"})
	require.NoError(t, err)

	assert.Equal(t, "Here's the view from my balcony", res.Reply)
	assert.Equal(t, []string{"city skyline at dusk, photorealistic"}, gen.prompts)
	require.NotEmpty(t, res.ImagePath)
	assert.True(t, strings.HasPrefix(res.ImagePath, dir))

	data, err := os.ReadFile(res.ImagePath)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, res.ImagePath, state.ImagePath)
}

func TestRunTurn_ImageInputIsCaptioned(t *testing.T) {
	llm := &fakeLLM{}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	g.SetVision(&fakeCaptioner{caption: "a cat on a sofa"}, &fakeImageGen{}, t.TempDir())

	state := domain.NewConversationState("s")
	_, err := g.RunTurn(context.Background(), state, TurnInput{Text: "look at this", Image: []byte("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "look at this\n[Image Analysis: a cat on a sofa]", state.Messages[0].Content)
}

func TestRunTurn_CaptionFailureKeepsText(t *testing.T) {
	llm := &fakeLLM{}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	g.SetVision(&fakeCaptioner{err: errBoom}, &fakeImageGen{}, t.TempDir())

	state := domain.NewConversationState("s")
	_, err := g.RunTurn(context.Background(), state, TurnInput{Text: "look", Image: []byte("jpg")})
	require.NoError(t, err)
	assert.Equal(t, "look", state.Messages[0].Content)
}

func TestRunTurn_EmptyInput(t *testing.T) {
	llm := &fakeLLM{}
	g, _ := newTestGraph(llm, embedding.NewMockClient(), DefaultTurnSettings())
	state := domain.NewConversationState("s")

	_, err := g.RunTurn(context.Background(), state, TurnInput{Text: "   "})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorIs(t, err, ErrEmptyTurn)
	assert.Empty(t, state.Messages)
	assert.Empty(t, llm.calls)
}
