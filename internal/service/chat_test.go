package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"flatmate/internal/config"
	"flatmate/internal/model"
	"flatmate/internal/repository"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	svc  *ChatService
	repo *repository.MemoryRepository
	llm  *fakeLLM
	hook *test.Hook
}

func newChatFixture(t *testing.T, llm *fakeLLM) *chatFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	for _, l := range []model.Listing{
		{Title: "Sunny Altbau", Location: "Berlin Prenzlauer Berg", Price: 1150, Bedrooms: 2, Bathrooms: 1, Size: intPtr(68),
			NearestTransport: strPtr("U2 Eberswalder Str."), TransportDistance: strPtr("4 min walk")},
		{Title: "Studio Mitte", Location: "Berlin Mitte", Price: 950, Bedrooms: 1, Bathrooms: 1},
		{Title: "Family Home", Location: "Berlin Pankow", Price: 1190, Bedrooms: 3, Bathrooms: 2},
		{Title: "Harbour View", Location: "Hamburg", Price: 1100, Bedrooms: 2, Bathrooms: 1},
	} {
		l := l
		require.NoError(t, repo.CreateListing(context.Background(), &l))
	}

	svc := NewChatService(
		repo, repo,
		NewIntentClassifier(config.DefaultSearchKeywords),
		NewParameterExtractor(llm, 0, log),
		NewRanker(0.7, 0.3),
		llm,
		5,
		log,
	)
	return &chatFixture{svc: svc, repo: repo, llm: llm, hook: hook}
}

func (f *chatFixture) messages(t *testing.T, conversationID int64) []model.Message {
	t.Helper()
	msgs, err := f.repo.ListMessages(context.Background(), conversationID)
	require.NoError(t, err)
	return msgs
}

func TestHandleChatTurn_EmptyMessage(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true})

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.HandleChatTurn(context.Background(), 1, msg, nil)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}

	convs, err := f.repo.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestHandleChatTurn_NewConversation(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "Happy to help!"})

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "What should I check before signing a lease agreement?", nil)
	require.NoError(t, err)

	assert.Equal(t, "What should I check before sig...", result.Conversation.Title)
	assert.Equal(t, int64(1), result.Conversation.UserID)
	assert.Equal(t, "Happy to help!", result.Message.Content)
	assert.Equal(t, model.RoleAssistant, result.Message.Role)
	assert.False(t, result.Degraded)
	assert.Nil(t, result.Listings)

	msgs := f.messages(t, result.Conversation.ID)
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "FlatMate AI")
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, model.RoleAssistant, msgs[2].Role)

	// the model sees the system prompt and the new user message
	require.Len(t, f.llm.lastHistory, 2)
	assert.Equal(t, model.RoleSystem, f.llm.lastHistory[0].Role)
	assert.Equal(t, "What should I check before signing a lease agreement?", f.llm.lastHistory[1].Content)
}

func TestHandleChatTurn_ShortTitleIsNotTruncated(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "Hi!"})

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "  Hello there  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", result.Conversation.Title)
}

func TestHandleChatTurn_ForeignConversation(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "ok"})
	ctx := context.Background()

	owned, err := f.svc.HandleChatTurn(ctx, 1, "hello", nil)
	require.NoError(t, err)
	before := f.messages(t, owned.Conversation.ID)

	id := owned.Conversation.ID
	_, err = f.svc.HandleChatTurn(ctx, 2, "hello again", &id)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	missing := int64(999)
	_, err = f.svc.HandleChatTurn(ctx, 1, "hello again", &missing)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	assert.Equal(t, before, f.messages(t, id))
	convs, err := f.repo.ListConversations(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestHandleChatTurn_ZeroIDStartsConversation(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "ok"})

	zero := int64(0)
	result, err := f.svc.HandleChatTurn(context.Background(), 1, "hello", &zero)
	require.NoError(t, err)
	assert.NotZero(t, result.Conversation.ID)
}

func TestHandleChatTurn_LLMFailureFallsBack(t *testing.T) {
	llm := &fakeLLM{enabled: true, reply: "first answer"}
	f := newChatFixture(t, llm)
	ctx := context.Background()

	first, err := f.svc.HandleChatTurn(ctx, 1, "hello", nil)
	require.NoError(t, err)
	id := first.Conversation.ID
	before := len(f.messages(t, id))

	llm.err = &ExternalServiceError{Service: "openai", Op: "complete", Err: errors.New("503 service unavailable")}
	result, err := f.svc.HandleChatTurn(ctx, 1, "Can I schedule a viewing on Saturday?", &id)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.True(t, strings.HasPrefix(result.Message.Content, offlinePrefix))
	assert.Contains(t, result.Message.Content, "schedule a viewing")

	msgs := f.messages(t, id)
	require.Len(t, msgs, before+2)
	assert.Equal(t, model.RoleUser, msgs[before].Role)
	assert.Equal(t, model.RoleAssistant, msgs[before+1].Role)

	require.NotNil(t, f.hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, f.hook.LastEntry().Level)
}

func TestHandleChatTurn_LLMDisabled(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: false})

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "hi", nil)
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, offlinePrefix+"Hello! How can I help with your housing search today?", result.Message.Content)
	assert.Zero(t, f.llm.completeCalls)
}

var errStoreDown = errors.New("db down")

// brokenHistoryStore fails every history read
type brokenHistoryStore struct {
	*repository.MemoryRepository
}

func (s brokenHistoryStore) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	return nil, errStoreDown
}

// brokenListingStore fails every listing query
type brokenListingStore struct {
	*repository.MemoryRepository
}

func (s brokenListingStore) ListListings(ctx context.Context, filters *model.SearchFilters) ([]model.Listing, error) {
	return nil, errStoreDown
}

func TestHandleChatTurn_StoreFailurePropagates(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		newStore func(repo *repository.MemoryRepository) (repository.ConversationStore, repository.ListingStore)
	}{
		{
			name:    "history read",
			message: "hello there",
			newStore: func(repo *repository.MemoryRepository) (repository.ConversationStore, repository.ListingStore) {
				return brokenHistoryStore{repo}, repo
			},
		},
		{
			name:    "listing query",
			message: "find an apartment in Berlin",
			newStore: func(repo *repository.MemoryRepository) (repository.ConversationStore, repository.ListingStore) {
				return repo, brokenListingStore{repo}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{enabled: true, reply: "should not be used"}
			log, _ := test.NewNullLogger()
			conversations, listings := tt.newStore(repository.NewMemoryRepository())

			svc := NewChatService(
				conversations, listings,
				NewIntentClassifier(config.DefaultSearchKeywords),
				NewParameterExtractor(llm, 0, log),
				NewRanker(0.7, 0.3),
				llm,
				5,
				log,
			)

			result, err := svc.HandleChatTurn(context.Background(), 1, tt.message, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, errStoreDown)
			assert.Nil(t, result)
			assert.Zero(t, llm.completeCalls)
		})
	}
}

func TestHandleChatTurn_EmptyLLMReply(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "  "})

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "tell me a joke", nil)
	require.NoError(t, err)
	assert.Equal(t, "I'm not sure how to respond to that.", result.Message.Content)
	assert.False(t, result.Degraded)
}

func TestHandleChatTurn_Search(t *testing.T) {
	llm := &fakeLLM{enabled: true, jsonReply: `{"location": "Berlin", "maxPrice": 1200, "bedrooms": 2}`}
	f := newChatFixture(t, llm)

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "Find me a 2-bedroom apartment in Berlin under €1200", nil)
	require.NoError(t, err)

	require.NotNil(t, result.Filters)
	assert.Equal(t, "Berlin", *result.Filters.Location)
	assert.Equal(t, 1200.0, *result.Filters.MaxPrice)
	assert.Equal(t, 2, *result.Filters.Bedrooms)
	assert.False(t, result.Degraded)

	require.Len(t, result.Listings, 2)
	for _, m := range result.Listings {
		assert.Contains(t, m.Location, "Berlin")
		assert.LessOrEqual(t, m.Price, 1200.0)
		assert.GreaterOrEqual(t, m.Bedrooms, 2)
	}

	content := result.Message.Content
	assert.True(t, strings.HasPrefix(content, "I found 2 properties matching your criteria:"))
	assert.Contains(t, content, "- **Sunny Altbau** in Berlin Prenzlauer Berg")
	assert.Contains(t, content, "2 bedroom, 1 bathroom, 68m²")
	assert.Contains(t, content, "€1150/month")
	assert.Contains(t, content, "4 min walk to U2 Eberswalder Str.")
	assert.Contains(t, content, "size not specified")
	assert.Contains(t, content, "Would you like to schedule a viewing")
	assert.NotContains(t, content, "Harbour View")
	assert.Zero(t, llm.completeCalls)
}

func TestHandleChatTurn_SearchWithFallbackExtraction(t *testing.T) {
	llm := &fakeLLM{enabled: true, jsonErr: errors.New("timeout")}
	f := newChatFixture(t, llm)

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "Find me a 2-bedroom apartment in Berlin under €1200", nil)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Equal(t, &model.SearchFilters{Location: strPtr("Berlin"), MaxPrice: float64Ptr(1200), Bedrooms: intPtr(2)}, result.Filters)
	assert.Len(t, result.Listings, 2)
}

func TestHandleChatTurn_SearchNoMatches(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, jsonReply: `{"location": "Munich"}`})

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "looking for a flat in Munich", nil)
	require.NoError(t, err)
	assert.Equal(t, noMatchReply, result.Message.Content)
	assert.Nil(t, result.Listings)
}

func TestHandleChatTurn_SearchCapsListings(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, jsonReply: `{}`})
	f.svc.maxListings = 2

	result, err := f.svc.HandleChatTurn(context.Background(), 1, "show me every apartment", nil)
	require.NoError(t, err)
	assert.Len(t, result.Listings, 2)
	assert.True(t, strings.HasPrefix(result.Message.Content, "I found 4 properties matching your criteria. Here are the top 2:"))
}

func TestHandleChatTurn_SerializesSameConversation(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "ok"})
	ctx := context.Background()

	first, err := f.svc.HandleChatTurn(ctx, 1, "hello", nil)
	require.NoError(t, err)
	id := first.Conversation.ID

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.HandleChatTurn(ctx, 1, "tell me more", &id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs := f.messages(t, id)
	require.Len(t, msgs, 3+20)
	// turns never interleave: every user message is directly followed by its reply
	for i := 3; i < len(msgs); i += 2 {
		assert.Equal(t, model.RoleUser, msgs[i].Role)
		assert.Equal(t, model.RoleAssistant, msgs[i+1].Role)
	}
}

func TestChatService_ListMessages(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{enabled: true, reply: "ok"})
	ctx := context.Background()

	result, err := f.svc.HandleChatTurn(ctx, 1, "hello", nil)
	require.NoError(t, err)

	msgs, err := f.svc.ListMessages(ctx, 1, result.Conversation.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)

	_, err = f.svc.ListMessages(ctx, 2, result.Conversation.ID)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	convs, err := f.svc.ListConversations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestFallbackReply(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{message: "Hey!", want: "Hello!"},
		{message: "this is nothing", want: "can't reach my assistant"},
		{message: "what's the price range there?", want: "budget"},
		{message: "Which neighborhood is quiet?", want: "area"},
		{message: "book an appointment", want: "schedule a viewing"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := fallbackReply(tt.message)
			assert.True(t, strings.HasPrefix(got, offlinePrefix))
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	unlock := k.Lock(7)

	done := make(chan struct{})
	go func() {
		release := k.Lock(7)
		release()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second lock acquired while first was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	<-done
	assert.Empty(t, k.locks)
}
