package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"flatmate/internal/model"
	"flatmate/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyMessage is returned for blank chat messages
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrConversationNotFound is returned when a conversation is missing or owned by someone else
	ErrConversationNotFound = errors.New("conversation not found")
)

const (
	systemPrompt = "You are FlatMate AI, a helpful assistant specializing in housing search. " +
		"You can help users find rental properties, understand leases, and schedule viewings. " +
		"When a user asks for a property search, you should extract their preferences " +
		"(location, budget, bedrooms, etc.) and respond with suitable matches."

	emptyReply   = "I'm not sure how to respond to that."
	noMatchReply = "I couldn't find any properties matching your exact criteria. " +
		"Would you like to try a broader search or different parameters?"

	offlinePrefix = "[Offline mode] "
	titleLength   = 30
)

var greetingPattern = regexp.MustCompile(`(?i)\b(hello|hi|hey)\b`)

// ChatService runs chat turns: it stores messages, answers property searches
// from the listing store and hands everything else to the language model.
type ChatService struct {
	conversations repository.ConversationStore
	listings      repository.ListingStore
	classifier    *IntentClassifier
	extractor     *ParameterExtractor
	ranker        *Ranker
	llm           LLMClient
	maxListings   int
	locks         *keyedMutex
	log           logrus.FieldLogger
}

// NewChatService creates a chat service. maxListings caps how many matches a reply enumerates.
func NewChatService(
	conversations repository.ConversationStore,
	listings repository.ListingStore,
	classifier *IntentClassifier,
	extractor *ParameterExtractor,
	ranker *Ranker,
	llm LLMClient,
	maxListings int,
	log logrus.FieldLogger,
) *ChatService {
	if maxListings <= 0 {
		maxListings = 5
	}
	return &ChatService{
		conversations: conversations,
		listings:      listings,
		classifier:    classifier,
		extractor:     extractor,
		ranker:        ranker,
		llm:           llm,
		maxListings:   maxListings,
		locks:         newKeyedMutex(),
		log:           log,
	}
}

// HandleChatTurn processes one user message. A nil or non-positive conversationID starts a new conversation.
func (s *ChatService) HandleChatTurn(ctx context.Context, userID int64, message string, conversationID *int64) (*model.ChatTurnResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	var conv *model.Conversation
	if conversationID != nil && *conversationID > 0 {
		unlock := s.locks.Lock(*conversationID)
		defer unlock()

		var err error
		conv, err = s.ownedConversation(ctx, userID, *conversationID)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		conv, err = s.startConversation(ctx, userID, message)
		if err != nil {
			return nil, err
		}
	}

	log := s.log.WithFields(logrus.Fields{"user_id": userID, "conversation_id": conv.ID})

	if _, err := s.conversations.CreateMessage(ctx, conv.ID, model.RoleUser, message); err != nil {
		return nil, fmt.Errorf("failed to save user message: %w", err)
	}

	result := &model.ChatTurnResult{}
	var reply string

	if s.classifier.IsSearchRequest(message) {
		filters, fellBack := s.extractor.Extract(ctx, message)
		found, err := s.listings.ListListings(ctx, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to search listings: %w", err)
		}

		matches := s.ranker.Rank(found, filters)
		if len(matches) > s.maxListings {
			matches = matches[:s.maxListings]
		}
		reply = formatSearchReply(len(found), matches)
		result.Filters = filters
		if len(matches) > 0 {
			result.Listings = matches
		}
		result.Degraded = fellBack
		log.WithField("matches", len(found)).Info("Search turn answered")
	} else {
		history, err := s.conversations.ListMessages(ctx, conv.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}

		reply, err = s.generateReply(ctx, history)
		if err != nil {
			log.WithError(err).Warn("LLM reply failed, using fallback reply")
			reply = fallbackReply(message)
			result.Degraded = true
		} else if strings.TrimSpace(reply) == "" {
			reply = emptyReply
		}
	}

	assistantMsg, err := s.conversations.CreateMessage(ctx, conv.ID, model.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	// re-read so updatedAt reflects the new messages
	if fresh, err := s.conversations.GetConversation(ctx, conv.ID); err == nil {
		conv = fresh
	}

	result.Message = assistantMsg
	result.Conversation = conv
	return result, nil
}

// ListConversations returns the user's conversations, most recent first
func (s *ChatService) ListConversations(ctx context.Context, userID int64) ([]model.Conversation, error) {
	return s.conversations.ListConversations(ctx, userID)
}

// ListMessages returns the messages of a conversation owned by userID
func (s *ChatService) ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	if _, err := s.ownedConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.conversations.ListMessages(ctx, conversationID)
}

func (s *ChatService) ownedConversation(ctx context.Context, userID, conversationID int64) (*model.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv.UserID != userID {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ChatService) startConversation(ctx context.Context, userID int64, firstMessage string) (*model.Conversation, error) {
	conv, err := s.conversations.CreateConversation(ctx, userID, conversationTitle(firstMessage))
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	if _, err := s.conversations.CreateMessage(ctx, conv.ID, model.RoleSystem, systemPrompt); err != nil {
		return nil, fmt.Errorf("failed to save system message: %w", err)
	}
	return conv, nil
}

// generateReply sends the whole stored history, including the new user message, to the model.
// Every error it returns is an LLM failure.
func (s *ChatService) generateReply(ctx context.Context, history []model.Message) (string, error) {
	if s.llm == nil || !s.llm.IsEnabled() {
		return "", &ExternalServiceError{Service: llmService, Op: "complete", Err: ErrLLMDisabled}
	}

	messages := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return s.llm.Complete(ctx, messages)
}

func conversationTitle(message string) string {
	if utf8.RuneCountInString(message) <= titleLength {
		return message
	}
	return string([]rune(message)[:titleLength]) + "..."
}

func formatSearchReply(total int, matches []model.ListingMatch) string {
	if len(matches) == 0 {
		return noMatchReply
	}

	var b strings.Builder
	if total > len(matches) {
		fmt.Fprintf(&b, "I found %d properties matching your criteria. Here are the top %d:\n\n", total, len(matches))
	} else {
		fmt.Fprintf(&b, "I found %d properties matching your criteria:\n\n", total)
	}

	for i, m := range matches {
		if i > 0 {
			b.WriteString("\n\n")
		}
		size := "size not specified"
		if m.Size != nil {
			size = fmt.Sprintf("%dm²", *m.Size)
		}
		fmt.Fprintf(&b, "- **%s** in %s\n  %d bedroom, %d bathroom, %s\n  €%s/month",
			m.Title, m.Location, m.Bedrooms, m.Bathrooms, size, strconv.FormatFloat(m.Price, 'f', -1, 64))
		if m.NearestTransport != nil {
			if m.TransportDistance != nil {
				fmt.Fprintf(&b, "\n  %s to %s", *m.TransportDistance, *m.NearestTransport)
			} else {
				fmt.Fprintf(&b, "\n  near %s", *m.NearestTransport)
			}
		}
	}

	b.WriteString("\n\nWould you like to schedule a viewing for any of these properties? Or should I refine the search?")
	return b.String()
}

// fallbackReply picks a canned answer by keyword when the language model is unavailable
func fallbackReply(message string) string {
	lower := strings.ToLower(message)
	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	var reply string
	switch {
	case greetingPattern.MatchString(message):
		reply = "Hello! How can I help with your housing search today?"
	case containsAny("apartment", "house"):
		reply = "I'd be happy to help you find a suitable place! Could you tell me your preferred location, budget, and how many bedrooms you need?"
	case containsAny("budget", "price"):
		reply = "Thanks for sharing your budget. Tell me the area and number of bedrooms you need and I'll search for properties in your price range."
	case containsAny("location", "area", "neighborhood"):
		reply = "Good choice of area! Let me know your budget and how many bedrooms you need so I can look for options there."
	case containsAny("schedule", "appointment", "viewing"):
		reply = "I can help schedule a viewing. Pick a listing and a time that suits you and I'll book it with the property manager."
	default:
		reply = "I can't reach my assistant service right now, but I can still search listings for you. Tell me the location, budget, and number of bedrooms you're looking for."
	}
	return offlinePrefix + reply
}
