package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"joblet/internal/database"
	"joblet/internal/domain"
	"joblet/internal/events"
	"joblet/internal/models"

	"github.com/rs/zerolog"
)

var ErrEmptyMessage = errors.New("message content is empty")

// ChatService binds messaging to bookings. A chat exists only while its
// booking is in_progress and only the two parties may use it.
type ChatService struct {
	repo              domain.Repository
	cache             domain.CacheRepository
	eventBus          domain.EventPublisher
	rateLimitMessages int
	rateLimitWindow   time.Duration
	logger            *zerolog.Logger
}

func NewChatService(repo domain.Repository, cache domain.CacheRepository, eventBus domain.EventPublisher, rateLimitMessages, rateLimitWindowSec int, logger *zerolog.Logger) *ChatService {
	if rateLimitMessages <= 0 {
		rateLimitMessages = models.ChatRateLimitMessages
	}
	if rateLimitWindowSec <= 0 {
		rateLimitWindowSec = models.ChatRateLimitWindow
	}
	return &ChatService{
		repo:              repo,
		cache:             cache,
		eventBus:          eventBus,
		rateLimitMessages: rateLimitMessages,
		rateLimitWindow:   time.Duration(rateLimitWindowSec) * time.Second,
		logger:            logger,
	}
}

// chatAccess resolves the chat and checks the sender is a party. Callers that
// only read history may pass requireActive=false so closed bookings keep
// their transcript readable.
func (s *ChatService) chatAccess(ctx context.Context, bookingID, accountID int64, requireActive bool) (*models.Chat, *models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if !booking.Party(accountID) {
		return nil, nil, database.ErrForbidden
	}
	if requireActive && booking.Status != models.StatusInProgress {
		return nil, nil, database.ErrChatInactive
	}

	chat, err := s.repo.GetChatByBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	return chat, booking, nil
}

func (s *ChatService) SendMessage(ctx context.Context, bookingID, senderID int64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	chat, booking, err := s.chatAccess(ctx, bookingID, senderID, true)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		allowed, err := s.cache.CheckRateLimit(ctx, senderID, s.rateLimitMessages, s.rateLimitWindow)
		if err != nil {
			s.logger.Warn().Err(err).Int64("account_id", senderID).Msg("rate limit check failed, allowing")
		} else if !allowed {
			return nil, database.ErrRateLimited
		}
	}

	message := &models.Message{
		ChatID:      chat.ID,
		SenderID:    senderID,
		RecipientID: booking.OtherParty(senderID),
		Content:     content,
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventChatMessage, message); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("publish chat event error")
		}
	}

	return message, nil
}

func (s *ChatService) GetHistory(ctx context.Context, bookingID, accountID int64, limit, offset int) ([]*models.Message, error) {
	chat, _, err := s.chatAccess(ctx, bookingID, accountID, false)
	if err != nil {
		return nil, err
	}
	return s.repo.GetMessages(ctx, chat.ID, limit, offset)
}

func (s *ChatService) MarkRead(ctx context.Context, bookingID, accountID int64) error {
	chat, _, err := s.chatAccess(ctx, bookingID, accountID, false)
	if err != nil {
		return err
	}
	return s.repo.MarkMessagesRead(ctx, chat.ID, accountID)
}
