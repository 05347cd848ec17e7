package afk

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/shizuku-bot/internal/messages"
	"github.com/ytget/shizuku-bot/internal/model"
)

// ErrInvalidUser indicates an event without a usable sender or target
var ErrInvalidUser = errors.New("invalid user")

// Service implements the AFK commands on top of a Repository
type Service struct {
	repo  Repository
	texts *messages.Localization
	log   logrus.FieldLogger
	now   func() time.Time
	quote func() string
}

// NewService creates a new AFK service
func NewService(repo Repository, texts *messages.Localization, log logrus.FieldLogger) *Service {
	return &Service{
		repo:  repo,
		texts: texts,
		log:   log,
		now:   time.Now,
		quote: randomQuote,
	}
}

// GoAway marks the user as away and returns the confirmation text. A
// previous record of the user is replaced.
func (s *Service) GoAway(ctx context.Context, userID int64, name, reason string) (string, error) {
	if userID <= 0 {
		return "", ErrInvalidUser
	}

	reason = strings.TrimSpace(reason)
	rec := &model.AFKRecord{UserID: userID, Since: s.now(), Reason: reason}
	if err := s.repo.Set(ctx, rec); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "reason": reason}).Info("User is AFK")

	detail := s.quote()
	if rec.HasReason() {
		detail = s.texts.Format(messages.KeyAFKReason, reason)
	}
	return s.texts.Format(messages.KeyAFKSet, name, detail), nil
}

// ComeBack clears the record of a returning user. It returns the welcome
// back text and true when the user was away.
func (s *Service) ComeBack(ctx context.Context, userID int64, name string) (string, bool, error) {
	if userID <= 0 {
		return "", false, ErrInvalidUser
	}

	rec, err := s.repo.Get(ctx, userID)
	if err != nil || rec == nil {
		return "", false, err
	}
	if _, err := s.repo.Remove(ctx, userID); err != nil {
		return "", false, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"away":          s.now().Sub(rec.Since).Round(time.Second),
		"msg_count":     rec.MsgCount,
		"sticker_count": rec.StickerCount,
	}).Info("User is back")

	return s.texts.Format(messages.KeyAFKBack, name, rec.GetAwayString(s.now()), s.reasonOf(rec)), true, nil
}

// Mentioned handles a reply addressed to target. When target is away it
// counts the message and returns the AFK notice and true.
func (s *Service) Mentioned(ctx context.Context, targetID int64, targetName string, sticker bool) (string, bool, error) {
	if targetID <= 0 {
		return "", false, ErrInvalidUser
	}

	rec, err := s.repo.Get(ctx, targetID)
	if err != nil || rec == nil {
		return "", false, err
	}
	if err := s.repo.IncrementCount(ctx, targetID, sticker); err != nil {
		return "", false, err
	}

	return s.texts.Format(messages.KeyAFKNotice, targetName, rec.GetAwayString(s.now()), s.reasonOf(rec)), true, nil
}

func (s *Service) reasonOf(rec *model.AFKRecord) string {
	if rec.HasReason() {
		return rec.Reason
	}
	return s.quote()
}

func randomQuote() string {
	return messages.Quotes[rand.IntN(len(messages.Quotes))]
}
