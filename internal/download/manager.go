package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/ytget/shizuku-bot/internal/messages"
	"github.com/ytget/shizuku-bot/internal/model"
	"github.com/ytget/shizuku-bot/internal/session"
)

// Defaults for Options
const (
	DefaultMaxParallel   = 2
	DefaultLookupTimeout = 60 * time.Second
	DefaultFetchTimeout  = 30 * time.Minute

	maxIDAttempts  = 5
	progressBuffer = 64
)

// Options tunes the Manager
type Options struct {
	MaxParallel   int           // concurrent fetches; extra downloads wait for a slot
	LookupTimeout time.Duration // bound on one format enumeration
	FetchTimeout  time.Duration // bound on one fetch
}

// Manager drives download sessions from link detection to file delivery
type Manager struct {
	registry   *session.Registry
	transport  Transport
	enumerator FormatEnumerator
	fetcher    Fetcher
	texts      *messages.Localization
	log        logrus.FieldLogger

	cursors       *progressCursors
	slots         *semaphore.Weighted
	lookupTimeout time.Duration
	fetchTimeout  time.Duration
	newID         func() string
}

// NewManager creates a new download session manager
func NewManager(
	registry *session.Registry,
	transport Transport,
	enumerator FormatEnumerator,
	fetcher Fetcher,
	texts *messages.Localization,
	log logrus.FieldLogger,
	opts Options,
) *Manager {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}

	return &Manager{
		registry:      registry,
		transport:     transport,
		enumerator:    enumerator,
		fetcher:       fetcher,
		texts:         texts,
		log:           log,
		cursors:       newProgressCursors(),
		slots:         semaphore.NewWeighted(int64(opts.MaxParallel)),
		lookupTimeout: opts.LookupTimeout,
		fetchTimeout:  opts.FetchTimeout,
		newID:         generateSessionID,
	}
}

// BeginSession opens a session for the link and replies with the media type menu
func (m *Manager) BeginSession(ctx context.Context, link LinkMessage) (string, error) {
	sourceURL := strings.TrimSpace(link.Text)

	var s *model.Session
	for attempt := 0; ; attempt++ {
		s = model.NewSession(m.newID(), sourceURL, link.ChatID)
		err := m.registry.Insert(s)
		if err == nil {
			break
		}
		if !errors.Is(err, session.ErrDuplicate) || attempt+1 >= maxIDAttempts {
			return "", fmt.Errorf("failed to register session: %w", err)
		}
	}

	rows := [][]Button{
		{button(m.texts.GetText(messages.KeyButtonVideo), TagType, string(model.MediaVideo), s.ID)},
		{button(m.texts.GetText(messages.KeyButtonAudio), TagType, string(model.MediaAudio), s.ID)},
	}
	if _, err := m.transport.SendMenu(ctx, link.ChatID, link.MessageID, m.texts.GetText(messages.KeySelectType), rows); err != nil {
		m.registry.Evict(s.ID)
		return "", fmt.Errorf("failed to send type menu: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"chat_id":    link.ChatID,
		"url":        sourceURL,
	}).Info("Download session started")

	return s.ID, nil
}

// ChooseType records the media kind and shows the container menu
func (m *Manager) ChooseType(ctx context.Context, sessionID string, kind model.MediaKind, msg MessageRef) error {
	if _, err := m.acceptType(sessionID, kind); err != nil {
		return err
	}
	return m.showFormatMenu(ctx, sessionID, kind, msg)
}

// ChooseFormat records the container, looks up the available encodings and
// shows the quality menu. Lookup failures are reported to the chat and end
// the session.
func (m *Manager) ChooseFormat(ctx context.Context, sessionID, container string, msg MessageRef) ([]model.QualityOption, error) {
	s, err := m.acceptFormat(sessionID, container)
	if err != nil {
		return nil, err
	}
	return m.showQualityMenu(ctx, s, msg)
}

// ChooseQuality records the format id, fetches the file with progress edits
// on msg and delivers it. queryID keys the progress cursor. Fetch and
// delivery failures are reported to the chat and end the session.
func (m *Manager) ChooseQuality(ctx context.Context, sessionID, formatID string, msg MessageRef, queryID string) error {
	s, err := m.acceptQuality(sessionID, formatID)
	if err != nil {
		return err
	}
	return m.download(ctx, s, msg, progressKey(queryID, s.ID))
}

// HandleCallback dispatches a button press. Every outcome is turned into
// exactly one answer to the callback query plus, for failures after the
// step was accepted, one chat message; no error escapes to the caller.
func (m *Manager) HandleCallback(ctx context.Context, ev CallbackEvent) {
	p, err := ParsePayload(ev.Payload)
	if err != nil {
		m.reject(ctx, ev, err)
		return
	}

	logger := m.log.WithFields(logrus.Fields{"session_id": p.SessionID, "stage_tag": p.Tag})

	switch p.Tag {
	case TagType:
		kind, err := model.ParseMediaKind(p.Choice)
		if err != nil {
			m.reject(ctx, ev, fmt.Errorf("%w: %v", ErrInvalidPayload, err))
			return
		}
		if _, err := m.acceptType(p.SessionID, kind); err != nil {
			m.reject(ctx, ev, err)
			return
		}
		m.answer(ctx, ev.QueryID, m.texts.Format(messages.KeyKindSelected, capitalize(string(kind))))
		if err := m.showFormatMenu(ctx, p.SessionID, kind, ev.Message); err != nil {
			logger.WithError(err).Warn("Failed to show format menu")
		}

	case TagFormat:
		s, err := m.acceptFormat(p.SessionID, p.Choice)
		if err != nil {
			m.reject(ctx, ev, err)
			return
		}
		m.answer(ctx, ev.QueryID, m.texts.Format(messages.KeyFormatSelected, strings.ToUpper(p.Choice)))
		if _, err := m.showQualityMenu(ctx, s, ev.Message); err != nil {
			logger.WithError(err).Warn("Quality menu not shown")
		}

	case TagDownload:
		s, err := m.acceptQuality(p.SessionID, p.Choice)
		if err != nil {
			m.reject(ctx, ev, err)
			return
		}
		m.answer(ctx, ev.QueryID, m.texts.GetText(messages.KeyStartingDownload))
		if err := m.download(ctx, s, ev.Message, progressKey(ev.QueryID, s.ID)); err != nil {
			logger.WithError(err).Warn("Download not delivered")
		}
	}
}

// acceptType guards and applies the type step
func (m *Manager) acceptType(sessionID string, kind model.MediaKind) (model.Session, error) {
	if _, err := model.ParseMediaKind(string(kind)); err != nil {
		return model.Session{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return m.advance(sessionID, model.StageAwaitingType, func(s *model.Session) {
		s.MediaKind = kind
	})
}

// acceptFormat guards and applies the format step
func (m *Manager) acceptFormat(sessionID, container string) (model.Session, error) {
	current, err := m.registry.Lookup(sessionID)
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	if current.Stage == model.StageAwaitingFormat && !current.MediaKind.SupportsContainer(container) {
		return model.Session{}, fmt.Errorf("%w: container %q is not offered for %s", ErrInvalidPayload, container, current.MediaKind)
	}
	return m.advance(sessionID, model.StageAwaitingFormat, func(s *model.Session) {
		s.Container = container
	})
}

// acceptQuality guards and applies the quality step
func (m *Manager) acceptQuality(sessionID, formatID string) (model.Session, error) {
	if formatID == "" || strings.Contains(formatID, PayloadSeparator) {
		return model.Session{}, fmt.Errorf("%w: bad format id %q", ErrInvalidPayload, formatID)
	}
	return m.advance(sessionID, model.StageAwaitingQuality, func(s *model.Session) {
		s.FormatID = formatID
	})
}

// advance maps registry failures onto the manager's error taxonomy. A
// session that already passed the step is reported as expired; one that
// has not reached it yet is a stage mismatch.
func (m *Manager) advance(sessionID string, from model.Stage, mutate func(*model.Session)) (model.Session, error) {
	s, err := m.registry.Advance(sessionID, from, mutate)
	switch {
	case err == nil:
		m.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"stage":      s.Stage,
		}).Debug("Session advanced")
		return s, nil
	case errors.Is(err, session.ErrNotFound):
		return model.Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	case errors.Is(err, session.ErrStageMismatch):
		if s.Stage.Rank() > from.Rank() {
			return model.Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return model.Session{}, fmt.Errorf("%w: %v", ErrStageMismatch, err)
	default:
		return model.Session{}, err
	}
}

func (m *Manager) showFormatMenu(ctx context.Context, sessionID string, kind model.MediaKind, msg MessageRef) error {
	var rows [][]Button
	for _, container := range kind.Containers() {
		rows = append(rows, []Button{button(strings.ToUpper(container), TagFormat, container, sessionID)})
	}
	if err := m.transport.EditMessage(ctx, msg, m.texts.GetText(messages.KeySelectFormat), rows); err != nil {
		return fmt.Errorf("failed to show format menu: %w", err)
	}
	return nil
}

func (m *Manager) showQualityMenu(ctx context.Context, s model.Session, msg MessageRef) ([]model.QualityOption, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, m.lookupTimeout)
	defer cancel()

	formats, err := m.enumerator.ListFormats(lookupCtx, s.SourceURL)
	if err != nil {
		m.failSession(s.ID)
		m.sendText(ctx, msg, m.texts.GetText(messages.KeyLookupFailed))
		m.log.WithFields(logrus.Fields{"session_id": s.ID}).WithError(err).Error("Format lookup failed")
		return nil, fmt.Errorf("%w: %v", ErrFormatLookupFailed, err)
	}

	options := BuildQualityMenu(formats, s.MediaKind, s.Container)
	if len(options) == 0 {
		m.failSession(s.ID)
		m.sendText(ctx, msg, m.texts.Format(messages.KeyNoFormats, strings.ToUpper(s.Container)))
		m.log.WithFields(logrus.Fields{
			"session_id": s.ID,
			"kind":       s.MediaKind,
			"container":  s.Container,
			"formats":    len(formats),
		}).Warn("No formats matched")
		return nil, fmt.Errorf("%w: %w", ErrFormatLookupFailed, ErrNoFormats)
	}

	rows := make([][]Button, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []Button{button(opt.Label, TagDownload, opt.FormatID, s.ID)})
	}
	if err := m.transport.EditMessage(ctx, msg, m.texts.GetText(messages.KeySelectQuality), rows); err != nil {
		return options, fmt.Errorf("failed to show quality menu: %w", err)
	}
	return options, nil
}

// download runs the fetch for an accepted session, streams progress edits in
// order, and delivers the result
func (m *Manager) download(ctx context.Context, s model.Session, msg MessageRef, key string) error {
	logger := m.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"format_id":  s.FormatID,
		"container":  s.Container,
	})

	if !m.slots.TryAcquire(1) {
		if err := m.transport.EditMessage(ctx, msg, m.texts.GetText(messages.KeyQueued), nil); err != nil {
			logger.WithError(err).Debug("Queue notice edit failed")
		}
		if err := m.slots.Acquire(ctx, 1); err != nil {
			return m.fetchFailed(ctx, s, msg, key, err)
		}
	}
	defer m.slots.Release(1)

	fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	defer cancel()

	// Progress callbacks may come from any goroutine of the fetcher; they
	// are funneled into one channel so edits go out in arrival order.
	events := make(chan model.ProgressEvent, progressBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			m.reportProgress(ctx, msg, key, ev)
		}
	}()

	var mu sync.Mutex
	closed := false
	report := func(ev model.ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			events <- ev
		}
	}

	logger.Info("Fetch started")
	spec := model.NewFetchSpec(&s)
	path, err := m.fetcher.Fetch(fetchCtx, s.SourceURL, spec, report)

	mu.Lock()
	closed = true
	close(events)
	mu.Unlock()
	<-done

	if err != nil {
		return m.fetchFailed(ctx, s, msg, key, err)
	}
	defer func() {
		if err := m.fetcher.Cleanup(path); err != nil {
			logger.WithError(err).Warn("Failed to clean up download")
		}
	}()

	title := ""
	if s.MediaKind == model.MediaAudio {
		title = titleFromPath(path)
	}
	if err := m.transport.SendFile(ctx, s.ChatID, msg.MessageID, path, s.MediaKind, title); err != nil {
		return m.fetchFailed(ctx, s, msg, key, err)
	}

	if _, err := m.registry.Advance(s.ID, model.StageDownloading, nil); err != nil {
		logger.WithError(err).Warn("Session vanished before completion")
	}
	logger.WithField("path", path).Info("Download delivered")
	return nil
}

// reportProgress renders one progress event, throttled by MinProgressDelta
func (m *Manager) reportProgress(ctx context.Context, msg MessageRef, key string, ev model.ProgressEvent) {
	switch ev.Status {
	case model.ProgressDownloading:
		percent := clampPercent(ev.Percent)
		if !m.cursors.advance(key, percent) {
			return
		}
		text := m.texts.Format(messages.KeyDownloading, RenderBar(percent), int(percent))
		if err := m.transport.EditMessage(ctx, msg, text, nil); err != nil {
			m.log.WithField("query", key).WithError(err).Debug("Progress edit failed")
		}

	case model.ProgressFinished:
		if err := m.transport.EditMessage(ctx, msg, m.texts.GetText(messages.KeyDownloadComplete), nil); err != nil {
			m.log.WithField("query", key).WithError(err).Debug("Completion edit failed")
		}
		m.cursors.clear(key)
	}
}

func (m *Manager) fetchFailed(ctx context.Context, s model.Session, msg MessageRef, key string, cause error) error {
	m.cursors.clear(key)
	m.failSession(s.ID)
	m.sendText(ctx, msg, m.texts.Format(messages.KeyFetchError, cause.Error()))
	m.log.WithFields(logrus.Fields{"session_id": s.ID}).WithError(cause).Error("Download failed")
	return fmt.Errorf("%w: %v", ErrFetchFailed, cause)
}

func (m *Manager) failSession(sessionID string) {
	if _, err := m.registry.Fail(sessionID); err != nil {
		m.log.WithField("session_id", sessionID).WithError(err).Debug("Session already gone")
	}
}

// reject answers a callback that was not accepted
func (m *Manager) reject(ctx context.Context, ev CallbackEvent, err error) {
	key := messages.KeyInvalidButton
	switch {
	case errors.Is(err, ErrSessionExpired):
		key = messages.KeyLinkExpired
	case errors.Is(err, ErrStageMismatch):
		key = messages.KeyStageMismatch
	}
	m.log.WithField("payload", ev.Payload).WithError(err).Info("Callback rejected")
	m.answer(ctx, ev.QueryID, m.texts.GetText(key))
}

func (m *Manager) answer(ctx context.Context, queryID, text string) {
	if err := m.transport.AnswerCallback(ctx, queryID, text); err != nil {
		m.log.WithField("query", queryID).WithError(err).Warn("Failed to answer callback")
	}
}

func (m *Manager) sendText(ctx context.Context, msg MessageRef, text string) {
	if err := m.transport.SendText(ctx, msg.ChatID, msg.MessageID, text); err != nil {
		m.log.WithField("chat_id", msg.ChatID).WithError(err).Warn("Failed to send message")
	}
}

// generateSessionID returns the first 8 characters of a random UUID
func generateSessionID() string {
	return uuid.New().String()[:SessionIDLength]
}

func progressKey(queryID, sessionID string) string {
	if queryID != "" {
		return queryID
	}
	return sessionID
}

// titleFromPath returns the file name without directory and extension
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
