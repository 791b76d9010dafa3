package engine

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/inbox-sentry/internal/llm"
	"github.com/xaenox/inbox-sentry/internal/mail"
	"github.com/xaenox/inbox-sentry/internal/models"
	"github.com/xaenox/inbox-sentry/internal/notify"
	"github.com/xaenox/inbox-sentry/internal/store"
)

// Engine is the conversational core: one inbound message plus the sender's
// stored context resolves to a context mutation, an outbound model call, or
// an outbound email send, always followed by exactly one final reply.
//
// The per-user state machine is implicit in the context:
//
//	no focus            -> the user is asked to pick a slot
//	focus, no draft     -> free text is classified and dispatched
//	focus with draft    -> same, but SEND and CANCEL now have something to act on
type Engine struct {
	store      store.ContextStore
	locker     *store.UserLocker
	classifier llm.Classifier
	assistant  llm.Assistant
	sender     mail.Sender
	notifier   notify.Notifier
	logger     *zap.Logger
}

func New(cs store.ContextStore, locker *store.UserLocker, classifier llm.Classifier,
	assistant llm.Assistant, sender mail.Sender, notifier notify.Notifier,
	logger *zap.Logger) *Engine {
	return &Engine{
		store:      cs,
		locker:     locker,
		classifier: classifier,
		assistant:  assistant,
		sender:     sender,
		notifier:   notifier,
		logger:     logger,
	}
}

// HandleMessage runs one conversation turn. It never returns an error: every
// branch ends in a reply (or a logged best-effort attempt at one), so the
// webhook transport can always acknowledge delivery.
func (e *Engine) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	identity := models.NormalizeIdentity(msg.Sender)
	text := strings.TrimSpace(msg.Text)
	if identity == "" || text == "" {
		return
	}

	// One turn in flight per identity; concurrent turns for the same user
	// would race on load-mutate-save.
	unlock := e.locker.Lock(identity)
	defer unlock()

	logger := e.logger.With(zap.String("user", identity))
	logger.Info("incoming message", zap.String("text", text))

	uc, err := e.store.Load(ctx, identity)
	if err != nil {
		logger.Error("failed to load context", zap.Error(err))
		e.reply(ctx, identity, replyInternalError)
		return
	}
	uc.Normalize()

	// Bare integer means slot selection, from any state.
	if slot, ok := parseSelection(text); ok {
		e.handleSelection(ctx, logger, identity, uc, slot)
		return
	}

	if uc.Active() == nil {
		// Nothing focused; free text has no target yet. No mutation, but the
		// write-back stays uniform with every other branch.
		e.persist(ctx, logger, identity, uc)
		e.reply(ctx, identity, replySelectFirst)
		return
	}

	intent := e.classifier.ClassifyIntent(ctx, text)
	logger.Info("classified intent", zap.String("intent", string(intent)))

	switch intent {
	case models.IntentCancel:
		e.handleCancel(ctx, logger, identity, uc)
	case models.IntentDraft:
		e.handleDraft(ctx, logger, identity, uc, text)
	case models.IntentSend:
		e.handleSend(ctx, logger, identity, uc)
	default:
		e.handleQuestion(ctx, logger, identity, uc, text)
	}
}

// parseSelection accepts only a bare positive integer.
func parseSelection(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (e *Engine) handleSelection(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext, slot int) {
	item, ok := uc.Slots[slot]
	if !ok {
		e.persist(ctx, logger, identity, uc)
		e.reply(ctx, identity, formatNotFound(slot))
		return
	}

	uc.Focus(slot)
	e.persist(ctx, logger, identity, uc)
	e.reply(ctx, identity, formatFocused(slot, item))
}

func (e *Engine) handleCancel(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext) {
	uc.ClearDraft()
	e.persist(ctx, logger, identity, uc)
	e.reply(ctx, identity, replyCancelled)
}

func (e *Engine) handleDraft(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext, instruction string) {
	// Drafting is slow; acknowledge first so the user is not left staring at
	// a silent chat. This turn intentionally sends two messages.
	e.reply(ctx, identity, replyDrafting)

	item := uc.Active()
	draft, err := e.assistant.DraftReply(ctx, item.OriginalBody, instruction)
	if err != nil {
		logger.Error("failed to draft reply", zap.Error(err))
		e.persist(ctx, logger, identity, uc)
		e.reply(ctx, identity, replyDraftFailed)
		return
	}

	uc.PendingDraft = draft
	e.persist(ctx, logger, identity, uc)
	e.reply(ctx, identity, formatDraft(draft))
}

func (e *Engine) handleSend(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext) {
	if uc.PendingDraft == "" {
		e.persist(ctx, logger, identity, uc)
		e.reply(ctx, identity, replyNothingDrafted)
		return
	}

	item := uc.Active()
	out := mail.Outgoing{
		To:        extractAddress(item.From),
		Subject:   replySubject(item.Subject),
		Body:      uc.PendingDraft,
		ThreadID:  item.ThreadID,
		InReplyTo: item.InternetMessageID,
	}

	deliveryID, err := e.sender.Send(ctx, out)
	if err != nil || deliveryID == "" {
		logger.Error("failed to send email",
			zap.Error(err),
			zap.String("to", out.To))
		// Draft survives so the user can retry with another SEND.
		e.persist(ctx, logger, identity, uc)
		e.reply(ctx, identity, replySendFailed)
		return
	}

	uc.ClearDraft()
	e.persist(ctx, logger, identity, uc)
	e.reply(ctx, identity, formatSent(deliveryID))
}

func (e *Engine) handleQuestion(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext, question string) {
	item := uc.Active()
	answer, err := e.assistant.AnswerQuestion(ctx, item.OriginalBody, question)
	if err != nil {
		logger.Error("failed to answer question", zap.Error(err))
		answer = replyAnswerFailed
	}

	e.persist(ctx, logger, identity, uc)
	e.reply(ctx, identity, "🤖 "+answer)
}

// extractAddress pulls the address out of "Name <addr>"; a bare address
// passes through untouched.
func extractAddress(from string) string {
	if open := strings.Index(from, "<"); open >= 0 {
		if end := strings.Index(from[open:], ">"); end > 0 {
			return from[open+1 : open+end]
		}
	}
	return from
}

func replySubject(subject string) string {
	if subject == "" {
		subject = "No Subject"
	}
	return "Re: " + subject
}

// persist writes the context back. A failed save is fatal for this turn's
// consistency but must not swallow the reply, so it only logs.
func (e *Engine) persist(ctx context.Context, logger *zap.Logger, identity string,
	uc *models.UserContext) {
	if err := e.store.Save(ctx, identity, uc); err != nil {
		logger.Error("failed to persist context, turn state may be inconsistent",
			zap.Error(err),
			zap.Bool("turn_inconsistent", true))
	}
}

// reply is best-effort delivery of the outbound message.
func (e *Engine) reply(ctx context.Context, identity, text string) {
	if err := e.notifier.Notify(ctx, identity, text); err != nil {
		e.logger.Error("failed to deliver reply",
			zap.Error(err),
			zap.String("user", identity))
	}
}
