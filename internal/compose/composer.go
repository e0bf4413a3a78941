package compose

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/solemarket/solechat/internal/api"
	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
)

// SendAPI is the slice of the message service the composer depends on.
type SendAPI interface {
	Send(ctx context.Context, req api.SendRequest) (*model.Message, error)
}

// Thread is the slice of the conversation store the composer mutates after
// a confirmed send.
type Thread interface {
	ActivePartner() *model.Partner
	AppendConfirmed(msg *model.Message)
	ReconcileAfterSend(ctx context.Context)
}

const (
	maxTextLen        = 1000
	maxAttachmentSize = 10 * 1024 * 1024
)

// allowedMimes maps each attachment kind to its MIME allow-list.
var allowedMimes = map[model.MessageType][]string{
	model.TypeImage: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	model.TypeVideo: {"video/mp4", "video/webm", "video/ogg"},
	model.TypeAudio: {"audio/mpeg", "audio/wav", "audio/ogg"},
}

// mimeByExt resolves the MIME type from the file extension. A fixed table
// rather than the platform mime database keeps classification deterministic
// across machines; anything outside it is rejected by the allow-lists anyway.
var mimeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
}

// Composer builds and sends outgoing messages. It holds at most one pending
// attachment between selection and send/cancel; text lives in the input
// widget and arrives at Send time, so a failed send leaves both intact.
type Composer struct {
	msgs   SendAPI
	thread Thread
	logger *zap.Logger

	mu         sync.Mutex
	attachment *model.Attachment
}

// New creates a composer bound to the active thread.
func New(msgs SendAPI, thread Thread, logger *zap.Logger) *Composer {
	return &Composer{msgs: msgs, thread: thread, logger: logger}
}

// Attach loads the file at path as a pending attachment of the given kind.
// Size and MIME validation happen here, before anything is held: a rejected
// file never becomes a pending attachment.
func (c *Composer) Attach(kind model.MessageType, path string) error {
	allowed, ok := allowedMimes[kind]
	if !ok {
		return rest.Validation("unsupported attachment kind %q", kind)
	}

	info, err := os.Stat(path)
	if err != nil {
		return rest.Validation("cannot read file: %v", err)
	}
	if info.Size() > maxAttachmentSize {
		return rest.Validation("file size must be less than 10MB")
	}

	mimeType := mimeByExt[strings.ToLower(filepath.Ext(path))]
	if !slices.Contains(allowed, mimeType) {
		return rest.Validation("invalid %s file type", strings.ToLower(string(kind)))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rest.Validation("cannot read file: %v", err)
	}

	c.mu.Lock()
	c.attachment = &model.Attachment{
		Kind:     kind,
		FileName: filepath.Base(path),
		MimeType: mimeType,
		Size:     info.Size(),
		DataURI:  "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
	c.mu.Unlock()
	return nil
}

// Attachment returns the pending attachment, or nil.
func (c *Composer) Attachment() *model.Attachment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attachment == nil {
		return nil
	}
	a := *c.attachment
	return &a
}

// ClearAttachment drops the pending attachment. Idempotent.
func (c *Composer) ClearAttachment() {
	c.mu.Lock()
	c.attachment = nil
	c.mu.Unlock()
}

// Send validates and posts a message with the given text and the pending
// attachment, if any. Validation completes before any network call; a
// violation fails fast with an actionable reason and mutates nothing. On
// success the attachment is cleared, the confirmed message is appended to
// the thread as its optimistic tail, and the short-delay reconcile refetch
// is scheduled. On failure the compose state is left intact for retry.
func (c *Composer) Send(ctx context.Context, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	att := c.attachment
	c.mu.Unlock()

	if text == "" && att == nil {
		return nil, rest.Validation("please enter a message or attach a file")
	}
	// The limit is characters, not bytes: multibyte text counts by rune.
	if utf8.RuneCountInString(text) > maxTextLen {
		return nil, rest.Validation("message is too long (max %d characters)", maxTextLen)
	}
	partner := c.thread.ActivePartner()
	if partner == nil {
		return nil, rest.Validation("please select a conversation")
	}

	req := api.SendRequest{
		ReceiverID: partner.ID,
		Content:    text,
	}
	if att != nil {
		// The content-or-media invariant must hold even for attachment-only
		// sends: default the content to a placeholder derived from the kind.
		if req.Content == "" {
			req.Content = "Sent a " + strings.ToLower(string(att.Kind))
		}
		req.MessageType = att.Kind
		req.MediaURL = att.DataURI
		req.MediaFileName = att.FileName
		req.MediaMimeType = att.MimeType
		req.MediaSize = att.Size
	}

	msg, err := c.msgs.Send(ctx, req)
	if err != nil {
		return nil, err
	}

	c.ClearAttachment()
	c.thread.AppendConfirmed(msg)
	c.thread.ReconcileAfterSend(ctx)

	if c.logger != nil {
		c.logger.Info("message sent",
			zap.Int64("message_id", msg.ID),
			zap.Int64("receiver_id", partner.ID),
			zap.String("type", string(msg.MessageType)))
	}
	return msg, nil
}
