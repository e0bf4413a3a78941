package compose

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/solemarket/solechat/internal/api"
	"github.com/solemarket/solechat/internal/model"
	"github.com/solemarket/solechat/internal/rest"
)

type stubSender struct {
	calls atomic.Int32
	last  api.SendRequest
	err   error
}

func (s *stubSender) Send(_ context.Context, req api.SendRequest) (*model.Message, error) {
	s.calls.Add(1)
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &model.Message{
		ID:            101,
		SenderID:      1,
		ReceiverID:    req.ReceiverID,
		Content:       req.Content,
		MessageType:   req.MessageType,
		MediaURL:      req.MediaURL,
		MediaFileName: req.MediaFileName,
	}, nil
}

type stubThread struct {
	active     *model.Partner
	appended   []*model.Message
	reconciles atomic.Int32
}

func (t *stubThread) ActivePartner() *model.Partner        { return t.active }
func (t *stubThread) AppendConfirmed(msg *model.Message)   { t.appended = append(t.appended, msg) }
func (t *stubThread) ReconcileAfterSend(_ context.Context) { t.reconciles.Add(1) }

func activeThread() *stubThread {
	return &stubThread{active: &model.Partner{User: model.User{ID: 2, Username: "sole_trader"}}}
}

func writeTemp(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSendPlainText(t *testing.T) {
	sender := &stubSender{}
	thread := activeThread()
	c := New(sender, thread, nil)

	msg, err := c.Send(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want hello", msg.Content)
	}
	if sender.last.MessageType != "" {
		t.Errorf("MessageType = %q, want empty for plain text", sender.last.MessageType)
	}
	if len(thread.appended) != 1 {
		t.Errorf("appended %d messages, want 1", len(thread.appended))
	}
	if thread.reconciles.Load() != 1 {
		t.Errorf("reconcile scheduled %d times, want 1", thread.reconciles.Load())
	}
}

func TestSendCountsCharactersNotBytes(t *testing.T) {
	sender := &stubSender{}
	thread := activeThread()
	c := New(sender, thread, nil)

	// 600 CJK characters is 1800 bytes but well under the 1000-character cap.
	text := strings.Repeat("靴", 600)
	msg, err := c.Send(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != text {
		t.Errorf("Content = %q, want the original text", msg.Content)
	}
	if n := sender.calls.Load(); n != 1 {
		t.Errorf("send reached the network %d times, want 1", n)
	}
}

func TestSendValidationFailsFast(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		thread *stubThread
	}{
		{"empty without attachment", "   ", activeThread()},
		{"too long", strings.Repeat("x", 1001), activeThread()},
		{"too long multibyte", strings.Repeat("靴", 1001), activeThread()},
		{"no partner selected", "hello", &stubThread{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &stubSender{}
			c := New(sender, tt.thread, nil)

			_, err := c.Send(context.Background(), tt.text)
			if !rest.IsValidation(err) {
				t.Errorf("error = %v, want ValidationError", err)
			}
			if n := sender.calls.Load(); n != 0 {
				t.Errorf("send reached the network %d times, want 0", n)
			}
		})
	}
}

func TestSendFailureLeavesComposeStateIntact(t *testing.T) {
	sender := &stubSender{err: &rest.ServerError{Status: 500}}
	thread := activeThread()
	c := New(sender, thread, nil)

	if err := c.Attach(model.TypeImage, writeTemp(t, "pic.png", 64)); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected send failure")
	}
	if c.Attachment() == nil {
		t.Error("attachment cleared on failure, want intact for retry")
	}
	if len(thread.appended) != 0 {
		t.Error("optimistic append happened despite failure")
	}
	if thread.reconciles.Load() != 0 {
		t.Error("reconcile scheduled despite failure")
	}
}

func TestAttachmentOnlySendDefaultsContent(t *testing.T) {
	sender := &stubSender{}
	c := New(sender, activeThread(), nil)

	if err := c.Attach(model.TypeVideo, writeTemp(t, "clip.mp4", 128)); err != nil {
		t.Fatal(err)
	}

	msg, err := c.Send(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if msg.Content != "Sent a video" {
		t.Errorf("Content = %q, want video placeholder", msg.Content)
	}
	if sender.last.MessageType != model.TypeVideo {
		t.Errorf("MessageType = %q, want VIDEO", sender.last.MessageType)
	}
	if !strings.HasPrefix(sender.last.MediaURL, "data:video/mp4;base64,") {
		t.Errorf("MediaURL prefix = %q", sender.last.MediaURL[:min(40, len(sender.last.MediaURL))])
	}
	if c.Attachment() != nil {
		t.Error("attachment not cleared after successful send")
	}
}

func TestAttachRejectsOversizedFile(t *testing.T) {
	c := New(&stubSender{}, activeThread(), nil)

	path := writeTemp(t, "huge.png", 12*1024*1024)
	err := c.Attach(model.TypeImage, path)
	if !rest.IsValidation(err) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if c.Attachment() != nil {
		t.Error("rejected file became a pending attachment")
	}
}

func TestAttachRejectsWrongMimeForKind(t *testing.T) {
	c := New(&stubSender{}, activeThread(), nil)

	tests := []struct {
		kind model.MessageType
		file string
	}{
		{model.TypeImage, "notes.txt"},
		{model.TypeVideo, "pic.png"},
		{model.TypeAudio, "clip.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			err := c.Attach(tt.kind, writeTemp(t, tt.file, 64))
			if !rest.IsValidation(err) {
				t.Errorf("Attach(%s, %s) error = %v, want ValidationError", tt.kind, tt.file, err)
			}
		})
	}
}

func TestAttachAcceptsAllowListedTypes(t *testing.T) {
	c := New(&stubSender{}, activeThread(), nil)

	tests := []struct {
		kind model.MessageType
		file string
		mime string
	}{
		{model.TypeImage, "pic.jpg", "image/jpeg"},
		{model.TypeImage, "anim.gif", "image/gif"},
		{model.TypeVideo, "clip.webm", "video/webm"},
		{model.TypeAudio, "song.wav", "audio/wav"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if err := c.Attach(tt.kind, writeTemp(t, tt.file, 64)); err != nil {
				t.Fatalf("Attach() error = %v", err)
			}
			att := c.Attachment()
			if att == nil || att.MimeType != tt.mime {
				t.Errorf("attachment = %+v, want mime %s", att, tt.mime)
			}
			c.ClearAttachment()
		})
	}
}

func TestServerErrorPassedThrough(t *testing.T) {
	sender := &stubSender{err: &rest.ServerError{Status: 400, Message: "recipient blocked you"}}
	c := New(sender, activeThread(), nil)

	_, err := c.Send(context.Background(), "hello")
	var se *rest.ServerError
	if !errors.As(err, &se) || se.Message != "recipient blocked you" {
		t.Errorf("error = %v, want ServerError with server message", err)
	}
}
