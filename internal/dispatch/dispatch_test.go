package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/antqd/emailsender/internal/dispatch"
	"github.com/antqd/emailsender/internal/email"
	"github.com/antqd/emailsender/internal/mocks"
)

const sender = "noreply@energyplanner.it"

func newProvider(t *testing.T) *mocks.MockProvider {
	t.Helper()

	p := mocks.NewMockProvider(gomock.NewController(t))
	p.EXPECT().Name().Return("mock").AnyTimes()
	return p
}

type recorder struct {
	mu   sync.Mutex
	sent []*email.Email
}

func (r *recorder) record(_ context.Context, msg *email.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) byRecipient(addr string) *email.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.sent {
		for _, to := range m.To {
			if to == addr {
				return m
			}
		}
	}
	return nil
}

func TestDispatch_InternalAndClient(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	p := newProvider(t)
	rec := &recorder{}
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(2)

	atts := []email.Attachment{{Filename: "a.pdf", Content: []byte("a")}}
	err := dispatch.New(p, sender, "Energy Planner").Dispatch(context.Background(), dispatch.Request{
		Subject:     "Nuova richiesta da Mario",
		HTML:        "<p>ciao</p>",
		Attachments: atts,
		Internal:    []string{"info@energyplanner.it", "admin@energyplanner.it"},
		ReplyTo:     "mario@example.com",
		Client:      "mario@example.com",
	})
	r.NoError(err)

	internal := rec.byRecipient("info@energyplanner.it")
	r.NotNil(internal)
	r.Equal([]string{"info@energyplanner.it", "admin@energyplanner.it"}, internal.To)
	r.Equal("mario@example.com", internal.ReplyTo)
	r.Equal(email.Address{Name: "Energy Planner", Address: sender}, internal.From)
	r.Equal(atts, internal.Attachments)
	r.Equal("<p>ciao</p>", internal.HTMLBody)

	client := rec.byRecipient("mario@example.com")
	r.NotNil(client)
	r.Empty(client.ReplyTo)
	r.Empty(client.Attachments)
	r.Equal("Nuova richiesta da Mario", client.Subject)
}

func TestDispatch_ClientAttachmentsAndBrand(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	p := newProvider(t)
	rec := &recorder{}
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(rec.record).Times(2)

	err := dispatch.New(p, sender, "Energy Planner").Dispatch(context.Background(), dispatch.Request{
		Attachments:       []email.Attachment{{Filename: "a.pdf", Content: []byte("a")}},
		Internal:          []string{"info@energyplanner.it"},
		Client:            "c@example.com",
		ClientAttachments: true,
		Brand:             "Energy Planner Contratti",
	})
	r.NoError(err)

	client := rec.byRecipient("c@example.com")
	r.Len(client.Attachments, 1)
	r.Equal("Energy Planner Contratti", client.From.Name)
}

func TestDispatch_InternalOnly(t *testing.T) {
	t.Parallel()

	p := newProvider(t)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	err := dispatch.New(p, sender, "Energy Planner").Dispatch(context.Background(), dispatch.Request{
		Internal: []string{"info@energyplanner.it"},
		ReplyTo:  "x@example.com",
	})
	require.NoError(t, err)
}

func TestDispatch_NoTargets(t *testing.T) {
	t.Parallel()

	p := newProvider(t)

	err := dispatch.New(p, sender, "").Dispatch(context.Background(), dispatch.Request{Subject: "x"})
	require.ErrorIs(t, err, dispatch.ErrNoTargets)
}

func TestDispatch_ClientFailureFailsWholeRequest(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	errBounce := errors.New("550 mailbox unavailable")

	p := newProvider(t)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg *email.Email) error {
		if msg.To[0] == "client@example.com" {
			return errBounce
		}
		return nil
	}).Times(2)

	err := dispatch.New(p, sender, "Energy Planner").Dispatch(context.Background(), dispatch.Request{
		Internal: []string{"info@energyplanner.it"},
		Client:   "client@example.com",
	})
	r.ErrorIs(err, errBounce)
	r.Contains(err.Error(), "client@example.com")
}

func TestDispatch_WaitsForBothSends(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	var (
		mu       sync.Mutex
		finished int
	)
	release := make(chan struct{})

	p := newProvider(t)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg *email.Email) error {
		if msg.To[0] == "client@example.com" {
			return errors.New("refused")
		}
		<-release
		mu.Lock()
		finished++
		mu.Unlock()
		return nil
	}).Times(2)

	done := make(chan error, 1)
	go func() {
		done <- dispatch.New(p, sender, "").Dispatch(context.Background(), dispatch.Request{
			Internal: []string{"info@energyplanner.it"},
			Client:   "client@example.com",
		})
	}()

	select {
	case <-done:
		t.Fatal("dispatch returned before the internal send settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	r.Error(<-done)

	mu.Lock()
	defer mu.Unlock()
	r.Equal(1, finished)
}

func TestDispatch_UndecodableAttachmentFailsAtSend(t *testing.T) {
	t.Parallel()
	r := require.New(t)

	p := newProvider(t)
	p.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	err := dispatch.New(p, sender, "").Dispatch(context.Background(), dispatch.Request{
		Attachments: []email.Attachment{{Filename: "broken.pdf", Err: errors.New("illegal base64 data at input byte 0")}},
		Internal:    []string{"info@energyplanner.it"},
		Client:      "client@example.com",
	})
	r.Error(err)
	r.Contains(err.Error(), "broken.pdf")
}
