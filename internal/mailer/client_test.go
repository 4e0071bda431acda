package mailer_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/frahmantamala/hr-management/internal/core/events"
	"github.com/frahmantamala/hr-management/internal/mailer"
)

type inbox struct {
	mu       sync.Mutex
	messages []mailer.Message
	auth     []string
}

func (i *inbox) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg mailer.Message
		_ = json.NewDecoder(r.Body).Decode(&msg)
		i.mu.Lock()
		i.messages = append(i.messages, msg)
		i.auth = append(i.auth, r.Header.Get("Authorization"))
		i.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (i *inbox) received() []mailer.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]mailer.Message(nil), i.messages...)
}

var _ = Describe("Client", func() {
	var (
		logger *slog.Logger
		box    *inbox
		server *httptest.Server
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		box = &inbox{}
		server = httptest.NewServer(box.handler(http.StatusAccepted))
		DeferCleanup(server.Close)
	})

	It("posts every queued message before Shutdown returns", func() {
		client := mailer.NewClient(mailer.Config{
			APIURL:     server.URL,
			APIKey:     "secret",
			From:       "hr@example.com",
			MaxWorkers: 2,
			QueueSize:  10,
		}, logger)

		for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			Expect(client.Send(mailer.Message{To: to, Subject: "hi", Text: "body"})).To(Succeed())
		}
		client.Shutdown()

		msgs := box.received()
		Expect(msgs).To(HaveLen(3))
		Expect(msgs).To(ContainElement(HaveField("To", "b@example.com")))
		Expect(msgs[0].From).To(Equal("hr@example.com"))
		Expect(box.auth).To(HaveEach("Bearer secret"))
	})

	It("rejects mail after shutdown", func() {
		client := mailer.NewClient(mailer.Config{APIURL: server.URL}, logger)
		client.Shutdown()
		Expect(client.Send(mailer.Message{To: "x@example.com"})).NotTo(Succeed())
	})

	It("logs instead of posting when no API url is configured", func() {
		client := mailer.NewClient(mailer.Config{}, logger)
		Expect(client.Send(mailer.Message{To: "x@example.com", Subject: "s"})).To(Succeed())
		client.Shutdown()
		Expect(box.received()).To(BeEmpty())
	})

	It("keeps reset links out of info logs in log-only mode", func() {
		out := gbytes.NewBuffer()
		infoLogger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
		client := mailer.NewClient(mailer.Config{}, infoLogger)

		msg := mailer.PasswordResetMessage("https://hr.example.com", "x@example.com", "budi", "reset-token-123")
		Expect(client.Send(msg)).To(Succeed())
		client.Shutdown()

		Expect(string(out.Contents())).To(ContainSubstring("x@example.com"))
		Expect(string(out.Contents())).NotTo(ContainSubstring("reset-token-123"))
	})

	It("survives a failing mail API", func() {
		failing := httptest.NewServer(box.handler(http.StatusInternalServerError))
		defer failing.Close()

		client := mailer.NewClient(mailer.Config{APIURL: failing.URL}, logger)
		Expect(client.Send(mailer.Message{To: "x@example.com"})).To(Succeed())
		client.Shutdown()
		Expect(box.received()).To(HaveLen(1))
	})

	Describe("event handlers", func() {
		It("mails password reset and verification links", func() {
			bus := events.NewEventBus(logger)
			client := mailer.NewClient(mailer.Config{
				APIURL:      server.URL,
				FrontendURL: "https://hr.example.com/",
			}, logger)
			client.RegisterHandlers(bus)

			ctx := context.Background()
			Expect(bus.Publish(ctx, events.NewPasswordResetRequestedEvent(1, "ann@example.com", "ann", "reset-tok"))).To(Succeed())
			Expect(bus.Publish(ctx, events.NewVerificationRequestedEvent(2, "bob@example.com", "bob", "verify-tok"))).To(Succeed())
			bus.Wait()
			client.Shutdown()

			msgs := box.received()
			Expect(msgs).To(HaveLen(2))
			Expect(msgs).To(ContainElement(SatisfyAll(
				HaveField("To", "ann@example.com"),
				HaveField("Text", ContainSubstring("https://hr.example.com/reset-password/reset-tok")),
			)))
			Expect(msgs).To(ContainElement(SatisfyAll(
				HaveField("To", "bob@example.com"),
				HaveField("Text", ContainSubstring("https://hr.example.com/verify-email/verify-tok")),
			)))
		})
	})
})
