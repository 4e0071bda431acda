package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	chimiddleware "github.com/go-chi/chi/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-management/internal/transport"
)

var _ = Describe("RequestID", func() {
	It("mints an id, stores it for chi and echoes it", func() {
		var seen string
		h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = chimiddleware.GetReqID(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(seen).NotTo(BeEmpty())
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal(seen))
	})

	It("keeps a caller supplied id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)
		Expect(rec.Header().Get(RequestIDHeader)).To(Equal("abc-123"))
	})
})

var _ = Describe("redaction", func() {
	It("filters nested sensitive JSON keys regardless of case", func() {
		out := filterSensitiveBody([]byte(`{"email":"a@b.c","newPassword":"x","data":{"accessToken":"t","items":[{"nationalId":"123"}]}}`))

		var parsed map[string]interface{}
		Expect(json.Unmarshal([]byte(out), &parsed)).To(Succeed())
		Expect(parsed["email"]).To(Equal("a@b.c"))
		Expect(parsed["newPassword"]).To(Equal("[FILTERED]"))
		data := parsed["data"].(map[string]interface{})
		Expect(data["accessToken"]).To(Equal("[FILTERED]"))
		Expect(data["items"].([]interface{})[0].(map[string]interface{})["nationalId"]).To(Equal("[FILTERED]"))
	})

	It("masks sensitive headers", func() {
		h := http.Header{}
		h.Set("Authorization", "Bearer x")
		h.Set("Cookie", "access_token=y")
		h.Set("Accept", "application/json")
		filtered := filterSensitiveHeaders(h)
		Expect(filtered["Authorization"]).To(Equal("[FILTERED]"))
		Expect(filtered["Cookie"]).To(Equal("[FILTERED]"))
		Expect(filtered["Accept"]).To(Equal("application/json"))
	})

	It("leaves the request body readable for the handler", func() {
		var body string
		h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			body = string(b)
			w.WriteHeader(http.StatusCreated)
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"p"}`)))
		Expect(body).To(Equal(`{"password":"p"}`))
		Expect(rec.Code).To(Equal(http.StatusCreated))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with the 500 envelope", func() {
		base := transport.NewBaseHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
		h := RecoveryMiddleware(base)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(MatchJSON(`{"success":false,"error":"Internal server error"}`))
	})
})

var _ = Describe("CORS", func() {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	It("echoes allowed origins and short-circuits preflight", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/employees", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		CORS("http://localhost:3000, http://localhost:5173")(next).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:3000"))
		Expect(rec.Header().Get("Access-Control-Allow-Credentials")).To(Equal("true"))
	})

	It("ignores unknown origins", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		CORS("http://localhost:3000")(next).ServeHTTP(rec, req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("sets security headers", func() {
		rec := httptest.NewRecorder()
		SecurityHeaders(true)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Header().Get("X-Frame-Options")).To(Equal("DENY"))
		Expect(rec.Header().Get("Strict-Transport-Security")).NotTo(BeEmpty())
	})
})
