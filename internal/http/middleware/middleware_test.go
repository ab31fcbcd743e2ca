package middleware_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/internal/http/middleware"
)

var _ = Describe("RequireAdminKey", func() {
	serve := func(key string, headers map[string]string) int {
		r := gin.New()
		r.Use(middleware.RequireAdminKey(key))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	It("accepts the key in the admin header", func() {
		Expect(serve("secret", map[string]string{middleware.AdminKeyHeader: "secret"})).To(Equal(http.StatusOK))
	})

	It("accepts a bearer token", func() {
		Expect(serve("secret", map[string]string{"Authorization": "Bearer secret"})).To(Equal(http.StatusOK))
	})

	It("rejects a wrong or missing key", func() {
		Expect(serve("secret", map[string]string{middleware.AdminKeyHeader: "nope"})).To(Equal(http.StatusUnauthorized))
		Expect(serve("secret", nil)).To(Equal(http.StatusUnauthorized))
	})

	It("disables the API when no key is configured", func() {
		Expect(serve("", map[string]string{middleware.AdminKeyHeader: ""})).To(Equal(http.StatusServiceUnavailable))
	})
})

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500", func() {
		r := gin.New()
		r.Use(middleware.Recovery(), middleware.Logger())
		r.GET("/boom", func(*gin.Context) { panic("boom") })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})
