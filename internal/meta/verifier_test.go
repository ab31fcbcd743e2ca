package meta_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"retailassist.app/relay/internal/meta"
)

var _ = Describe("Verifier", func() {
	const (
		verifyToken = "hub-token"
		appSecret   = "app-secret"
	)

	var verifier *meta.Verifier

	BeforeEach(func() {
		verifier = meta.NewVerifier(verifyToken, appSecret)
	})

	Describe("VerifyHandshake", func() {
		It("echoes the challenge verbatim", func() {
			challenge, err := verifier.VerifyHandshake("subscribe", verifyToken, "1234")
			Expect(err).NotTo(HaveOccurred())
			Expect(challenge).To(Equal("1234"))
		})

		It("echoes opaque challenges unchanged", func() {
			challenge, err := verifier.VerifyHandshake("subscribe", verifyToken, " a b+c ")
			Expect(err).NotTo(HaveOccurred())
			Expect(challenge).To(Equal(" a b+c "))
		})

		DescribeTable("rejections",
			func(v *meta.Verifier, mode, token, challenge string, expected error) {
				if v == nil {
					v = verifier
				}
				_, err := v.VerifyHandshake(mode, token, challenge)
				Expect(err).To(MatchError(expected))
			},
			Entry("wrong mode", nil, "unsubscribe", verifyToken, "1", meta.ErrInvalidMode),
			Entry("empty mode", nil, "", verifyToken, "1", meta.ErrInvalidMode),
			Entry("wrong token", nil, "subscribe", "nope", "1", meta.ErrInvalidVerifyToken),
			Entry("missing challenge", nil, "subscribe", verifyToken, "", meta.ErrMissingChallenge),
			Entry("token not configured", meta.NewVerifier("", appSecret), "subscribe", "", "1", meta.ErrVerifyTokenNotConfigured),
		)
	})

	Describe("VerifySignature", func() {
		body := []byte(`{"object":"page","entry":[]}`)

		It("accepts a correct signature", func() {
			header := meta.SignatureHeaderValue(appSecret, body)
			Expect(header).To(HavePrefix("sha256="))
			Expect(verifier.VerifySignature(body, header)).To(Succeed())
		})

		It("rejects a signature made with another secret", func() {
			header := meta.SignatureHeaderValue("other", body)
			Expect(verifier.VerifySignature(body, header)).To(MatchError(meta.ErrInvalidSignature))
		})

		It("rejects a signature over a different body", func() {
			header := meta.SignatureHeaderValue(appSecret, []byte(`{}`))
			Expect(verifier.VerifySignature(body, header)).To(MatchError(meta.ErrInvalidSignature))
		})

		It("rejects missing and malformed headers", func() {
			Expect(verifier.VerifySignature(body, "")).To(MatchError(meta.ErrMissingSignature))
			Expect(verifier.VerifySignature(body, "sha1=abc")).To(MatchError(meta.ErrMalformedSignature))
			Expect(verifier.VerifySignature(body, "sha256=zz")).To(MatchError(meta.ErrMalformedSignature))
			Expect(verifier.VerifySignature(body, "sha256=abcd")).To(MatchError(meta.ErrMalformedSignature))
		})

		It("reports a missing secret as a configuration error", func() {
			v := meta.NewVerifier(verifyToken, "")
			Expect(v.VerifySignature(body, meta.SignatureHeaderValue(appSecret, body))).
				To(MatchError(meta.ErrSecretNotConfigured))
		})
	})
})
