package receipt

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/fuel-station/internal/station"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

var _ = Describe("S3Storage", func() {
	var (
		ctx     context.Context
		server  *ghttp.Server
		storage *S3Storage
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		server.SetAllowUnhandledRequests(false)

		var err error
		storage, err = NewS3Storage(ctx, S3Config{
			Bucket:    "receipts",
			Prefix:    "uploads",
			Region:    "us-east-1",
			Endpoint:  server.URL(),
			AccessKey: "test",
			SecretKey: "test",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a bucket", func() {
		_, err := NewS3Storage(ctx, S3Config{})
		Expect(err).To(MatchError(ContainSubstring("bucket is required")))
	})

	It("puts the image under the prefix", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPut, "/receipts/uploads/receipt-1.jpg"),
			ghttp.RespondWith(http.StatusOK, ""),
		))

		name, err := storage.Save(ctx, "receipt-1.jpg", []byte("jpeg"))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("receipt-1.jpg"))
	})

	It("gets the image", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodGet, "/receipts/uploads/receipt-1.jpg"),
			ghttp.RespondWith(http.StatusOK, "jpeg"),
		))

		data, err := storage.Get(ctx, "receipt-1.jpg")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("jpeg"))
	})

	It("maps a missing key to ErrNotFound", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, noSuchKey,
			http.Header{"Content-Type": {"application/xml"}}))

		_, err := storage.Get(ctx, "missing.jpg")
		Expect(errors.Is(err, station.ErrNotFound)).To(BeTrue())
	})

	It("checks the key before deleting it", func() {
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodHead, "/receipts/uploads/receipt-1.jpg"),
				ghttp.RespondWith(http.StatusOK, ""),
			),
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodDelete, "/receipts/uploads/receipt-1.jpg"),
				ghttp.RespondWith(http.StatusNoContent, ""),
			),
		)

		Expect(storage.Delete(ctx, "receipt-1.jpg")).To(Succeed())
		Expect(server.ReceivedRequests()).To(HaveLen(2))
	})

	It("reports deleting a missing key as ErrNotFound", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, ""))

		err := storage.Delete(ctx, "missing.jpg")
		Expect(errors.Is(err, station.ErrNotFound)).To(BeTrue())
	})
})
