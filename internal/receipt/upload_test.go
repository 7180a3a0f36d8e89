package receipt

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/fuel-station/internal/station"
)

var _ = Describe("ValidateUpload", func() {
	var (
		upload *Upload
		err    error
	)

	BeforeEach(func() {
		upload = &Upload{Filename: "pump.jpeg", ContentType: "image/jpeg", Data: []byte("x")}
	})

	JustBeforeEach(func() {
		err = ValidateUpload(upload)
	})

	It("accepts a supported image", func() {
		Expect(err).NotTo(HaveOccurred())
	})

	When("the file is empty", func() {
		BeforeEach(func() {
			upload.Data = nil
		})

		It("reports that no image was provided", func() {
			Expect(err).To(MatchError("No image file provided: image"))
		})
	})

	When("the file is too large", func() {
		BeforeEach(func() {
			upload.Data = make([]byte, MaxUploadSize+1)
		})

		It("rejects it", func() {
			var verr *station.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Fields["image"]).To(ContainSubstring("too large"))
		})
	})

	When("the type is not an image", func() {
		BeforeEach(func() {
			upload.Filename = "receipt.pdf"
			upload.ContentType = "application/pdf"
		})

		It("rejects it", func() {
			Expect(err).To(MatchError(ContainSubstring("only supports images")))
		})
	})

	When("the extension does not match an image type", func() {
		BeforeEach(func() {
			upload.Filename = "receipt.exe"
		})

		It("rejects it", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("storedName", func() {
	It("uses the timestamp, a nine digit suffix and the original extension", func() {
		now := time.UnixMilli(1746093000123)
		Expect(storedName("photo.PNG", now)).To(MatchRegexp(`^receipt-1746093000123-\d{9}\.PNG$`))
	})

	It("differs between calls at the same instant", func() {
		now := time.UnixMilli(1746093000123)
		Expect(storedName("a.jpg", now)).NotTo(Equal(storedName("a.jpg", now)))
	})
})
